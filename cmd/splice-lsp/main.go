// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"splice"
	"splice/internal/config"
	"splice/internal/lsp"
)

const lsName = "splice" // Name identifier for the language server

var (
	version = "0.1.0"        // Server version
	handler protocol.Handler // Protocol handler instance (wired up below)
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Println("Error loading config:", err)
		os.Exit(1)
	}
	cfg.ConfigureLogging()

	session := splice.NewSession(cfg)
	spliceHandler := lsp.NewHandler(session)

	handler = protocol.Handler{
		Initialize:            spliceHandler.Initialize,
		Initialized:           spliceHandler.Initialized,
		Shutdown:              spliceHandler.Shutdown,
		SetTrace:              spliceHandler.SetTrace,
		TextDocumentDidOpen:   spliceHandler.TextDocumentDidOpen,
		TextDocumentDidClose:  spliceHandler.TextDocumentDidClose,
		TextDocumentDidChange: spliceHandler.TextDocumentDidChange,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Printf("Starting splice LSP server %s...", version)

	// stdio is what most editors speak to a language server
	if err := s.RunStdio(); err != nil {
		log.Println("Error starting splice LSP server:", err)
		os.Exit(1)
	}
}

// loadConfig uses the nearest splice.toml above the working directory, or
// the defaults. Editors usually start the server in the project root.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	cfg.Log.Verbosity = 1

	wd, err := os.Getwd()
	if err != nil {
		return cfg, nil
	}
	path, ok, err := config.Find(wd)
	if err != nil || !ok {
		return cfg, err
	}
	return config.Load(path)
}
