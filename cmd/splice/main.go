// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"splice"
	"splice/internal/config"
	"splice/internal/errors"
	"splice/source"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: splice <file.rs>")
		os.Exit(1)
	}

	startTime := time.Now()
	path := os.Args[1]

	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.ConfigureLogging()

	session := splice.NewSession(cfg)
	defer session.Close()

	file := source.NewFile(path, string(content))
	errorReporter := errors.NewErrorReporter(file)

	res, err := session.ExpandFile(context.Background(), file)
	var diagnostics []splice.Diagnostic
	if err != nil {
		d, ok := err.(*splice.Diagnostic)
		if !ok {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		diagnostics = append(diagnostics, *d)
	} else {
		diagnostics = res.Diagnostics
	}

	for _, d := range diagnostics {
		fmt.Print(errorReporter.FormatError(d))
	}

	formattedDuration := formatDuration(time.Since(startTime))

	if len(diagnostics) == 0 {
		fmt.Println(res.Tokens.String())
		color.Green("Expanded %d invocations in %s in %s", len(res.Invocations), path, formattedDuration)
	} else {
		color.Red("Expansion failed after %s", formattedDuration)
		session.Close()
		os.Exit(1)
	}
}

// loadConfig finds splice.toml next to or above the input file.
func loadConfig(path string) (config.Config, error) {
	cfgPath, ok, err := config.Find(filepath.Dir(path))
	if err != nil {
		return config.Config{}, err
	}
	if !ok {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	default:
		return fmt.Sprintf("%dμs", d.Microseconds())
	}
}
