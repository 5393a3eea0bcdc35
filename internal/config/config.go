// Package config loads splice.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	errs "splice/internal/errors"
	"splice/internal/interp"
	"splice/internal/translate"
	"splice/source"
	"splice/token"
)

const FileName = "splice.toml"

type Config struct {
	// Workdir is where script modules are loaded from. Empty disables
	// .star modules.
	Workdir     string        `toml:"workdir"`
	Macro       string        `toml:"macro"`
	MaxParallel int           `toml:"max_parallel"`
	Modules     ModulesConfig `toml:"modules"`
	Script      ScriptConfig  `toml:"script"`
	Log         LogConfig     `toml:"log"`
}

type ModulesConfig struct {
	Builtin []string `toml:"builtin"`
}

type ScriptConfig struct {
	Recursion     bool   `toml:"recursion"`
	WhileLoops    bool   `toml:"while_loops"`
	MaxSteps      uint64 `toml:"max_steps"`
	MaxIterations int    `toml:"max_iterations"`
}

type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

func Default() Config {
	return Config{
		Macro:       "splice",
		MaxParallel: 4,
		Modules:     ModulesConfig{Builtin: slices.Clone(interp.DefaultBuiltins)},
		Script: ScriptConfig{
			WhileLoops:    true,
			MaxIterations: translate.DefaultMaxIterations,
		},
	}
}

// Load reads a config file over the defaults. A relative workdir resolves
// against the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, configError(path, "failed to parse TOML: %v", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, configError(path, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if cfg.Workdir != "" && !filepath.IsAbs(cfg.Workdir) {
		cfg.Workdir = filepath.Join(filepath.Dir(path), cfg.Workdir)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, configError(path, "%v", err)
	}
	return cfg, nil
}

// Find looks for splice.toml in dir and its parents.
func Find(dir string) (string, bool, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !os.IsNotExist(err) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

func (c Config) Validate() error {
	if !token.IsIdent(c.Macro) {
		return fmt.Errorf("macro %q is not an identifier", c.Macro)
	}
	if c.MaxParallel < 1 {
		return fmt.Errorf("max_parallel must be at least 1, got %d", c.MaxParallel)
	}
	if c.Script.MaxIterations < 0 {
		return fmt.Errorf("script.max_iterations must not be negative")
	}
	for _, m := range c.Modules.Builtin {
		if !slices.Contains(interp.DefaultBuiltins, m) {
			return fmt.Errorf("unknown builtin module %q (have %s)", m, strings.Join(interp.DefaultBuiltins, ", "))
		}
	}
	if c.Workdir != "" {
		info, err := os.Stat(c.Workdir)
		if err != nil {
			return fmt.Errorf("workdir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("workdir %s is not a directory", c.Workdir)
		}
	}
	return nil
}

// Interp returns the interpreter options.
func (c Config) Interp() interp.Options {
	return interp.Options{
		Workdir:   c.Workdir,
		Builtins:  c.Modules.Builtin,
		Recursion: c.Script.Recursion,
		While:     c.Script.WhileLoops,
		MaxSteps:  c.Script.MaxSteps,
	}
}

// Translate returns the translator options.
func (c Config) Translate() translate.Options {
	return translate.Options{
		While:         c.Script.WhileLoops,
		MaxIterations: c.Script.MaxIterations,
	}
}

// ConfigureLogging sets up commonlog from the log section.
func (c Config) ConfigureLogging() {
	var path *string
	if c.Log.File != "" {
		path = &c.Log.File
	}
	commonlog.Configure(c.Log.Verbosity, path)
}

func configError(path, format string, args ...any) error {
	return errs.NewDiagnostic(errs.ErrorConfig, fmt.Sprintf("%s: %s", path, fmt.Sprintf(format, args...)), source.Span{}).Build()
}
