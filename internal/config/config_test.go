package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "splice/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "splice", cfg.Macro)
	assert.Equal(t, 4, cfg.MaxParallel)
	assert.Equal(t, []string{"math", "json", "time"}, cfg.Modules.Builtin)
	assert.True(t, cfg.Translate().While)
	assert.Empty(t, cfg.Interp().Workdir)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "scripts"), 0o755))
	path := writeConfig(t, dir, `
workdir = "scripts"
macro = "gen"
max_parallel = 2

[modules]
builtin = ["math"]

[script]
recursion = true
max_steps = 10000

[log]
verbosity = 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scripts"), cfg.Workdir)
	assert.Equal(t, "gen", cfg.Macro)
	assert.Equal(t, 2, cfg.MaxParallel)
	assert.Equal(t, 2, cfg.Log.Verbosity)

	opts := cfg.Interp()
	assert.Equal(t, []string{"math"}, opts.Builtins)
	assert.True(t, opts.Recursion)
	assert.True(t, opts.While)
	assert.Equal(t, uint64(10000), opts.MaxSteps)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "macro = ", "failed to parse TOML"},
		{"unknown key", "colour = true", "unknown keys: colour"},
		{"bad macro", `macro = "my macro"`, "is not an identifier"},
		{"parallel", "max_parallel = 0", "max_parallel must be at least 1"},
		{"module", "[modules]\nbuiltin = [\"os\"]", `unknown builtin module "os"`},
		{"workdir", `workdir = "missing"`, "workdir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			var d errs.CompilerError
			require.ErrorAs(t, err, &d)
			assert.Equal(t, errs.ErrorConfig, d.Code)
		})
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, ok, err := Find(nested)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, FileName), path)
}
