// Package interp runs scripting code on go.starlark.net. A Runtime is shared
// by every expansion of a session; each expansion gets its own Interpreter
// with a fresh global namespace.
package interp

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	"go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
	"golang.org/x/sync/singleflight"

	"splice/internal/emit"
	errs "splice/internal/errors"
	"splice/internal/script"
	"splice/source"
)

var log = commonlog.GetLogger("splice.interp")

// Options configure a Runtime.
type Options struct {
	// Workdir is where import and load() look for .star files. Empty
	// disables file modules.
	Workdir string
	// Builtins lists the builtin modules scripts may import.
	Builtins []string
	// Recursion and While enable the Starlark dialect extensions.
	Recursion bool
	While     bool
	// MaxSteps bounds the execution steps of one expansion; 0 is unlimited.
	MaxSteps uint64
}

// DefaultBuiltins are the modules available when Options.Builtins is nil.
var DefaultBuiltins = []string{"math", "json", "time"}

var builtinModules = map[string]*starlarkstruct.Module{
	"math": math.Module,
	"json": json.Module,
	"time": time.Module,
}

type moduleEntry struct {
	globals starlark.StringDict
	err     error
}

// Runtime owns the state shared across expansions: dialect options, the
// builtin table and the module cache.
type Runtime struct {
	opts     Options
	fileOpts *syntax.FileOptions
	builtins starlark.StringDict

	mu      sync.Mutex
	modules map[string]*moduleEntry
	loading singleflight.Group
	closed  bool
}

var _ script.Runtime = (*Runtime)(nil)

func New(opts Options) *Runtime {
	if opts.Builtins == nil {
		opts.Builtins = DefaultBuiltins
	}
	r := &Runtime{
		opts: opts,
		fileOpts: &syntax.FileOptions{
			Set:               true,
			While:             opts.While,
			TopLevelControl:   true,
			GlobalReassign:    true,
			LoadBindsGlobally: true,
			Recursion:         opts.Recursion,
		},
		modules: map[string]*moduleEntry{},
	}
	r.builtins = tokenBuiltins()
	log.Debugf("runtime ready (workdir %q, modules %v)", opts.Workdir, opts.Builtins)
	return r
}

// Begin starts an expansion whose emitting builtins write to stack.
func (r *Runtime) Begin(stack *emit.Stack) script.Interpreter {
	thread := &starlark.Thread{
		Name: "splice",
		Print: func(_ *starlark.Thread, msg string) {
			log.Infof("%s", msg)
		},
		Load: r.load,
	}
	if r.opts.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(r.opts.MaxSteps)
	}
	thread.SetLocal(stackKey, stack)
	return &Interpreter{
		rt:     r,
		stack:  stack,
		thread: thread,
		chunks: map[string]*source.Chunk{},
	}
}

// Close drops the module cache. Interpreters begun earlier must not be
// used afterwards.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	clear(r.modules)
	log.Debugf("runtime closed")
	return nil
}

// Import resolves a dotted module name: a builtin module, or a .star file
// under the working directory.
func (r *Runtime) Import(name string) (starlark.Value, error) {
	if mod, ok := builtinModules[name]; ok {
		if !slices.Contains(r.opts.Builtins, name) {
			return nil, importError(name, "builtin module is not enabled")
		}
		return mod, nil
	}
	path := filepath.Join(strings.Split(name, ".")...) + ".star"
	globals, err := r.loadFile(path)
	if err != nil {
		return nil, err
	}
	return &starlarkstruct.Module{Name: name, Members: globals}, nil
}

// load implements the load() statement.
func (r *Runtime) load(_ *starlark.Thread, module string) (starlark.StringDict, error) {
	if mod, ok := builtinModules[strings.TrimSuffix(module, ".star")]; ok {
		if _, err := r.Import(mod.Name); err != nil {
			return nil, err
		}
		return mod.Members, nil
	}
	return r.loadFile(module)
}

func (r *Runtime) loadFile(rel string) (starlark.StringDict, error) {
	if r.opts.Workdir == "" {
		return nil, importError(rel, "no working directory is configured for script modules")
	}
	path := filepath.Clean(filepath.Join(r.opts.Workdir, rel))
	if !strings.HasPrefix(path, filepath.Clean(r.opts.Workdir)+string(filepath.Separator)) {
		return nil, importError(rel, "module path escapes the working directory")
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, importError(rel, "runtime is closed")
	}
	if e, ok := r.modules[path]; ok {
		r.mu.Unlock()
		return e.globals, e.err
	}
	r.mu.Unlock()

	v, err, shared := r.loading.Do(path, func() (any, error) {
		globals, err := r.execFile(path)
		r.mu.Lock()
		if !r.closed {
			r.modules[path] = &moduleEntry{globals: globals, err: err}
		}
		r.mu.Unlock()
		return globals, err
	})
	if shared {
		log.Debugf("module %s loaded by a concurrent expansion", path)
	}
	if err != nil {
		return nil, err
	}
	return v.(starlark.StringDict), nil
}

// execFile runs a module file on its own thread. Its globals are frozen so
// expansions running in parallel can share them.
func (r *Runtime) execFile(path string) (starlark.StringDict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, importError(path, err.Error())
	}
	log.Debugf("loading module %s", path)
	thread := &starlark.Thread{Name: "load " + path, Load: r.load}
	globals, err := starlark.ExecFileOptions(r.fileOpts, thread, path, data, r.builtins)
	if err != nil {
		return nil, importError(path, err.Error())
	}
	globals.Freeze()
	return globals, nil
}

func importError(module, reason string) error {
	return &errs.InterpreterError{
		Class:   "ImportError",
		Message: fmt.Sprintf("cannot import %q: %s", module, reason),
	}
}
