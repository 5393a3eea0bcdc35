package interp

import (
	"errors"
	"fmt"
	"reflect"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"splice/internal/emit"
	errs "splice/internal/errors"
	"splice/internal/script"
	"splice/source"
	"splice/token"
)

const (
	stackKey   = "splice.stack"
	assignSlot = "__splice_value__"
)

// Interpreter runs the scripting code of one expansion on one Starlark
// thread.
type Interpreter struct {
	rt     *Runtime
	stack  *emit.Stack
	thread *starlark.Thread
	chunks map[string]*source.Chunk
}

var _ script.Interpreter = (*Interpreter)(nil)

func (i *Interpreter) register(code *source.Chunk) {
	i.chunks[code.Name] = code
}

// env flattens scope into a Starlark global dictionary on top of the
// builtins.
func (i *Interpreter) env(scope *script.Scope) starlark.StringDict {
	env := make(starlark.StringDict, len(i.rt.builtins))
	for name, v := range i.rt.builtins {
		env[name] = v
	}
	for name, v := range scope.Flatten() {
		env[name] = toStarlark(v)
	}
	return env
}

// writeBack stores every binding the code created or changed.
func (i *Interpreter) writeBack(env, before starlark.StringDict, scope *script.Scope) {
	for name, v := range env {
		if name == assignSlot {
			continue
		}
		if old, ok := before[name]; ok && same(old, v) {
			continue
		}
		scope.Set(name, v)
	}
}

func (i *Interpreter) Exec(code *source.Chunk, scope *script.Scope) error {
	return i.exec(code, code.Code, scope, nil)
}

func (i *Interpreter) Assign(target *source.Chunk, v script.Value, scope *script.Scope) error {
	return i.exec(target, target.Code+" = "+assignSlot, scope, toStarlark(v))
}

func (i *Interpreter) exec(code *source.Chunk, text string, scope *script.Scope, slot starlark.Value) error {
	i.register(code)
	f, err := i.rt.fileOpts.Parse(code.Name, text, 0)
	if err != nil {
		return i.convert(err)
	}
	env := i.env(scope)
	if slot != nil {
		env[assignSlot] = slot
	}
	before := make(starlark.StringDict, len(env))
	for name, v := range env {
		before[name] = v
	}
	err = starlark.ExecREPLChunk(f, i.thread, env)
	i.writeBack(env, before, scope)
	return i.convert(err)
}

func (i *Interpreter) Eval(code *source.Chunk, scope *script.Scope) (script.Value, error) {
	i.register(code)
	v, err := starlark.EvalOptions(i.rt.fileOpts, i.thread, code.Name, code.Code, i.env(scope))
	if err != nil {
		return nil, i.convert(err)
	}
	return v, nil
}

func (i *Interpreter) Iterate(v script.Value) (script.Iterator, error) {
	sv := toStarlark(v)
	it := starlark.Iterate(sv)
	if it == nil {
		return nil, &errs.InterpreterError{
			Class:   "TypeError",
			Message: fmt.Sprintf("value of type %s is not iterable", sv.Type()),
		}
	}
	return iterator{it}, nil
}

type iterator struct {
	it starlark.Iterator
}

func (it iterator) Next() (script.Value, bool) {
	var v starlark.Value
	if it.it.Next(&v) {
		return v, true
	}
	return nil, false
}

func (it iterator) Done() {
	it.it.Done()
}

func (i *Interpreter) Truth(v script.Value) bool {
	return bool(toStarlark(v).Truth())
}

func (i *Interpreter) Import(module string) (script.Value, error) {
	return i.rt.Import(module)
}

func (i *Interpreter) Attr(v script.Value, name string) (script.Value, error) {
	sv := toStarlark(v)
	attrs, ok := sv.(starlark.HasAttrs)
	if ok {
		attr, err := attrs.Attr(name)
		if err != nil {
			return nil, i.convert(err)
		}
		if attr != nil {
			return attr, nil
		}
	}
	return nil, &errs.InterpreterError{
		Class:   "ImportError",
		Message: fmt.Sprintf("%s has no member %q", sv, name),
	}
}

func (i *Interpreter) None() script.Value {
	return starlark.None
}

// Export converts a Starlark value for emit.Coerce.
func (i *Interpreter) Export(v script.Value) any {
	return export(toStarlark(v))
}

func export(v starlark.Value) any {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.String:
		return string(v)
	case starlark.Int:
		return v.BigInt()
	case starlark.Float:
		return float64(v)
	case starlark.Bytes:
		return []byte(v)
	case starlark.Tuple:
		out := make(emit.Tuple, len(v))
		for n, x := range v {
			out[n] = export(x)
		}
		return out
	case *starlark.List:
		out := make(emit.List, v.Len())
		for n := range out {
			out[n] = export(v.Index(n))
		}
		return out
	case *Tokens:
		return v.ts
	case *Token:
		return v.tok
	}
	return emit.Opaque{Type: v.Type(), Repr: v.String()}
}

func exportAll(args starlark.Tuple) []any {
	out := make([]any, len(args))
	for n, a := range args {
		out[n] = export(a)
	}
	return out
}

// Target returns the token sequence a with statement should redirect
// emission into.
func (i *Interpreter) Target(v script.Value) (*token.Tokens, bool) {
	switch v := toStarlark(v).(type) {
	case *Tokens:
		return v.ts, true
	case *Token:
		if g, ok := v.tok.(*token.Group); ok {
			return g.Body, true
		}
	}
	return nil, false
}

// convert turns a Starlark failure into the pipeline's error types. Errors
// that already belong to the pipeline (raised by builtins or by nested
// script runs) pass through unchanged.
func (i *Interpreter) convert(err error) error {
	if err == nil {
		return nil
	}
	var (
		exec *errs.ScriptExecutionError
		tok  *errs.TokenizationError
		scan *errs.ScanError
		ie   *errs.InterpreterError
	)
	switch {
	case errors.As(err, &exec):
		return exec
	case errors.As(err, &scan):
		return scan
	case errors.As(err, &tok):
		return tok.At(i.stack.Span(), i.stack.Origin())
	}

	var (
		evalErr   *starlark.EvalError
		syntaxErr syntax.Error
		resolved  resolve.ErrorList
	)
	switch {
	case errors.As(err, &evalErr):
		out := &errs.InterpreterError{Message: evalErr.Msg}
		for n := len(evalErr.CallStack) - 1; n >= 0; n-- {
			if f, ok := i.frame(evalErr.CallStack[n].Name, evalErr.CallStack[n].Pos); ok {
				out.Frames = append(out.Frames, f)
			}
		}
		if errors.As(err, &ie) && ie.Class != "" {
			out.Class = ie.Class
		}
		return out
	case errors.As(err, &syntaxErr):
		return i.positioned("SyntaxError", syntaxErr.Msg, syntaxErr.Pos)
	case errors.As(err, &resolved):
		return i.positioned("NameError", resolved[0].Msg, resolved[0].Pos)
	case errors.As(err, &ie):
		return ie
	}
	return &errs.InterpreterError{Message: err.Error()}
}

func (i *Interpreter) positioned(class, msg string, pos syntax.Position) error {
	out := &errs.InterpreterError{Class: class, Message: msg}
	if f, ok := i.frame("<module>", pos); ok {
		out.Frames = append(out.Frames, f)
	}
	return out
}

// frame maps a Starlark position onto the invocation's source. Frames of
// Go builtins are dropped.
func (i *Interpreter) frame(fn string, pos syntax.Position) (errs.Frame, bool) {
	if !pos.IsValid() || pos.Filename() == "<builtin>" {
		return errs.Frame{}, false
	}
	f := errs.Frame{Function: fn, File: pos.Filename(), Line: int(pos.Line), Col: int(pos.Col)}
	if chunk, ok := i.chunks[f.File]; ok {
		f.HostLine = chunk.HostLine(f.Line)
		f.Span = chunk.SpanAt(f.Line, f.Col)
	}
	return f, true
}

func toStarlark(v script.Value) starlark.Value {
	if sv, ok := v.(starlark.Value); ok && sv != nil {
		return sv
	}
	return starlark.None
}

// same reports whether an assignment left a binding untouched.
func same(a, b starlark.Value) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if x, ok := a.(starlark.Tuple); ok {
		y := b.(starlark.Tuple)
		if len(x) != len(y) {
			return false
		}
		for n := range x {
			if !same(x[n], y[n]) {
				return false
			}
		}
		return true
	}
	return ta.Comparable() && a == b
}
