// Package script is the boundary between the translator and the embedded
// interpreter. The translator only sees opaque Values and the capabilities
// below; internal/interp provides them.
package script

import (
	"splice/internal/emit"
	"splice/source"
	"splice/token"
)

// Value is an interpreter value. Only the interpreter that produced it can
// look inside.
type Value any

// Runtime is the process-wide interpreter: module cache and builtin table.
// It is safe for concurrent use; the interpreters it hands out are not.
type Runtime interface {
	// Begin starts one expansion. Builtins that emit tokens write to stack.
	Begin(stack *emit.Stack) Interpreter
	Close() error
}

// Interpreter runs the scripting code of one expansion.
type Interpreter interface {
	// Exec runs statements for their side effects on scope.
	Exec(code *source.Chunk, scope *Scope) error
	// Eval evaluates an expression.
	Eval(code *source.Chunk, scope *Scope) (Value, error)
	// Assign binds v to an assignment target such as "a, (b, c)".
	Assign(target *source.Chunk, v Value, scope *Scope) error

	Iterate(v Value) (Iterator, error)
	Truth(v Value) bool
	Import(module string) (Value, error)
	Attr(v Value, name string) (Value, error)

	// Export converts v to the values emit.Coerce accepts. Values without
	// a token form come back as emit.Opaque.
	Export(v Value) any
	// Target returns the token sequence v stands for, if any.
	Target(v Value) (*token.Tokens, bool)

	// Define makes a callable named name. Calling it binds the arguments
	// to params and runs body.
	Define(name string, params []Param, body Body) Value

	None() Value
}

// Iterator walks a sequence. Done must be called when iteration stops.
type Iterator interface {
	Next() (Value, bool)
	Done()
}

// Param is a parameter of a defined function. Star is "", "*" or "**".
type Param struct {
	Name    string
	Star    string
	Default Value
}

// Body runs a defined function with its bound arguments.
type Body func(args map[string]Value) (Value, error)
