package script

import (
	"maps"
	"slices"
)

type frameKind uint8

const (
	globalFrame frameKind = iota
	functionFrame
	blockFrame
)

// Scope is one frame of variable bindings. Block frames (loops, with
// bodies) hold only the names they bind; other assignments inside them
// land in the nearest function or global frame, as in Python.
type Scope struct {
	parent *Scope
	kind   frameKind
	vars   map[string]Value
}

// NewScope returns a global frame.
func NewScope() *Scope {
	return &Scope{kind: globalFrame, vars: map[string]Value{}}
}

// Block returns a child frame for a loop or with body.
func (s *Scope) Block() *Scope {
	return &Scope{parent: s, kind: blockFrame, vars: map[string]Value{}}
}

// Function returns a child frame holding a call's arguments.
func (s *Scope) Function(args map[string]Value) *Scope {
	if args == nil {
		args = map[string]Value{}
	}
	return &Scope{parent: s, kind: functionFrame, vars: args}
}

func (s *Scope) Parent() *Scope {
	return s.parent
}

func (s *Scope) Lookup(name string) (Value, bool) {
	if owner := s.owner(name); owner != nil {
		return owner.vars[name], true
	}
	return nil, false
}

func (s *Scope) owner(name string) *Scope {
	for f := s; f != nil; f = f.parent {
		if _, ok := f.vars[name]; ok {
			return f
		}
	}
	return nil
}

// Declare binds name in this frame.
func (s *Scope) Declare(name string, v Value) {
	s.vars[name] = v
}

// Set assigns to the innermost frame that already binds name, or else
// declares it in the nearest function or global frame.
func (s *Scope) Set(name string, v Value) {
	if owner := s.owner(name); owner != nil {
		owner.vars[name] = v
		return
	}
	f := s
	for f.kind == blockFrame && f.parent != nil {
		f = f.parent
	}
	f.vars[name] = v
}

// Names returns the names bound in this frame, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Flatten merges every visible binding, inner frames shadowing outer ones.
func (s *Scope) Flatten() map[string]Value {
	var chain []*Scope
	for f := s; f != nil; f = f.parent {
		chain = append(chain, f)
	}
	out := map[string]Value{}
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(out, chain[i].vars)
	}
	return out
}
