package token

import (
	"fmt"
	"strings"
)

// Tokens is an ordered, mutable token sequence. A document root and every
// group body are Tokens.
type Tokens struct {
	items []Token
}

func New(items ...Token) *Tokens {
	return &Tokens{items: items}
}

func (ts *Tokens) Len() int {
	return len(ts.items)
}

func (ts *Tokens) At(i int) Token {
	return ts.items[i]
}

// Items returns the backing slice; callers must not keep it across mutations.
func (ts *Tokens) Items() []Token {
	return ts.items
}

func (ts *Tokens) Last() Token {
	if len(ts.items) == 0 {
		return nil
	}
	return ts.items[len(ts.items)-1]
}

func (ts *Tokens) Append(items ...Token) {
	ts.items = append(ts.items, items...)
}

// Extend appends a shallow copy of every token in other.
func (ts *Tokens) Extend(other *Tokens) {
	for _, t := range other.items {
		ts.items = append(ts.items, t.Clone())
	}
}

func (ts *Tokens) Set(i int, t Token) {
	ts.items[i] = t
}

func (ts *Tokens) Insert(i int, t Token) {
	if i >= len(ts.items) {
		ts.items = append(ts.items, t)
		return
	}
	ts.items = append(ts.items, nil)
	copy(ts.items[i+1:], ts.items[i:])
	ts.items[i] = t
}

func (ts *Tokens) Delete(i int) Token {
	t := ts.items[i]
	ts.items = append(ts.items[:i], ts.items[i+1:]...)
	return t
}

// Truncate keeps the first n tokens.
func (ts *Tokens) Truncate(n int) {
	clear(ts.items[n:])
	ts.items = ts.items[:n]
}

func (ts *Tokens) Clear() {
	ts.Truncate(0)
}

// Slice returns a new sequence holding tokens [i, j).
func (ts *Tokens) Slice(i, j int) *Tokens {
	out := make([]Token, j-i)
	copy(out, ts.items[i:j])
	return &Tokens{items: out}
}

// Clone copies the sequence; tokens are copied shallowly, so group bodies
// stay shared.
func (ts *Tokens) Clone() *Tokens {
	out := &Tokens{items: make([]Token, len(ts.items))}
	for i, t := range ts.items {
		out.items[i] = t.Clone()
	}
	return out
}

// Walk visits every token depth-first, descending into group bodies.
// Returning false from fn skips the children of a group. A body that
// contains itself is visited once.
func (ts *Tokens) Walk(fn func(Token) bool) {
	ts.walk(fn, map[*Tokens]bool{})
}

func (ts *Tokens) walk(fn func(Token) bool, seen map[*Tokens]bool) {
	if seen[ts] {
		return
	}
	seen[ts] = true
	for _, t := range ts.items {
		if !fn(t) {
			continue
		}
		if g, ok := t.(*Group); ok {
			g.Body.walk(fn, seen)
		}
	}
	delete(seen, ts)
}

// FindCycle returns a group whose body contains, directly or through
// nested groups, the body itself.
func (ts *Tokens) FindCycle() *Group {
	return ts.findCycle(map[*Tokens]bool{ts: true})
}

func (ts *Tokens) findCycle(path map[*Tokens]bool) *Group {
	for _, t := range ts.items {
		g, ok := t.(*Group)
		if !ok {
			continue
		}
		if path[g.Body] {
			return g
		}
		path[g.Body] = true
		if c := g.Body.findCycle(path); c != nil {
			return c
		}
		delete(path, g.Body)
	}
	return nil
}

// Join interleaves copies of sep between items.
func Join(sep *Tokens, items []*Tokens) *Tokens {
	out := New()
	for i, item := range items {
		if i > 0 {
			out.Extend(sep)
		}
		out.items = append(out.items, item.items...)
	}
	return out
}

// String renders the sequence as host source. Leading trivia of the first
// token is dropped.
func (ts *Tokens) String() string {
	var b strings.Builder
	ts.render(&b, map[*Tokens]bool{ts: true}, None, true)
	return b.String()
}

func (ts *Tokens) GoString() string {
	parts := make([]string, len(ts.items))
	for i, t := range ts.items {
		parts[i] = fmt.Sprintf("%s(%s)", t.Kind(), t)
	}
	return "Tokens[" + strings.Join(parts, " ") + "]"
}
