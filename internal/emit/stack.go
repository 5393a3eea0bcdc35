// Package emit holds the emission target: a stack of token sequences where
// generated and copied host tokens land.
package emit

import (
	"fmt"

	errs "splice/internal/errors"
	"splice/source"
	"splice/token"
)

type frame struct {
	target *token.Tokens
	// group is set for frames opened by a host delimiter.
	group *token.Group
}

// Stack is the context stack of one expansion. It is not safe for
// concurrent use.
type Stack struct {
	frames []frame
	span   source.Span
	origin *source.Origin

	joining  bool
	joinSpan source.Span
}

func NewStack(root *token.Tokens) *Stack {
	return &Stack{frames: []frame{{target: root}}}
}

func (s *Stack) Root() *token.Tokens {
	return s.frames[0].target
}

// Top is the current emission target.
func (s *Stack) Top() *token.Tokens {
	return s.frames[len(s.frames)-1].target
}

func (s *Stack) Depth() int {
	return len(s.frames)
}

func (s *Stack) Push(target *token.Tokens) {
	s.frames = append(s.frames, frame{target: target})
}

// Pop removes the top frame. The root frame is never popped.
func (s *Stack) Pop() (*token.Tokens, error) {
	if len(s.frames) == 1 {
		return nil, fmt.Errorf("pop of the root emission target")
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top.target, nil
}

// Restore drops every frame above depth.
func (s *Stack) Restore(depth int) {
	if depth < 1 {
		depth = 1
	}
	if depth < len(s.frames) {
		clear(s.frames[depth:])
		s.frames = s.frames[:depth]
	}
}

// With runs fn with target on top of the stack. The stack is back at its
// previous depth when With returns, whatever fn did.
func (s *Stack) With(target *token.Tokens, fn func() error) error {
	depth := len(s.frames)
	s.Push(target)
	defer s.Restore(depth)
	return fn()
}

// At sets the span and origin given to tokens made from script values and
// returns a func that puts the previous ones back.
func (s *Stack) At(span source.Span, origin *source.Origin) func() {
	prevSpan, prevOrigin := s.span, s.origin
	s.span, s.origin = span, origin
	return func() {
		s.span, s.origin = prevSpan, prevOrigin
	}
}

func (s *Stack) Span() source.Span      { return s.span }
func (s *Stack) Origin() *source.Origin { return s.origin }

// Open appends g and makes its body the emission target until the matching
// Close.
func (s *Stack) Open(g *token.Group) error {
	if err := s.Emit(g); err != nil {
		return err
	}
	s.frames = append(s.frames, frame{target: g.Body, group: g})
	return nil
}

// Close ends the group opened by the innermost Open.
func (s *Stack) Close(delim token.Delimiter, span source.Span, lead string) error {
	top := s.frames[len(s.frames)-1]
	if top.group == nil || top.group.Delim != delim {
		return errs.NewScanError(errs.ErrorUnbalancedDelimiter,
			fmt.Sprintf("unexpected closing delimiter %q", delim.Close()), span)
	}
	g := top.group
	g.SetSpan(g.Span().Cover(span))
	g.CloseSpan = span
	g.SetCloseLead(lead)
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Concat marks the next emitted token to be merged into the last one.
func (s *Stack) Concat(span source.Span) {
	s.joining = true
	s.joinSpan = span
}

// Joining reports whether a concat is waiting for its right operand.
func (s *Stack) Joining() (source.Span, bool) {
	return s.joinSpan, s.joining
}

// Emit appends tokens to the current target, merging the first into the
// previous token when a concat is pending.
func (s *Stack) Emit(ts ...token.Token) error {
	if len(ts) == 0 {
		return nil
	}
	if s.joining {
		s.joining = false
		top := s.Top()
		left := top.Last()
		if left == nil {
			return errs.NewTokenizationError(errs.ErrorInvalidConcat,
				"nothing to the left of '~' to concatenate", "").At(s.joinSpan, s.origin)
		}
		merged, err := Merge(left, ts[0])
		if err != nil {
			return err.At(s.joinSpan, s.origin)
		}
		top.Set(top.Len()-1, merged)
		ts = ts[1:]
	}
	s.Top().Append(ts...)
	return nil
}

// EmitValues coerces script values at the current span and appends them.
// It returns the tokens that were produced.
func (s *Stack) EmitValues(values ...any) (*token.Tokens, error) {
	ts, err := Coerce(values, s.span, s.origin)
	if err != nil {
		return nil, err
	}
	return ts, s.Emit(ts.Items()...)
}
