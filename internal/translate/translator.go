// Package translate runs the scripting runs of one invocation against an
// interpreter and an emission stack, producing the expanded token tree.
package translate

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"splice/grammar"
	"splice/internal/emit"
	errs "splice/internal/errors"
	"splice/internal/parser"
	"splice/internal/script"
	"splice/source"
	"splice/token"
)

var log = commonlog.GetLogger("splice.translate")

const (
	DefaultMaxIterations = 100_000
	DefaultMaxCallDepth  = 256
)

type Options struct {
	// While enables $while blocks.
	While bool
	// MaxIterations bounds a single while loop; 0 picks the default.
	MaxIterations int
	// MaxCallDepth bounds nested calls of functions defined with $def.
	MaxCallDepth int
}

// Translator expands one invocation. It is not safe for concurrent use.
type Translator struct {
	opts       Options
	interp     script.Interpreter
	stack      *emit.Stack
	invocation *source.Origin
	calls      int
}

func New(in script.Interpreter, stack *emit.Stack, invocation *source.Origin, opts Options) *Translator {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = DefaultMaxCallDepth
	}
	return &Translator{
		opts:       opts,
		interp:     in,
		stack:      stack,
		invocation: invocation,
	}
}

// frame is the translation state of one block body.
type frame struct {
	scope *script.Scope
	// origin is given to host tokens; nil at the top level.
	origin *source.Origin
	loops  int
	fn     bool
}

func (f *frame) parent(invocation *source.Origin) *source.Origin {
	if f.origin != nil {
		return f.origin
	}
	return invocation
}

func (f *frame) with(scope *script.Scope, origin *source.Origin) *frame {
	return &frame{scope: scope, origin: origin, loops: f.loops, fn: f.fn}
}

// Translate runs every run and returns the root of the emitted tree. On
// failure the tree is discarded.
func (t *Translator) Translate(runs []parser.Run) (*token.Tokens, error) {
	f := &frame{scope: script.NewScope()}
	if err := t.runs(runs, f); err != nil {
		log.Debugf("translation failed: %v", err)
		return nil, err
	}
	root := t.stack.Root()
	if g := root.FindCycle(); g != nil {
		return nil, errs.NewTokenizationError(errs.ErrorCyclicGroup,
			"group contains itself", g.Delim.Open()+"..."+g.Delim.Close()).At(g.Span(), g.Origin())
	}
	return root, nil
}

func (t *Translator) runs(runs []parser.Run, f *frame) error {
	for _, r := range runs {
		_, joining := t.stack.Joining()
		if err := t.run(r, f); err != nil {
			return err
		}
		if span, still := t.stack.Joining(); joining && still {
			return errs.NewTokenizationError(errs.ErrorInvalidConcat,
				"nothing to the right of '~' to concatenate", "").At(span, f.parent(t.invocation))
		}
	}
	return nil
}

// body runs a block body. Host groups left open by a failing run are
// dropped from the stack.
func (t *Translator) body(runs []parser.Run, f *frame) error {
	depth := t.stack.Depth()
	defer t.stack.Restore(depth)
	return t.runs(runs, f)
}

func (t *Translator) run(r parser.Run, f *frame) error {
	switch r.Kind {
	case parser.RunHost:
		return t.host(r, f)
	case parser.RunExpr:
		return t.expr(r, f)
	case parser.RunStmt:
		return t.stmt(r, f)
	case parser.RunBlock:
		return t.block(r, f)
	case parser.RunConcat:
		t.stack.Concat(r.Span)
		return nil
	case parser.RunEscape:
		return t.escape(r, f)
	}
	return fmt.Errorf("unknown run kind %v", r.Kind)
}

func (t *Translator) host(r parser.Run, f *frame) error {
	for _, lx := range r.Lexemes {
		switch lx.Kind {
		case parser.LexOpen:
			g := token.NewGroup(lx.Delim, token.New())
			g.SetSpan(lx.Span)
			g.SetLead(lx.Lead)
			g.SetOrigin(f.origin)
			if err := t.stack.Open(g); err != nil {
				return err
			}
		case parser.LexClose:
			if err := t.stack.Close(lx.Delim, lx.Span, lx.Lead); err != nil {
				return err
			}
		default:
			tok, err := lx.Token()
			if err != nil {
				return errs.NewScanError(errs.ErrorMalformedToken, err.Error(), lx.Span)
			}
			tok.SetOrigin(f.origin)
			if err := t.stack.Emit(tok); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Translator) escape(r parser.Run, f *frame) error {
	for n := 0; n < r.Depth; n++ {
		spacing := token.Joint
		if n == r.Depth-1 {
			spacing = token.Alone
		}
		p := &token.Punct{Op: "$", Spacing: spacing}
		p.SetSpan(r.Span)
		p.SetOrigin(f.origin)
		if n == 0 && r.Lead != "" {
			p.SetLead(r.Lead)
		}
		if err := t.stack.Emit(p); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) expr(r parser.Run, f *frame) error {
	origin := f.parent(t.invocation).Child(source.OriginExpr, r.Span)
	defer t.stack.At(r.Code.Span, origin)()

	v, err := t.interp.Eval(r.Code, f.scope)
	if err != nil {
		return t.fail(r.Span, origin, err)
	}
	ts, err := t.stack.EmitValues(t.interp.Export(v))
	if err != nil {
		return t.fail(r.Span, origin, err)
	}
	if ts.Len() > 0 && r.Lead != "" {
		ts.At(0).SetLead(r.Lead)
	}
	return nil
}

func (t *Translator) stmt(r parser.Run, f *frame) error {
	origin := f.parent(t.invocation).Child(source.OriginStmt, r.Span)
	defer t.stack.At(r.Code.Span, origin)()

	d, ok, err := grammar.ParseDirective(r.Code.Name, r.Code.Code)
	if err != nil {
		return syntaxError(r.Code, err, errs.ErrorScriptSyntax)
	}
	if ok {
		return t.directive(d, r, f, origin)
	}
	if err := t.interp.Exec(r.Code, f.scope); err != nil {
		return t.fail(r.Span, origin, err)
	}
	return nil
}

// fail attaches the run to an error raised while it executed. Errors of
// nested runs already carry their own run and pass through.
func (t *Translator) fail(run source.Span, origin *source.Origin, err error) error {
	var (
		exec *errs.ScriptExecutionError
		scan *errs.ScanError
	)
	if errors.As(err, &exec) || errors.As(err, &scan) {
		return err
	}
	span := run
	var ie *errs.InterpreterError
	if errors.As(err, &ie) {
		for _, fr := range ie.Frames {
			if !fr.Span.IsZero() {
				span = fr.Span
				break
			}
		}
	}
	return &errs.ScriptExecutionError{
		Code:   errs.ErrorScriptExecution,
		Span:   span,
		Run:    run,
		Origin: origin,
		Cause:  err,
	}
}

// failWith reports a translator-detected error in a run.
func (t *Translator) failWith(code string, span, run source.Span, origin *source.Origin, format string, args ...any) error {
	return &errs.ScriptExecutionError{
		Code:   code,
		Span:   span,
		Run:    run,
		Origin: origin,
		Cause:  fmt.Errorf(format, args...),
	}
}

// syntaxError locates a grammar error inside a chunk.
func syntaxError(code *source.Chunk, err error, kind string) error {
	span := code.Span
	if off := grammar.ErrorOffset(err); off >= 0 && off <= len(code.Code) && code.Span.File != nil {
		start := code.FileOffset(off)
		end := start
		if off < len(code.Code) {
			end = code.FileOffset(off + 1)
		}
		span = source.Span{File: code.Span.File, Start: start, End: end}
	}
	return errs.NewScanError(kind, grammar.ErrorMessage(err), span)
}
