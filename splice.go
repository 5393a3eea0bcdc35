// Package splice expands host-language macro invocations whose bodies mix
// host tokens with $-escaped scripting code.
package splice

import (
	"context"
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"splice/internal/config"
	"splice/internal/emit"
	errs "splice/internal/errors"
	"splice/internal/interp"
	"splice/internal/parser"
	"splice/internal/translate"
	"splice/source"
	"splice/token"
)

var log = commonlog.GetLogger("splice")

// Diagnostic is the error returned by a failed expansion.
type Diagnostic = errs.CompilerError

// Session owns the interpreter runtime shared by the expansions of one
// compilation. Expansions may run from several goroutines; translation is
// serialised.
type Session struct {
	cfg config.Config

	once sync.Once
	rt   *interp.Runtime

	// mu guards the runtime and closed.
	mu     sync.Mutex
	closed bool
}

func NewSession(cfg config.Config) *Session {
	return &Session{cfg: cfg}
}

func (s *Session) Config() config.Config {
	return s.cfg
}

func (s *Session) runtime() *interp.Runtime {
	s.once.Do(func() {
		log.Debugf("starting interpreter runtime")
		s.rt = interp.New(s.cfg.Interp())
	})
	return s.rt
}

// Close tears down the runtime. Later expansions fail.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.rt != nil {
		return s.rt.Close()
	}
	return nil
}

// Invocation is the body of one macro call.
type Invocation struct {
	// Span locates Raw in its file. A zero span, or one whose text is not
	// Raw, puts Raw in a virtual file.
	Span source.Span
	Raw  string
}

type Result struct {
	Tokens *token.Tokens
	// Err is a *Diagnostic when set.
	Err error
}

// Expand translates one invocation body into tokens. On failure the
// tokens are nil and the error is a *Diagnostic.
func (s *Session) Expand(invocation source.Span, raw string) (*token.Tokens, error) {
	inv := Invocation{Span: invocation, Raw: raw}
	runs, span, err := scan(inv)
	if err != nil {
		return nil, diagnose(err, span)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.translate(runs, span)
}

// ExpandAll expands sibling invocations. Scanning runs in parallel; one
// failing invocation does not affect the others.
func (s *Session) ExpandAll(ctx context.Context, invocations []Invocation) []Result {
	results := make([]Result, len(invocations))
	if len(invocations) == 0 {
		return results
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(s.cfg.MaxParallel, len(invocations)))

	for i, inv := range invocations {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i].Err = diagnose(gctx.Err(), inv.Span)
				return nil
			default:
			}
			runs, span, err := scan(inv)
			if err != nil {
				results[i].Err = diagnose(err, span)
				return nil
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			results[i].Tokens, results[i].Err = s.translate(runs, span)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// scan splits an invocation body into runs and returns the span the body
// occupies.
func scan(inv Invocation) ([]parser.Run, source.Span, error) {
	span := inv.Span
	if span.File == nil || span.Text() != inv.Raw {
		file := source.NewFile("<splice>", inv.Raw)
		span = file.Span(0, len(inv.Raw))
	}
	runs, err := parser.ParseRuns(span.File, int(span.Start), int(span.End))
	return runs, span, err
}

// translate must be called with s.mu held.
func (s *Session) translate(runs []parser.Run, span source.Span) (*token.Tokens, error) {
	if s.closed {
		return nil, &Diagnostic{Level: errs.Error, Code: errs.ErrorInternal, Message: "session is closed", Span: span}
	}
	stack := emit.NewStack(token.New())
	in := s.runtime().Begin(stack)
	tr := translate.New(in, stack, source.NewInvocation(span), s.cfg.Translate())
	ts, err := tr.Translate(runs)
	if err != nil {
		return nil, diagnose(err, span)
	}
	log.Debugf("expanded %s into %d tokens", span, ts.Len())
	return ts, nil
}

func diagnose(err error, fallback source.Span) *Diagnostic {
	d := errs.Diagnose(err, fallback)
	return &d
}
