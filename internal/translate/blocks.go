package translate

import (
	"errors"
	"math/big"

	"splice/grammar"
	"splice/internal/emit"
	errs "splice/internal/errors"
	"splice/internal/parser"
	"splice/internal/script"
	"splice/source"
	"splice/token"
)

func (t *Translator) block(r parser.Run, f *frame) error {
	first := r.Clauses[0]
	h, err := t.header(first)
	if err != nil {
		return err
	}
	log.Debugf("%s block at %s", h.Keyword(), first.Marker)

	switch {
	case h.If != nil:
		return t.ifChain(r, h, f)
	case h.For != nil:
		return t.forLoop(first, h.For, f)
	case h.While != nil:
		return t.whileLoop(first, h.While, f)
	case h.With != nil:
		return t.withBlock(first, h.With, f)
	case h.Def != nil:
		return t.define(first, h.Def, f)
	}
	return errs.NewScanError(errs.ErrorDanglingClause,
		"'"+h.Keyword()+"' block without a preceding 'if'", first.Marker)
}

func (t *Translator) header(c parser.Clause) (*grammar.Header, error) {
	h, err := grammar.ParseHeader(c.Header.Name, c.Header.Code)
	if err != nil {
		return nil, syntaxError(c.Header, err, errs.ErrorInvalidHeader)
	}
	return h, nil
}

// ifChain runs the body of the first clause whose condition holds.
func (t *Translator) ifChain(r parser.Run, first *grammar.Header, f *frame) error {
	for n, c := range r.Clauses {
		h := first
		if n > 0 {
			var err error
			if h, err = t.header(c); err != nil {
				return err
			}
		}
		var cond *grammar.Expr
		switch {
		case h.If != nil && n == 0:
			cond = h.If.Cond
		case h.Elif != nil && n > 0:
			cond = h.Elif.Cond
		case h.Else != nil && n > 0:
		default:
			return errs.NewScanError(errs.ErrorInvalidHeader,
				"unexpected '"+h.Keyword()+"' clause in if chain", c.Marker)
		}
		if cond != nil {
			ok, err := t.truth(c, cond, f)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		return t.body(c.Body, f)
	}
	return nil
}

func (t *Translator) truth(c parser.Clause, cond *grammar.Expr, f *frame) (bool, error) {
	code := c.Header.Sub(cond.Extent())
	origin := f.parent(t.invocation).Child(source.OriginStmt, c.Marker.Cover(c.Header.Span))
	defer t.stack.At(code.Span, origin)()
	v, err := t.interp.Eval(code, f.scope)
	if err != nil {
		return false, t.fail(c.Span, origin, err)
	}
	return t.interp.Truth(v), nil
}

func (t *Translator) forLoop(c parser.Clause, h *grammar.For, f *frame) error {
	targets := c.Header.Sub(h.Targets.Extent())
	iter := c.Header.Sub(h.Iter.Extent())
	parent := f.parent(t.invocation)
	origin := parent.Child(source.OriginStmt, c.Marker.Cover(c.Header.Span))

	restore := t.stack.At(iter.Span, origin)
	v, err := t.interp.Eval(iter, f.scope)
	if err != nil {
		restore()
		return t.fail(c.Span, origin, err)
	}
	it, err := t.interp.Iterate(v)
	restore()
	if err != nil {
		return t.fail(c.Span, origin, err)
	}
	defer it.Done()

	names := h.Targets.Names()
	for i := 0; ; i++ {
		x, ok := it.Next()
		if !ok {
			return nil
		}
		scope := f.scope.Block()
		for _, name := range names {
			scope.Declare(name, t.interp.None())
		}
		if err := t.interp.Assign(targets, x, scope); err != nil {
			return t.fail(c.Span, origin, err)
		}
		inner := f.with(scope, parent.Iteration(targets.Span, i))
		inner.loops++
		stop, err := loopControl(t.body(c.Body, inner))
		if err != nil || stop {
			return err
		}
	}
}

func (t *Translator) whileLoop(c parser.Clause, h *grammar.While, f *frame) error {
	if !t.opts.While {
		return errs.NewScanError(errs.ErrorInvalidHeader, "while loops are disabled", c.Marker)
	}
	inner := f.with(f.scope, f.origin)
	inner.loops++
	for i := 0; ; i++ {
		if i == t.opts.MaxIterations {
			return t.failWith(errs.ErrorControlFlow, c.Header.Span, c.Span, f.parent(t.invocation),
				"while loop did not finish after %d iterations", i)
		}
		ok, err := t.truth(c, h.Cond, f)
		if err != nil || !ok {
			return err
		}
		stop, err := loopControl(t.body(c.Body, inner))
		if err != nil || stop {
			return err
		}
	}
}

// loopControl consumes break and continue signals.
func loopControl(err error) (stop bool, _ error) {
	var sig *flowSignal
	if errors.As(err, &sig) {
		return sig.keyword == "break", nil
	}
	return false, err
}

func (t *Translator) withBlock(c parser.Clause, h *grammar.With, f *frame) error {
	code := c.Header.Sub(h.Value.Extent())
	origin := f.parent(t.invocation).Child(source.OriginWith, c.Marker.Cover(c.Header.Span))

	restore := t.stack.At(code.Span, origin)
	v, err := t.interp.Eval(code, f.scope)
	restore()
	if err != nil {
		return t.fail(c.Span, origin, err)
	}
	target, ok := t.interp.Target(v)
	if !ok {
		return t.failWith(errs.ErrorInvalidWithTarget, code.Span, c.Span, origin,
			"with target must be Tokens or a Group, got %s", describe(t.interp.Export(v)))
	}
	if h.Alias != "" {
		f.scope.Set(h.Alias, v)
	}
	return t.stack.With(target, func() error {
		return t.body(c.Body, f.with(f.scope, origin))
	})
}

// define binds a function whose body emits into the caller's target.
func (t *Translator) define(c parser.Clause, h *grammar.Def, f *frame) error {
	origin := f.parent(t.invocation).Child(source.OriginStmt, c.Marker.Cover(c.Header.Span))
	params := make([]script.Param, 0, len(h.Params))
	for _, p := range h.Params {
		param := script.Param{Name: p.Name, Star: p.Star}
		if p.Default != nil {
			code := c.Header.Sub(p.Default.Extent())
			restore := t.stack.At(code.Span, origin)
			v, err := t.interp.Eval(code, f.scope)
			restore()
			if err != nil {
				return t.fail(c.Span, origin, err)
			}
			param.Default = v
		}
		params = append(params, param)
	}

	scope, span := f.scope, c.Span
	fn := t.interp.Define(h.Name, params, func(args map[string]script.Value) (script.Value, error) {
		if t.calls >= t.opts.MaxCallDepth {
			return nil, t.failWith(errs.ErrorControlFlow, span, span, origin,
				"maximum call depth %d exceeded in %s", t.opts.MaxCallDepth, h.Name)
		}
		t.calls++
		defer func() { t.calls-- }()

		caller := t.stack.Origin()
		if caller == nil {
			caller = t.invocation
		}
		call := &frame{scope: scope.Function(args), origin: caller.Child(source.OriginCall, span), fn: true}
		err := t.body(c.Body, call)
		var ret *returnSignal
		if errors.As(err, &ret) {
			return ret.value, nil
		}
		if err != nil {
			return nil, err
		}
		return t.interp.None(), nil
	})
	f.scope.Set(h.Name, fn)
	log.Debugf("defined %s with %d parameters", h.Name, len(params))
	return nil
}

func describe(v any) string {
	switch v := v.(type) {
	case nil:
		return "None"
	case bool:
		return "bool"
	case string:
		return "str"
	case *big.Int:
		return "int"
	case float64:
		return "float"
	case []byte:
		return "bytes"
	case emit.Tuple:
		return "tuple"
	case emit.List:
		return "list"
	case token.Token:
		return v.Kind().String()
	case emit.Opaque:
		return v.Type
	}
	return "value"
}
