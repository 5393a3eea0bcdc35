package translate

import (
	"fmt"

	"splice/grammar"
	errs "splice/internal/errors"
	"splice/internal/parser"
	"splice/source"
)

// flowSignal unwinds to the innermost loop.
type flowSignal struct {
	keyword string
}

func (s *flowSignal) Error() string {
	return fmt.Sprintf("'%s' outside loop", s.keyword)
}

// returnSignal unwinds to the innermost defined function.
type returnSignal struct {
	value any
}

func (s *returnSignal) Error() string {
	return "'return' outside function"
}

func (t *Translator) directive(d *grammar.Directive, r parser.Run, f *frame, origin *source.Origin) error {
	switch {
	case d.Import != nil:
		for _, spec := range d.Import.Modules {
			if len(spec.Path) > 1 && spec.Alias == "" {
				return t.failWith(errs.ErrorImport, r.Code.Span, r.Span, origin,
					"import of dotted module %q needs an 'as' name", spec.Module())
			}
			mod, err := t.interp.Import(spec.Module())
			if err != nil {
				return t.importFailed(r, origin, err)
			}
			log.Debugf("imported %s as %s", spec.Module(), spec.Binding())
			f.scope.Set(spec.Binding(), mod)
		}
		return nil

	case d.From != nil:
		mod, err := t.interp.Import(d.From.Module())
		if err != nil {
			return t.importFailed(r, origin, err)
		}
		for _, name := range d.From.Names {
			v, err := t.interp.Attr(mod, name.Name)
			if err != nil {
				return t.importFailed(r, origin, err)
			}
			f.scope.Set(name.Binding(), v)
		}
		return nil

	case d.Break, d.Continue:
		kw := "break"
		if d.Continue {
			kw = "continue"
		}
		if f.loops == 0 {
			return t.failWith(errs.ErrorControlFlow, r.Span, r.Span, origin, "'%s' outside loop", kw)
		}
		return &flowSignal{keyword: kw}

	case d.Pass:
		return nil

	case d.Return != nil:
		if !f.fn {
			return t.failWith(errs.ErrorControlFlow, r.Span, r.Span, origin, "'return' outside function")
		}
		if d.Return.Value == nil {
			return &returnSignal{value: t.interp.None()}
		}
		code := r.Code.Sub(d.Return.Value.Extent())
		v, err := t.interp.Eval(code, f.scope)
		if err != nil {
			return t.fail(r.Span, origin, err)
		}
		return &returnSignal{value: v}
	}
	return nil
}

func (t *Translator) importFailed(r parser.Run, origin *source.Origin, err error) error {
	e := t.fail(r.Span, origin, err)
	if exec, ok := e.(*errs.ScriptExecutionError); ok && exec.Run == r.Span {
		exec.Code = errs.ErrorImport
	}
	return e
}
