package emit

import (
	"fmt"
	"math/big"

	errs "splice/internal/errors"
	"splice/internal/parser"
	"splice/source"
	"splice/token"
)

// Tuple and List are script sequences handed to Coerce. A tuple becomes a
// parenthesized group and a list a bracketed one.
type (
	Tuple []any
	List  []any
)

// Opaque stands for a script value with no token form. Coerce rejects it
// with a TokenizationError naming Repr.
type Opaque struct {
	Type string
	Repr string
}

// Coerce converts script values to tokens:
//
//	nil          nothing
//	bool         true / false
//	string       parsed as host code
//	*big.Int     integer literal
//	float64      float literal
//	[]byte       byte string literal
//	Tuple, List  group of the coerced elements
//	token.Token  a copy of the token
//	*token.Tokens copies of its tokens
//
// Strings may leave a delimiter open for a later string to close, so
// Coerce("f(", x, ")") builds one group. Every new token gets span and
// origin.
func Coerce(values []any, span source.Span, origin *source.Origin) (*token.Tokens, error) {
	c := &coercer{span: span, origin: origin, root: token.New()}
	for _, v := range values {
		if err := c.add(v); err != nil {
			return nil, err.At(span, origin)
		}
	}
	if len(c.open) > 0 {
		g := c.open[len(c.open)-1]
		return nil, errs.NewTokenizationError(errs.ErrorTokenization,
			"unclosed delimiter in coerced text", fmt.Sprintf("%q", g.Delim.Open())).At(span, origin)
	}
	return c.root, nil
}

type coercer struct {
	span   source.Span
	origin *source.Origin
	root   *token.Tokens
	open   []*token.Group
}

func (c *coercer) target() *token.Tokens {
	if len(c.open) == 0 {
		return c.root
	}
	return c.open[len(c.open)-1].Body
}

func (c *coercer) emit(t token.Token) {
	t.SetSpan(c.span)
	t.SetOrigin(c.origin)
	c.target().Append(t)
}

func (c *coercer) add(v any) *errs.TokenizationError {
	switch v := v.(type) {
	case nil:
	case bool:
		name := "false"
		if v {
			name = "true"
		}
		c.emit(&token.Ident{Name: name})
	case string:
		return c.parse(v)
	case *big.Int:
		lit, err := token.NewInt(v, "")
		if err != nil {
			return errs.NewTokenizationError(errs.ErrorInvalidLiteral, err.Error(), v.String())
		}
		c.emit(lit)
	case int:
		return c.add(big.NewInt(int64(v)))
	case float64:
		lit, err := token.NewFloat(v, "")
		if err != nil {
			return errs.NewTokenizationError(errs.ErrorInvalidLiteral, err.Error(), fmt.Sprint(v))
		}
		c.emit(lit)
	case []byte:
		c.emit(token.NewByteString(v))
	case Tuple:
		return c.group(token.Parenthesis, v)
	case List:
		return c.group(token.Bracket, v)
	case token.Token:
		t := v.Clone()
		t.ClearLead()
		if t.Origin() == nil {
			t.SetOrigin(c.origin)
		}
		if t.Span().IsZero() {
			t.SetSpan(c.span)
		}
		c.target().Append(t)
	case *token.Tokens:
		for i, t := range v.Items() {
			t = t.Clone()
			if i == 0 {
				t.ClearLead()
			}
			if t.Origin() == nil {
				t.SetOrigin(c.origin)
			}
			if t.Span().IsZero() {
				t.SetSpan(c.span)
			}
			c.target().Append(t)
		}
	case Opaque:
		return errs.NewTokenizationError(errs.ErrorTokenization,
			fmt.Sprintf("value of type %s cannot be converted to tokens", v.Type), v.Repr)
	default:
		return errs.NewTokenizationError(errs.ErrorTokenization,
			fmt.Sprintf("value of type %T cannot be converted to tokens", v), fmt.Sprint(v))
	}
	return nil
}

func (c *coercer) group(delim token.Delimiter, items []any) *errs.TokenizationError {
	inner := &coercer{span: c.span, origin: c.origin, root: token.New()}
	for _, item := range items {
		if err := inner.add(item); err != nil {
			return err
		}
	}
	if len(inner.open) > 0 {
		return errs.NewTokenizationError(errs.ErrorTokenization,
			"unclosed delimiter in coerced text", fmt.Sprintf("%q", inner.open[len(inner.open)-1].Delim.Open()))
	}
	c.emit(token.NewGroup(delim, inner.root))
	return nil
}

// parse lexes text as host code into the current target. Source trivia
// between the tokens is kept; the first token takes its spacing from the
// printer.
func (c *coercer) parse(text string) *errs.TokenizationError {
	file := source.NewFile("<coerced>", text)
	sc := parser.NewScanner(file, 0, len(text))
	first := true
	for {
		lx, err := sc.Next()
		if err != nil {
			return errs.NewTokenizationError(errs.ErrorTokenization,
				"string is not valid host code", fmt.Sprintf("%q (%v)", text, err))
		}
		lead := func(t token.Token) {
			if first {
				t.ClearLead()
			} else {
				t.SetLead(lx.Lead)
			}
			first = false
		}
		switch lx.Kind {
		case parser.LexEOF:
			return nil
		case parser.LexOpen:
			g := token.NewGroup(lx.Delim, nil)
			lead(g)
			c.emit(g)
			c.open = append(c.open, g)
		case parser.LexClose:
			if len(c.open) == 0 || c.open[len(c.open)-1].Delim != lx.Delim {
				return errs.NewTokenizationError(errs.ErrorTokenization,
					fmt.Sprintf("unbalanced %q in coerced text", lx.Text), fmt.Sprintf("%q", text))
			}
			c.open[len(c.open)-1].SetCloseLead(lx.Lead)
			c.open = c.open[:len(c.open)-1]
			first = false
		default:
			t, err := lx.Token()
			if err != nil {
				return errs.NewTokenizationError(errs.ErrorTokenization, err.Error(), fmt.Sprintf("%q", text))
			}
			lead(t)
			c.emit(t)
		}
	}
}
