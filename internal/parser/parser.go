package parser

import (
	"fmt"

	errs "splice/internal/errors"
	"splice/source"
	"splice/token"
)

// Parse lexes file[start:end] into a token tree. Every '$' is an ordinary
// punct here; scripting regions are the job of ParseRuns.
func Parse(file *source.File, start, end int) (*token.Tokens, error) {
	b := NewTreeBuilder(file)
	sc := NewScanner(file, start, end)
	for {
		lx, err := sc.Next()
		if err != nil {
			return nil, err
		}
		if lx.Kind == LexEOF {
			return b.Finish()
		}
		if err := b.Add(lx); err != nil {
			return nil, err
		}
	}
}

// ParseString parses text as host code. Tokens get spans inside a virtual
// file of that name.
func ParseString(name, text string) (*token.Tokens, error) {
	file := source.NewFile(name, text)
	return Parse(file, 0, len(text))
}

// TreeBuilder folds a lexeme stream into nested groups.
type TreeBuilder struct {
	file  *source.File
	root  *token.Tokens
	stack []*token.Group
}

func NewTreeBuilder(file *source.File) *TreeBuilder {
	return &TreeBuilder{file: file, root: token.New()}
}

func (b *TreeBuilder) target() *token.Tokens {
	if len(b.stack) == 0 {
		return b.root
	}
	return b.stack[len(b.stack)-1].Body
}

func (b *TreeBuilder) Add(lx Lexeme) error {
	switch lx.Kind {
	case LexOpen:
		g := token.NewGroup(lx.Delim, nil)
		g.SetSpan(lx.Span)
		g.SetLead(lx.Lead)
		b.target().Append(g)
		b.stack = append(b.stack, g)
	case LexClose:
		if len(b.stack) == 0 {
			return errs.NewScanError(errs.ErrorUnbalancedDelimiter,
				fmt.Sprintf("unexpected closing delimiter %q", lx.Text), lx.Span)
		}
		g := b.stack[len(b.stack)-1]
		if g.Delim != lx.Delim {
			return errs.NewScanError(errs.ErrorUnbalancedDelimiter,
				fmt.Sprintf("mismatched closing delimiter %q for %q", lx.Text, g.Delim.Open()), lx.Span)
		}
		g.SetSpan(g.Span().Cover(lx.Span))
		g.CloseSpan = lx.Span
		g.SetCloseLead(lx.Lead)
		b.stack = b.stack[:len(b.stack)-1]
	default:
		t, err := lx.Token()
		if err != nil {
			return errs.NewScanError(errs.ErrorMalformedToken, err.Error(), lx.Span)
		}
		b.target().Append(t)
	}
	return nil
}

// Splice appends already built tokens at the current position. The first
// one takes lead as its trivia.
func (b *TreeBuilder) Splice(ts *token.Tokens, lead string) {
	for i, t := range ts.Items() {
		if i == 0 {
			t.SetLead(lead)
		}
		b.target().Append(t)
	}
}

func (b *TreeBuilder) Finish() (*token.Tokens, error) {
	if len(b.stack) > 0 {
		g := b.stack[len(b.stack)-1]
		return nil, errs.NewScanError(errs.ErrorUnbalancedDelimiter,
			fmt.Sprintf("unclosed delimiter %q", g.Delim.Open()), g.Span())
	}
	return b.root, nil
}
