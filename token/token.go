// Package token is the host token model: identifiers, literals, punctuation
// and delimited groups, each carrying a span and, when generated by script
// code, an origin chain.
package token

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"splice/source"
)

type Kind uint8

const (
	KindIdent Kind = iota
	KindLiteral
	KindPunct
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindIdent:
		return "Ident"
	case KindLiteral:
		return "Literal"
	case KindPunct:
		return "Punct"
	case KindGroup:
		return "Group"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Token is the closed set {*Ident, *Literal, *Punct, *Group}.
type Token interface {
	Kind() Kind
	Span() source.Span
	SetSpan(source.Span)
	Origin() *source.Origin
	SetOrigin(*source.Origin)
	// Lead is the trivia (whitespace, comments) printed before the token.
	// ok is false for tokens that never came from source text.
	Lead() (lead string, ok bool)
	SetLead(string)
	// ClearLead drops the token's trivia so the printer chooses spacing.
	ClearLead()
	String() string
	Clone() Token
	token()
}

type base struct {
	span    source.Span
	origin  *source.Origin
	lead    string
	hasLead bool
}

func (b *base) Span() source.Span          { return b.span }
func (b *base) SetSpan(s source.Span)      { b.span = s }
func (b *base) Origin() *source.Origin     { return b.origin }
func (b *base) SetOrigin(o *source.Origin) { b.origin = o }
func (b *base) Lead() (string, bool)       { return b.lead, b.hasLead }
func (b *base) token()                     {}

func (b *base) SetLead(lead string) {
	b.lead = lead
	b.hasLead = true
}

func (b *base) ClearLead() {
	b.lead = ""
	b.hasLead = false
}

// Ident is an identifier or keyword. Raw idents print with an r# prefix.
type Ident struct {
	base
	Name string
	Raw  bool
}

// NewIdent validates and NFC-normalises name. A leading "r#" marks a raw
// identifier.
func NewIdent(name string) (*Ident, error) {
	raw := false
	if rest, ok := strings.CutPrefix(name, "r#"); ok {
		raw = true
		name = rest
	}
	name = norm.NFC.String(name)
	if !IsIdent(name) {
		return nil, fmt.Errorf("%q is not a valid identifier", name)
	}
	return &Ident{Name: name, Raw: raw}, nil
}

func (i *Ident) Kind() Kind { return KindIdent }

func (i *Ident) String() string {
	if i.Raw {
		return "r#" + i.Name
	}
	return i.Name
}

func (i *Ident) Clone() Token {
	c := *i
	return &c
}

// IsIdent reports whether s is a single host identifier.
func IsIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !IsIdentStart(r) {
			return false
		}
		if !IsIdentContinue(r) {
			return false
		}
	}
	return true
}

func IsIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func IsIdentContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

type Spacing uint8

const (
	Alone Spacing = iota
	Joint
)

func (s Spacing) String() string {
	if s == Joint {
		return "joint"
	}
	return "alone"
}

// PunctChars are the characters a Punct may be made of.
const PunctChars = "=<>!~+-*/%^&|@.,;:#$?'"

// Punct is an operator or separator. Op usually holds one character; Joint
// means the next token is glued to it (as in "::" or "+=").
type Punct struct {
	base
	Op      string
	Spacing Spacing
}

func NewPunct(op string, spacing Spacing) (*Punct, error) {
	if op == "" {
		return nil, fmt.Errorf("empty punctuation")
	}
	for _, r := range op {
		if !strings.ContainsRune(PunctChars, r) {
			return nil, fmt.Errorf("invalid punctuation character %q", r)
		}
	}
	return &Punct{Op: op, Spacing: spacing}, nil
}

func (p *Punct) Kind() Kind       { return KindPunct }
func (p *Punct) String() string   { return p.Op }
func (p *Punct) Clone() Token     { c := *p; return &c }
func (p *Punct) Is(op string) bool { return p.Op == op }

type Delimiter uint8

const (
	Parenthesis Delimiter = iota
	Brace
	Bracket
	None
)

func (d Delimiter) Open() string {
	switch d {
	case Parenthesis:
		return "("
	case Brace:
		return "{"
	case Bracket:
		return "["
	}
	return ""
}

func (d Delimiter) Close() string {
	switch d {
	case Parenthesis:
		return ")"
	case Brace:
		return "}"
	case Bracket:
		return "]"
	}
	return ""
}

func (d Delimiter) String() string {
	return d.Open() + d.Close()
}

// ParseDelimiter accepts "()", "{}", "[]" and "" as well as a single
// opening or closing character.
func ParseDelimiter(s string) (Delimiter, error) {
	switch s {
	case "()", "(", ")":
		return Parenthesis, nil
	case "{}", "{", "}":
		return Brace, nil
	case "[]", "[", "]":
		return Bracket, nil
	case "":
		return None, nil
	}
	return None, fmt.Errorf("invalid group delimiter %q", s)
}

// Group is a delimited token sequence. Body is shared by every copy of the
// group, so filling it in later shows up wherever the group was emitted.
type Group struct {
	base
	Delim Delimiter
	Body  *Tokens
	// CloseSpan locates the closing delimiter of groups read from source.
	CloseSpan source.Span
	closeLead string
	hasClose  bool
}

func NewGroup(delim Delimiter, body *Tokens) *Group {
	if body == nil {
		body = New()
	}
	return &Group{Delim: delim, Body: body}
}

func (g *Group) Kind() Kind { return KindGroup }

func (g *Group) CloseLead() (string, bool) { return g.closeLead, g.hasClose }

func (g *Group) SetCloseLead(lead string) {
	g.closeLead = lead
	g.hasClose = true
}

func (g *Group) String() string {
	var b strings.Builder
	g.render(&b, map[*Tokens]bool{})
	return b.String()
}

func (g *Group) Clone() Token {
	c := *g
	return &c
}
