package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	errs "splice/internal/errors"
	"splice/source"
	"splice/token"
)

type LexemeKind uint8

const (
	LexIdent LexemeKind = iota
	LexLiteral
	LexPunct
	LexOpen
	LexClose
	LexEOF
)

// Lexeme is one host token as it appears in the source, including the
// trivia before it.
type Lexeme struct {
	Kind    LexemeKind
	Text    string
	Span    source.Span
	Lead    string
	Lit     token.LitKind
	Suffix  string
	Spacing token.Spacing
	Delim   token.Delimiter
}

// Token converts an ident, literal or punct lexeme into a token carrying
// its span and trivia.
func (l Lexeme) Token() (token.Token, error) {
	var t token.Token
	switch l.Kind {
	case LexIdent:
		id, err := token.NewIdent(l.Text)
		if err != nil {
			return nil, err
		}
		t = id
	case LexLiteral:
		t = token.NewLiteralRepr(l.Lit, l.Text, l.Suffix)
	case LexPunct:
		t = &token.Punct{Op: l.Text, Spacing: l.Spacing}
	default:
		return nil, fmt.Errorf("lexeme %q is not a leaf token", l.Text)
	}
	t.SetSpan(l.Span)
	t.SetLead(l.Lead)
	return t, nil
}

func (l Lexeme) IsPunct(op string) bool {
	return l.Kind == LexPunct && l.Text == op
}

// Scanner lexes host code between two offsets of a file. It can be
// repositioned with Seek, which the mixed-source scanner uses to hop over
// scripting regions.
type Scanner struct {
	file    *source.File
	source  string
	start   int
	current int
	end     int
}

func NewScanner(file *source.File, start, end int) *Scanner {
	return &Scanner{
		file:    file,
		source:  file.Content,
		start:   start,
		current: start,
		end:     end,
	}
}

func (s *Scanner) Offset() int {
	return s.current
}

func (s *Scanner) Seek(offset int) {
	s.current = offset
	s.start = offset
}

func (s *Scanner) File() *source.File {
	return s.file
}

// Next returns the next lexeme, or a LexEOF lexeme at the end of the range.
func (s *Scanner) Next() (Lexeme, error) {
	leadStart := s.current
	if err := s.skipTrivia(); err != nil {
		return Lexeme{}, err
	}
	lead := s.source[leadStart:s.current]
	s.start = s.current
	if s.isAtEnd() {
		return Lexeme{Kind: LexEOF, Lead: lead, Span: s.span()}, nil
	}
	lx, err := s.scanToken()
	if err != nil {
		return Lexeme{}, err
	}
	lx.Lead = lead
	lx.Text = s.source[s.start:s.current]
	lx.Span = s.span()
	return lx, nil
}

func (s *Scanner) scanToken() (Lexeme, error) {
	c := s.advance()
	switch c {
	case '(':
		return Lexeme{Kind: LexOpen, Delim: token.Parenthesis}, nil
	case '[':
		return Lexeme{Kind: LexOpen, Delim: token.Bracket}, nil
	case '{':
		return Lexeme{Kind: LexOpen, Delim: token.Brace}, nil
	case ')':
		return Lexeme{Kind: LexClose, Delim: token.Parenthesis}, nil
	case ']':
		return Lexeme{Kind: LexClose, Delim: token.Bracket}, nil
	case '}':
		return Lexeme{Kind: LexClose, Delim: token.Brace}, nil
	case '"':
		return s.scanQuoted('"', token.LitStr)
	case '\'':
		return s.scanCharOrLifetime()
	case 'b':
		switch {
		case s.peek() == '\'':
			s.advance()
			return s.scanQuoted('\'', token.LitByte)
		case s.peek() == '"':
			s.advance()
			return s.scanQuoted('"', token.LitByteStr)
		case s.peek() == 'r' && s.rawStringAhead(s.current+1):
			s.advance()
			return s.scanRaw(token.LitRawByteStr)
		}
	case 'c':
		switch {
		case s.peek() == '"':
			s.advance()
			return s.scanQuoted('"', token.LitCStr)
		case s.peek() == 'r' && s.rawStringAhead(s.current+1):
			s.advance()
			return s.scanRaw(token.LitRawCStr)
		}
	case 'r':
		if s.rawStringAhead(s.current) {
			return s.scanRaw(token.LitRawStr)
		}
		if s.peek() == '#' && isIdentStartAt(s.source, s.current+1) {
			s.advance()
			s.scanIdentifier()
			return Lexeme{Kind: LexIdent}, nil
		}
	}
	return s.scanDefault(c)
}

func (s *Scanner) scanDefault(c byte) (Lexeme, error) {
	switch {
	case isDigit(c):
		return s.scanNumber(c)
	case isIdentStartAt(s.source, s.start):
		s.current = s.start
		s.scanIdentifier()
		return Lexeme{Kind: LexIdent}, nil
	case strings.IndexByte(token.PunctChars, c) >= 0:
		spacing := token.Alone
		if next := s.peek(); next != 0 && strings.IndexByte(token.PunctChars, next) >= 0 && next != '\'' {
			spacing = token.Joint
		}
		return Lexeme{Kind: LexPunct, Spacing: spacing}, nil
	}
	r, _ := utf8.DecodeRuneInString(s.source[s.start:])
	return Lexeme{}, s.reportError(errs.ErrorMalformedToken, fmt.Sprintf("unexpected character %q", r))
}

func (s *Scanner) scanIdentifier() {
	for !s.isAtEnd() {
		r, size := utf8.DecodeRuneInString(s.source[s.current:s.end])
		if !token.IsIdentContinue(r) {
			break
		}
		s.current += size
	}
}

// scanCharOrLifetime handles the quote ambiguity: 'a' is a char, 'a is a
// lifetime (a joint quote punct followed by an ident).
func (s *Scanner) scanCharOrLifetime() (Lexeme, error) {
	if s.peek() == '\\' {
		return s.scanQuoted('\'', token.LitChar)
	}
	r, size := utf8.DecodeRuneInString(s.source[s.current:s.end])
	if size > 0 && s.current+size < s.end && s.source[s.current+size] == '\'' && r != '\'' {
		s.current += size + 1
		return Lexeme{Kind: LexLiteral, Lit: token.LitChar}, nil
	}
	if isIdentStartAt(s.source, s.current) {
		return Lexeme{Kind: LexPunct, Spacing: token.Joint}, nil
	}
	return Lexeme{}, s.reportError(errs.ErrorMalformedToken, "unterminated character literal")
}

func (s *Scanner) scanQuoted(quote byte, kind token.LitKind) (Lexeme, error) {
	for !s.isAtEnd() && s.peek() != quote {
		if s.peek() == '\\' {
			s.advance()
			if s.isAtEnd() {
				break
			}
		}
		s.advance()
	}
	if s.isAtEnd() {
		return Lexeme{}, s.reportError(errs.ErrorMalformedToken, fmt.Sprintf("unterminated %s literal", kind))
	}
	s.advance()
	suffix := s.scanSuffix()
	return Lexeme{Kind: LexLiteral, Lit: kind, Suffix: suffix}, nil
}

// rawStringAhead reports whether #*" starts at offset i.
func (s *Scanner) rawStringAhead(i int) bool {
	for i < s.end && s.source[i] == '#' {
		i++
	}
	return i < s.end && s.source[i] == '"'
}

func (s *Scanner) scanRaw(kind token.LitKind) (Lexeme, error) {
	if s.source[s.current] == 'r' {
		s.advance()
	}
	hashes := 0
	for s.peek() == '#' {
		s.advance()
		hashes++
	}
	s.advance() // opening quote
	closer := "\"" + strings.Repeat("#", hashes)
	idx := strings.Index(s.source[s.current:s.end], closer)
	if idx < 0 {
		s.current = s.end
		return Lexeme{}, s.reportError(errs.ErrorMalformedToken, fmt.Sprintf("unterminated %s literal", kind))
	}
	s.current += idx + len(closer)
	return Lexeme{Kind: LexLiteral, Lit: kind, Suffix: s.scanSuffix()}, nil
}

func (s *Scanner) scanNumber(first byte) (Lexeme, error) {
	kind := token.LitInt
	if first == '0' && (s.peek() == 'x' || s.peek() == 'o' || s.peek() == 'b') {
		base := s.advance()
		for isBaseDigit(s.peek(), base) || s.peek() == '_' {
			s.advance()
		}
	} else {
		s.scanDigits()
		if s.peek() == '.' && s.peekNext() != '.' && !isIdentStartAt(s.source, s.current+1) {
			s.advance()
			kind = token.LitFloat
			s.scanDigits()
		}
		if (s.peek() == 'e' || s.peek() == 'E') && s.exponentAhead() {
			s.advance()
			if s.peek() == '+' || s.peek() == '-' {
				s.advance()
			}
			s.scanDigits()
			kind = token.LitFloat
		}
	}
	suffix := s.scanSuffix()
	if suffix == "f32" || suffix == "f64" {
		kind = token.LitFloat
	}
	return Lexeme{Kind: LexLiteral, Lit: kind, Suffix: suffix}, nil
}

func (s *Scanner) exponentAhead() bool {
	i := s.current + 1
	if i < s.end && (s.source[i] == '+' || s.source[i] == '-') {
		i++
	}
	return i < s.end && isDigit(s.source[i])
}

func (s *Scanner) scanDigits() {
	for isDigit(s.peek()) || s.peek() == '_' {
		s.advance()
	}
}

func (s *Scanner) scanSuffix() string {
	if !isIdentStartAt(s.source, s.current) || s.current >= s.end {
		return ""
	}
	from := s.current
	s.scanIdentifier()
	return s.source[from:s.current]
}

// skipTrivia consumes whitespace and comments, including nested block
// comments.
func (s *Scanner) skipTrivia() error {
	for !s.isAtEnd() {
		switch c := s.peek(); {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.advance()
		case c == '/' && s.peekNext() == '/':
			for !s.isAtEnd() && s.peek() != '\n' {
				s.advance()
			}
		case c == '/' && s.peekNext() == '*':
			if err := s.skipBlockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

func (s *Scanner) skipBlockComment() error {
	s.start = s.current
	depth := 0
	for !s.isAtEnd() {
		switch {
		case s.peek() == '/' && s.peekNext() == '*':
			s.current += 2
			depth++
		case s.peek() == '*' && s.peekNext() == '/':
			s.current += 2
			depth--
			if depth == 0 {
				return nil
			}
		default:
			s.advance()
		}
	}
	return s.reportError(errs.ErrorMalformedToken, "unterminated block comment")
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= s.end {
		return 0
	}
	return s.source[s.current+1]
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= s.end
}

func (s *Scanner) span() source.Span {
	return s.file.Span(s.start, s.current)
}

func (s *Scanner) reportError(code, message string) error {
	end := s.current
	if end == s.start {
		end++
	}
	return errs.NewScanError(code, message, s.file.Span(s.start, end))
}

// Helper functions.

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isBaseDigit(c, base byte) bool {
	switch base {
	case 'b':
		return c == '0' || c == '1'
	case 'o':
		return '0' <= c && c <= '7'
	}
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isIdentStartAt(src string, i int) bool {
	if i >= len(src) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(src[i:])
	return token.IsIdentStart(r)
}
