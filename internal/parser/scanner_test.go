package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "splice/internal/errors"
	"splice/source"
	"splice/token"
)

func lexAll(t *testing.T, input string) []Lexeme {
	t.Helper()
	file := source.NewFile("test.rs", input)
	sc := NewScanner(file, 0, len(input))
	var out []Lexeme
	for {
		lx, err := sc.Next()
		require.NoError(t, err)
		if lx.Kind == LexEOF {
			return out
		}
		out = append(out, lx)
	}
}

func texts(lexemes []Lexeme) []string {
	out := make([]string, len(lexemes))
	for i, lx := range lexemes {
		out[i] = lx.Text
	}
	return out
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	lexemes := lexAll(t, "fn main r#type _x été")
	assert.Equal(t, []string{"fn", "main", "r#type", "_x", "été"}, texts(lexemes))
	for _, lx := range lexemes {
		assert.Equal(t, LexIdent, lx.Kind)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input  string
		kind   token.LitKind
		suffix string
	}{
		{"42", token.LitInt, ""},
		{"1_000u32", token.LitInt, "u32"},
		{"0xffu8", token.LitInt, "u8"},
		{"0b1010", token.LitInt, ""},
		{"1.5", token.LitFloat, ""},
		{"2f32", token.LitFloat, "f32"},
		{"1e10", token.LitFloat, ""},
		{"3.0e-2f64", token.LitFloat, "f64"},
	}
	for _, tt := range tests {
		lexemes := lexAll(t, tt.input)
		require.Len(t, lexemes, 1, tt.input)
		assert.Equal(t, tt.kind, lexemes[0].Lit, tt.input)
		assert.Equal(t, tt.suffix, lexemes[0].Suffix, tt.input)
		assert.Equal(t, tt.input, lexemes[0].Text)
	}
}

func TestRangeIsNotFloat(t *testing.T) {
	assert.Equal(t, []string{"1", ".", ".", "2"}, texts(lexAll(t, "1..2")))
	assert.Equal(t, []string{"x", ".", "0", ".", "max", "(", ")"}, texts(lexAll(t, "x.0.max()")))
}

func TestStrings(t *testing.T) {
	input := `"a \" b" b"bytes" b'x' r#"raw "q""# c"cstr" br"rb" 'c' '\n'`
	lexemes := lexAll(t, input)
	kinds := make([]token.LitKind, len(lexemes))
	for i, lx := range lexemes {
		require.Equal(t, LexLiteral, lx.Kind, lx.Text)
		kinds[i] = lx.Lit
	}
	assert.Equal(t, []token.LitKind{
		token.LitStr, token.LitByteStr, token.LitByte, token.LitRawStr,
		token.LitCStr, token.LitRawByteStr, token.LitChar, token.LitChar,
	}, kinds)
	assert.Equal(t, `r#"raw "q""#`, lexemes[3].Text)
}

func TestLifetimes(t *testing.T) {
	lexemes := lexAll(t, "&'a str")
	assert.Equal(t, []string{"&", "'", "a", "str"}, texts(lexemes))
	assert.Equal(t, token.Joint, lexemes[1].Spacing)
}

func TestOperatorsAndBrackets(t *testing.T) {
	lexemes := lexAll(t, "a::b += (c)[d]{e} $ ~")
	assert.Equal(t, []string{"a", ":", ":", "b", "+", "=", "(", "c", ")", "[", "d", "]", "{", "e", "}", "$", "~"}, texts(lexemes))
	assert.Equal(t, token.Joint, lexemes[1].Spacing)
	assert.Equal(t, token.Alone, lexemes[2].Spacing)
	assert.Equal(t, LexOpen, lexemes[6].Kind)
	assert.Equal(t, token.Parenthesis, lexemes[6].Delim)
	assert.Equal(t, LexClose, lexemes[14].Kind)
	assert.Equal(t, token.Brace, lexemes[14].Delim)
}

func TestTriviaIsLead(t *testing.T) {
	lexemes := lexAll(t, "a /* x /* nested */ */ b // tail\n  c")
	require.Len(t, lexemes, 3)
	assert.Equal(t, " /* x /* nested */ */ ", lexemes[1].Lead)
	assert.Equal(t, " // tail\n  ", lexemes[2].Lead)
}

func TestSpans(t *testing.T) {
	lexemes := lexAll(t, "fn  foo")
	assert.Equal(t, uint32(4), lexemes[1].Span.Start)
	assert.Equal(t, uint32(7), lexemes[1].Span.End)
	assert.Equal(t, "foo", lexemes[1].Span.Text())
}

func TestScanErrors(t *testing.T) {
	for _, input := range []string{`"open`, "/* open", "a ` b", "r#\"x"} {
		file := source.NewFile("bad.rs", input)
		sc := NewScanner(file, 0, len(input))
		var err error
		for err == nil {
			var lx Lexeme
			lx, err = sc.Next()
			if lx.Kind == LexEOF && err == nil {
				break
			}
		}
		var scanErr *errs.ScanError
		require.ErrorAs(t, err, &scanErr, input)
		assert.Equal(t, errs.ErrorMalformedToken, scanErr.Code)
	}
}
