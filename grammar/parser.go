package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	headerParser    = build[Header]()
	directiveParser = build[Directive]()

	elided = map[lexer.TokenType]bool{}
)

func build[G any]() *participle.Parser[G] {
	return participle.MustBuild[G](
		participle.Lexer(ScriptLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(3),
	)
}

func init() {
	symbols := ScriptLexer.Symbols()
	elided[symbols["Whitespace"]] = true
	elided[symbols["Comment"]] = true
}

// directives are the leading words ParseDirective claims.
var directives = map[string]bool{
	"import": true, "from": true, "break": true,
	"continue": true, "pass": true, "return": true,
}

// ParseHeader parses a block header such as "for x in xs" or "with t as n".
func ParseHeader(name, code string) (*Header, error) {
	header, err := headerParser.ParseString(name, code)
	if err != nil {
		return nil, err
	}
	return header, nil
}

// ParseDirective parses a statement if it starts with a directive keyword.
// ok is false for statements that belong to the interpreter.
func ParseDirective(name, code string) (d *Directive, ok bool, err error) {
	if !directives[leadingWord(code)] {
		return nil, false, nil
	}
	d, err = directiveParser.ParseString(name, code)
	if err != nil {
		return nil, true, err
	}
	return d, true, nil
}

// ErrorOffset returns the byte offset of a parse error within the code, or
// -1 when the error carries no position.
func ErrorOffset(err error) int {
	var pe participle.Error
	if errors.As(err, &pe) {
		return pe.Position().Offset
	}
	return -1
}

// ErrorMessage strips the position prefix participle puts on its messages.
func ErrorMessage(err error) string {
	var pe participle.Error
	if errors.As(err, &pe) {
		return pe.Message()
	}
	return err.Error()
}

// EBNF describes the header and directive grammars.
func EBNF() string {
	return fmt.Sprintf("%s\n\n%s", headerParser.String(), directiveParser.String())
}

func extent(tokens []lexer.Token) (int, int) {
	start, end := -1, -1
	for _, t := range tokens {
		if elided[t.Type] || t.EOF() {
			continue
		}
		if start < 0 {
			start = t.Pos.Offset
		}
		end = t.Pos.Offset + len(t.Value)
	}
	if start < 0 {
		return 0, 0
	}
	return start, end
}

func leadingWord(s string) string {
	s = strings.TrimLeft(s, " \t\r\n")
	i := 0
	for i < len(s) && (s[i] == '_' || ('a' <= s[i] && s[i] <= 'z') || ('A' <= s[i] && s[i] <= 'Z') || ('0' <= s[i] && s[i] <= '9')) {
		i++
	}
	return s[:i]
}
