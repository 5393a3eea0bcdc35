package parser

import (
	"fmt"
	"strings"

	errs "splice/internal/errors"
	"splice/source"
)

type termKind uint8

const (
	termExpr termKind = iota
	termStmt
	termBlock
)

// scriptEnd describes where a scripting region stopped. at is the offset
// of the terminator ('$', ';' or the ':' of ':{').
type scriptEnd struct {
	kind  termKind
	at    int
	chunk *source.Chunk
}

// scanScript reads scripting code from offset from until a terminator at
// bracket depth zero. Strings and comments are skipped, "p~" string
// prefixes lose their marker and f-strings are rewritten into .format
// calls.
func (p *regionParser) scanScript(from int, marker source.Span, name string) (scriptEnd, error) {
	b := source.NewChunkBuilder(p.file, name)
	copied := from
	var opens []int
	finish := func(kind termKind, at int) scriptEnd {
		b.Copy(copied, at)
		return scriptEnd{kind: kind, at: at, chunk: b.Build(p.file.Span(from, at))}
	}

	for i := from; i < p.end; {
		c := p.src[i]
		switch {
		case c == '#':
			for i < p.end && p.src[i] != '\n' {
				i++
			}
			continue
		case c == '"' || c == '\'':
			end, err := p.skipPyString(i)
			if err != nil {
				return scriptEnd{}, err
			}
			i = end
			continue
		case isPyIdentByte(c) && !isDigit(c):
			j := i
			for j < p.end && isPyIdentByte(p.src[j]) {
				j++
			}
			word := p.src[i:j]
			q := j
			marked := q+1 < p.end && p.src[q] == '~' && isQuote(p.src[q+1])
			if marked {
				q++
			}
			if !isStringPrefix(word) || q >= p.end || !isQuote(p.src[q]) {
				i = j
				continue
			}
			raw := strings.ContainsAny(word, "rR")
			if strings.ContainsAny(word, "fF") {
				b.Copy(copied, i)
				end, err := p.desugarFString(b, word, q, raw)
				if err != nil {
					return scriptEnd{}, err
				}
				i, copied = end, end
				continue
			}
			if marked {
				b.Copy(copied, j)
				copied = q
			}
			end, err := p.skipPyString(q)
			if err != nil {
				return scriptEnd{}, err
			}
			i = end
			continue
		case c == '(' || c == '[' || c == '{':
			opens = append(opens, i)
		case c == ')' || c == ']' || c == '}':
			if len(opens) == 0 {
				return scriptEnd{}, errs.NewScanError(errs.ErrorUnterminatedEscape,
					fmt.Sprintf("unterminated escape: reached %q before the closing '$'", c), marker)
			}
			opens = opens[:len(opens)-1]
		case c == '$':
			if len(opens) > 0 {
				return scriptEnd{}, errs.NewScanError(errs.ErrorUnbalancedDelimiter,
					fmt.Sprintf("unclosed %q in scripting code", p.src[opens[len(opens)-1]]),
					p.file.Span(opens[len(opens)-1], opens[len(opens)-1]+1))
			}
			return finish(termExpr, i), nil
		case c == ';' && len(opens) == 0:
			return finish(termStmt, i), nil
		case c == ':' && len(opens) == 0 && i+1 < p.end && p.src[i+1] == '{':
			return finish(termBlock, i), nil
		}
		i++
	}
	return scriptEnd{}, errs.NewScanError(errs.ErrorUnterminatedEscape,
		"unterminated escape: expected closing '$', ';' or ':{'", marker)
}

// skipPyString returns the offset just past the string literal whose
// opening quote is at i.
func (p *regionParser) skipPyString(i int) (int, error) {
	q := p.src[i]
	triple := i+2 < p.end && p.src[i+1] == q && p.src[i+2] == q
	j := i + 1
	if triple {
		j = i + 3
	}
	for j < p.end {
		c := p.src[j]
		switch {
		case c == '\\':
			j += 2
			continue
		case c == '\n' && !triple:
			return 0, p.unterminatedString(i)
		case c == q:
			if !triple {
				return j + 1, nil
			}
			if j+2 < p.end && p.src[j+1] == q && p.src[j+2] == q {
				return j + 3, nil
			}
		}
		j++
	}
	return 0, p.unterminatedString(i)
}

func (p *regionParser) unterminatedString(at int) error {
	return errs.NewScanError(errs.ErrorUnterminatedString, "unterminated string in scripting code", p.file.Span(at, at+1))
}

// desugarFString rewrites f"a{x!r}b" at quote offset q into
// ("a{!r}b".format(x)). Interpolated expressions keep their file offsets.
func (p *regionParser) desugarFString(b *source.ChunkBuilder, prefix string, q int, raw bool) (int, error) {
	end, err := p.skipPyString(q)
	if err != nil {
		return 0, err
	}
	quote := p.src[q]
	width := 1
	if q+2 < p.end && p.src[q+1] == quote && p.src[q+2] == quote {
		width = 3
	}
	bodyStart, bodyEnd := q+width, end-width

	var tmpl strings.Builder
	type arg struct{ start, end int }
	var args []arg
	for i := bodyStart; i < bodyEnd; {
		c := p.src[i]
		switch {
		case c == '\\' && !raw:
			tmpl.WriteString(p.src[i:min(i+2, bodyEnd)])
			i += 2
		case (c == '{' || c == '}') && i+1 < bodyEnd && p.src[i+1] == c:
			tmpl.WriteString(p.src[i : i+2])
			i += 2
		case c == '{':
			closeAt, exprEnd, err := p.fstringField(i+1, bodyEnd)
			if err != nil {
				return 0, err
			}
			args = append(args, arg{i + 1, exprEnd})
			tmpl.WriteByte('{')
			tmpl.WriteString(p.src[exprEnd:closeAt])
			tmpl.WriteByte('}')
			i = closeAt + 1
		case c == '}':
			return 0, errs.NewScanError(errs.ErrorUnterminatedString, "single '}' is not allowed in f-string", p.file.Span(i, i+1))
		default:
			tmpl.WriteByte(c)
			i++
		}
	}

	newPrefix := strings.Map(func(r rune) rune {
		if r == 'f' || r == 'F' {
			return -1
		}
		return r
	}, prefix)
	delim := p.src[q : q+width]
	b.Insert("("+newPrefix+delim+tmpl.String()+delim+".format(", q)
	for n, a := range args {
		if n > 0 {
			b.Insert(", ", a.start)
		}
		b.Copy(a.start, a.end)
	}
	b.Insert("))", end)
	return end, nil
}

// fstringField scans a replacement field starting after '{'. It returns
// the offset of the closing '}' and where the expression ends (the start
// of any !conversion or :spec).
func (p *regionParser) fstringField(i, limit int) (closeAt, exprEnd int, err error) {
	depth := 0
	exprEnd = -1
	for j := i; j < limit; j++ {
		c := p.src[j]
		switch {
		case c == '(' || c == '[' || c == '{':
			depth++
		case (c == ')' || c == ']') && depth > 0:
			depth--
		case c == '}' && depth > 0:
			depth--
		case c == '}':
			if exprEnd < 0 {
				exprEnd = j
			}
			return j, exprEnd, nil
		case c == '\'' || c == '"':
			end, err := p.skipPyString(j)
			if err != nil {
				return 0, 0, err
			}
			j = end - 1
		case depth == 0 && exprEnd < 0 && c == '!' && j+1 < limit && p.src[j+1] != '=':
			exprEnd = j
		case depth == 0 && exprEnd < 0 && c == ':':
			exprEnd = j
		}
	}
	return 0, 0, errs.NewScanError(errs.ErrorUnterminatedString, "unterminated replacement field in f-string", p.file.Span(i-1, i))
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

func isPyIdentByte(c byte) bool {
	return c == '_' || c >= 0x80 || isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isStringPrefix(word string) bool {
	switch strings.ToLower(word) {
	case "r", "b", "f", "rb", "br", "fr", "rf":
		return true
	}
	return false
}
