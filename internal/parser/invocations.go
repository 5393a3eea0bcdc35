package parser

import (
	"splice/source"
)

// Invocation is one "name! ( ... )" call of the expansion macro in a host
// file. Body excludes the delimiters.
type Invocation struct {
	Span  source.Span
	Body  source.Span
	Open  Lexeme
	Close Lexeme
}

// FindInvocations locates the calls of macro in file. Invocation bodies are
// read as mixed source, so scripting code inside them may hold text the
// host lexer would reject.
func FindInvocations(file *source.File, macro string) ([]Invocation, error) {
	end := len(file.Content)
	p := &regionParser{
		file: file,
		src:  file.Content,
		end:  end,
		sc:   NewScanner(file, 0, end),
	}
	var (
		out  []Invocation
		prev [2]Lexeme
	)
	for {
		lx, err := p.sc.Next()
		if err != nil {
			return nil, err
		}
		if lx.Kind == LexEOF {
			return out, nil
		}
		name, bang := prev[0], prev[1]
		prev[0], prev[1] = bang, lx
		if lx.Kind != LexOpen || name.Kind != LexIdent || name.Text != macro || !bang.IsPunct("!") {
			continue
		}
		_, closer, err := p.parseBody(lx.Span, lx.Delim)
		if err != nil {
			return nil, err
		}
		out = append(out, Invocation{
			Span:  name.Span.Cover(closer.Span),
			Body:  file.Span(int(lx.Span.End), int(closer.Span.Start)),
			Open:  lx,
			Close: closer,
		})
		prev = [2]Lexeme{}
	}
}
