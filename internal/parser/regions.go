package parser

import (
	"fmt"
	"strings"

	errs "splice/internal/errors"
	"splice/source"
	"splice/token"
)

type RunKind uint8

const (
	// RunHost is plain host code.
	RunHost RunKind = iota
	// RunExpr is an inline expression: $expr$.
	RunExpr
	// RunStmt is a statement: $stmt;
	RunStmt
	// RunBlock is a compound statement with a braced body: $hdr:{ ... },
	// plus any $elif/$else clauses chained after it.
	RunBlock
	// RunConcat is a ~ joining the tokens on either side.
	RunConcat
	// RunEscape is a run of k >= 2 dollars standing for k-1 literal ones.
	RunEscape
)

var runKindNames = [...]string{"host", "expr", "stmt", "block", "concat", "escape"}

func (k RunKind) String() string {
	return runKindNames[k]
}

// Run is one piece of mixed source.
type Run struct {
	Kind RunKind
	Span source.Span
	// Lead is the host trivia before a script run's marker.
	Lead    string
	Lexemes []Lexeme
	Code    *source.Chunk
	Clauses []Clause
	Depth   int
}

// Clause is one header and body of a block; if/elif/else chains have
// several.
type Clause struct {
	Keyword string
	Header  *source.Chunk
	Body    []Run
	Marker  source.Span
	Span    source.Span
}

// ParseRuns splits file[start:end] into host and scripting runs.
func ParseRuns(file *source.File, start, end int) ([]Run, error) {
	p := &regionParser{
		file: file,
		src:  file.Content,
		end:  end,
		sc:   NewScanner(file, start, end),
	}
	runs, _, err := p.parseBody(source.Span{}, token.Brace)
	return runs, err
}

type regionParser struct {
	file *source.File
	src  string
	end  int
	sc   *Scanner
}

// parseBody reads runs until the end of input or, inside a block (opener
// set), until the unmatched closer that ends it.
func (p *regionParser) parseBody(opener source.Span, closer token.Delimiter) ([]Run, Lexeme, error) {
	inBlock := !opener.IsZero()
	var (
		runs      []Run
		host      *Run
		delims    []Lexeme
		producing bool
	)
	flush := func() {
		if host != nil {
			runs = append(runs, *host)
			host = nil
		}
	}
	add := func(lx Lexeme) {
		if host == nil {
			host = &Run{Kind: RunHost, Span: lx.Span}
		}
		host.Lexemes = append(host.Lexemes, lx)
		host.Span = host.Span.Cover(lx.Span)
	}

	for {
		lx, err := p.sc.Next()
		if err != nil {
			return nil, Lexeme{}, err
		}
		switch lx.Kind {
		case LexEOF:
			if len(delims) > 0 {
				open := delims[len(delims)-1]
				return nil, Lexeme{}, errs.NewScanError(errs.ErrorUnbalancedDelimiter,
					fmt.Sprintf("unclosed delimiter %q", open.Text), open.Span)
			}
			if inBlock {
				return nil, Lexeme{}, errs.NewScanError(errs.ErrorUnterminatedEscape,
					fmt.Sprintf("unterminated block: missing '%s'", closer.Close()), opener)
			}
			flush()
			return runs, lx, nil

		case LexOpen:
			delims = append(delims, lx)
			add(lx)
			producing = false

		case LexClose:
			if len(delims) == 0 {
				if inBlock && lx.Delim == closer {
					flush()
					return runs, lx, nil
				}
				return nil, Lexeme{}, errs.NewScanError(errs.ErrorUnbalancedDelimiter,
					fmt.Sprintf("unexpected closing delimiter %q", lx.Text), lx.Span)
			}
			open := delims[len(delims)-1]
			if open.Delim != lx.Delim {
				return nil, Lexeme{}, errs.NewScanError(errs.ErrorUnbalancedDelimiter,
					fmt.Sprintf("mismatched closing delimiter %q for %q", lx.Text, open.Text), lx.Span)
			}
			delims = delims[:len(delims)-1]
			add(lx)
			producing = false

		case LexPunct:
			switch {
			case lx.Text == "$":
				flush()
				run, err := p.parseEscape(lx)
				if err != nil {
					return nil, Lexeme{}, err
				}
				runs = append(runs, run)
				producing = run.Kind == RunExpr
			case lx.Text == "~" && lx.Lead == "" && producing && p.concatFollows():
				flush()
				runs = append(runs, Run{Kind: RunConcat, Span: lx.Span})
				producing = false
			default:
				add(lx)
				producing = false
			}

		default:
			add(lx)
			producing = true
		}
	}
}

// concatFollows reports whether a token-producing operand starts right
// after the current position.
func (p *regionParser) concatFollows() bool {
	i := p.sc.Offset()
	if i >= p.end {
		return false
	}
	c := p.src[i]
	if c == '$' {
		return i+1 >= p.end || p.src[i+1] != '$'
	}
	return isDigit(c) || c == '"' || c == '\'' || isIdentStartAt(p.src, i)
}

func (p *regionParser) parseEscape(marker Lexeme) (Run, error) {
	off := int(marker.Span.Start)
	i := off + 1
	for i < p.end && p.src[i] == '$' {
		i++
	}
	if i-off >= 2 {
		p.sc.Seek(i)
		return Run{Kind: RunEscape, Span: p.file.Span(off, i), Lead: marker.Lead, Depth: i - off - 1}, nil
	}

	end, err := p.scanScript(off+1, marker.Span, p.chunkName(off))
	if err != nil {
		return Run{}, err
	}
	switch end.kind {
	case termExpr, termStmt:
		p.sc.Seek(end.at + 1)
		kind := RunExpr
		if end.kind == termStmt {
			kind = RunStmt
		}
		code := end.chunk.Trim()
		if code.Code == "" && kind == RunExpr {
			return Run{}, errs.NewScanError(errs.ErrorUnterminatedEscape, "empty inline expression", p.file.Span(off, end.at+1))
		}
		return Run{Kind: kind, Span: p.file.Span(off, end.at+1), Lead: marker.Lead, Code: code}, nil
	}

	first, err := p.parseClause(marker.Span, end)
	if err != nil {
		return Run{}, err
	}
	if first.Keyword == "elif" || first.Keyword == "else" {
		return Run{}, errs.NewScanError(errs.ErrorDanglingClause,
			fmt.Sprintf("'%s' block without a preceding 'if'", first.Keyword), marker.Span)
	}
	run := Run{Kind: RunBlock, Span: first.Span, Lead: marker.Lead, Clauses: []Clause{first}}
	if first.Keyword != "if" {
		return run, nil
	}
	for {
		clause, ok, err := p.parseContinuation()
		if err != nil {
			return Run{}, err
		}
		if !ok {
			return run, nil
		}
		run.Clauses = append(run.Clauses, clause)
		run.Span = run.Span.Cover(clause.Span)
		if clause.Keyword == "else" {
			return run, nil
		}
	}
}

// parseContinuation looks past whitespace for a $elif or $else clause.
func (p *regionParser) parseContinuation() (Clause, bool, error) {
	i := p.sc.Offset()
	for i < p.end && strings.IndexByte(" \t\r\n", p.src[i]) >= 0 {
		i++
	}
	if i+1 >= p.end || p.src[i] != '$' || p.src[i+1] == '$' {
		return Clause{}, false, nil
	}
	kw := leadingWord(p.src[i+1 : p.end])
	if kw != "elif" && kw != "else" {
		return Clause{}, false, nil
	}
	marker := p.file.Span(i, i+1)
	end, err := p.scanScript(i+1, marker, p.chunkName(i))
	if err != nil {
		return Clause{}, false, err
	}
	if end.kind != termBlock {
		return Clause{}, false, errs.NewScanError(errs.ErrorInvalidHeader,
			fmt.Sprintf("'%s' must be followed by ':{'", kw), marker)
	}
	clause, err := p.parseClause(marker, end)
	return clause, err == nil, err
}

func (p *regionParser) parseClause(marker source.Span, end scriptEnd) (Clause, error) {
	header := end.chunk.Trim()
	p.sc.Seek(end.at + 2)
	body, closer, err := p.parseBody(p.file.Span(int(marker.Start), end.at+2), token.Brace)
	if err != nil {
		return Clause{}, err
	}
	return Clause{
		Keyword: leadingWord(header.Code),
		Header:  header,
		Body:    body,
		Marker:  marker,
		Span:    marker.Cover(closer.Span),
	}, nil
}

func (p *regionParser) chunkName(off int) string {
	pos := p.file.Position(source.Offset(off))
	return fmt.Sprintf("%s:%d:%d", p.file.Name, pos.Line, pos.Col)
}

func leadingWord(s string) string {
	s = strings.TrimLeft(s, " \t\r\n")
	i := 0
	for i < len(s) && isPyIdentByte(s[i]) {
		i++
	}
	return s[:i]
}
