package splice

import (
	"context"

	"splice/internal/parser"
	"splice/source"
	"splice/token"
)

// FileResult is a host file with its macro invocations expanded.
type FileResult struct {
	File *source.File
	// Tokens is the file's token tree. Invocations that failed to expand
	// are left out of it.
	Tokens      *token.Tokens
	Invocations []parser.Invocation
	Expansions  []Result
	Diagnostics []Diagnostic
}

// ExpandFile expands every invocation of the configured macro in file.
// The error is a *Diagnostic for failures outside any invocation body.
func (s *Session) ExpandFile(ctx context.Context, file *source.File) (*FileResult, error) {
	calls, err := parser.FindInvocations(file, s.cfg.Macro)
	if err != nil {
		return nil, diagnose(err, file.Span(0, int(file.Len())))
	}
	invocations := make([]Invocation, len(calls))
	for i, c := range calls {
		invocations[i] = Invocation{Span: c.Body, Raw: c.Body.Text()}
	}
	res := &FileResult{
		File:        file,
		Invocations: calls,
		Expansions:  s.ExpandAll(ctx, invocations),
	}
	for _, r := range res.Expansions {
		if d, ok := r.Err.(*Diagnostic); ok {
			res.Diagnostics = append(res.Diagnostics, *d)
		}
	}
	log.Debugf("%s: %d invocations, %d failed", file.Name, len(calls), len(res.Diagnostics))

	res.Tokens, err = s.rebuild(file, calls, res.Expansions)
	if err != nil {
		return nil, diagnose(err, file.Span(0, int(file.Len())))
	}
	return res, nil
}

// rebuild lexes the host code around the invocations and splices the
// expansions in their place.
func (s *Session) rebuild(file *source.File, calls []parser.Invocation, expansions []Result) (*token.Tokens, error) {
	b := parser.NewTreeBuilder(file)
	sc := parser.NewScanner(file, 0, int(file.Len()))
	next := 0
	for {
		lx, err := sc.Next()
		if err != nil {
			return nil, err
		}
		if lx.Kind == parser.LexEOF {
			return b.Finish()
		}
		if next < len(calls) && lx.Span.Start == calls[next].Span.Start {
			if ts := expansions[next].Tokens; ts != nil {
				b.Splice(ts, lx.Lead)
			}
			sc.Seek(int(calls[next].Span.End))
			next++
			continue
		}
		if err := b.Add(lx); err != nil {
			return nil, err
		}
	}
}
