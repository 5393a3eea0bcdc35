package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	errs "splice/internal/errors"
	"splice/source"
)

const diagnosticSource = "splice"

// ConvertDiagnostics transforms expansion diagnostics into LSP diagnostics
// for file.
func ConvertDiagnostics(uri protocol.DocumentUri, file *source.File, ds []errs.CompilerError) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		diagnostics = append(diagnostics, ConvertDiagnostic(uri, file, d))
	}
	return diagnostics
}

// ConvertDiagnostic maps one diagnostic. Notes (tracebacks and the origin
// chain) become related information at the primary location. Spans in
// other files collapse to the start of the document.
func ConvertDiagnostic(uri protocol.DocumentUri, file *source.File, d errs.CompilerError) protocol.Diagnostic {
	var rng protocol.Range
	if d.Span.File == file && !d.Span.IsZero() {
		rng = spanRange(d.Span)
	}
	out := protocol.Diagnostic{
		Range:    rng,
		Severity: ptrSeverity(severity(d.Level)),
		Code:     &protocol.IntegerOrString{Value: d.Code},
		Source:   ptrString(diagnosticSource),
		Message:  d.Message,
	}
	for _, note := range d.Notes {
		out.RelatedInformation = append(out.RelatedInformation, protocol.DiagnosticRelatedInformation{
			Location: protocol.Location{URI: uri, Range: rng},
			Message:  note,
		})
	}
	if d.HelpText != "" {
		out.Message += "\nhelp: " + d.HelpText
	}
	return out
}

// spanRange converts a span to 0-based LSP positions. Columns count runes,
// which matches UTF-16 units outside the astral planes.
func spanRange(s source.Span) protocol.Range {
	start, end := s.StartPos(), s.EndPos()
	return protocol.Range{
		Start: protocol.Position{Line: start.Line - 1, Character: start.Col - 1},
		End:   protocol.Position{Line: end.Line - 1, Character: end.Col - 1},
	}
}

func severity(level errs.ErrorLevel) protocol.DiagnosticSeverity {
	switch level {
	case errs.Warning:
		return protocol.DiagnosticSeverityWarning
	case errs.Note:
		return protocol.DiagnosticSeverityInformation
	case errs.Help:
		return protocol.DiagnosticSeverityHint
	}
	return protocol.DiagnosticSeverityError
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
