package errors

import (
	stderrors "errors"
	"fmt"

	"splice/source"
)

// DiagnosticBuilder provides a fluent interface for creating diagnostics
type DiagnosticBuilder struct {
	err CompilerError
}

func NewDiagnostic(code, message string, span source.Span) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		err: CompilerError{
			Level:   Error,
			Code:    code,
			Message: message,
			Span:    span,
		},
	}
}

// WithSuggestion adds a suggestion to the error
func (b *DiagnosticBuilder) WithSuggestion(message string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithNote adds a note to the error
func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *DiagnosticBuilder) WithNotes(notes []string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, notes...)
	return b
}

// WithHelp adds help text to the error
func (b *DiagnosticBuilder) WithHelp(help string) *DiagnosticBuilder {
	b.err.HelpText = help
	return b
}

// WithOrigin adds one note per origin link below the invocation.
func (b *DiagnosticBuilder) WithOrigin(origin *source.Origin) *DiagnosticBuilder {
	for _, o := range origin.Chain() {
		if o.Kind == source.OriginInvocation {
			break
		}
		b.err.Notes = append(b.err.Notes, "in expansion of "+o.String())
	}
	return b
}

// Build returns the completed compiler error
func (b *DiagnosticBuilder) Build() CompilerError {
	return b.err
}

// Diagnose maps any pipeline error to a diagnostic anchored at the most
// specific span available.
func Diagnose(err error, fallback source.Span) CompilerError {
	if err == nil {
		return CompilerError{}
	}
	var (
		compiler *CompilerError
		value    CompilerError
		scan     *ScanError
		tok      *TokenizationError
		exec     *ScriptExecutionError
		interp   *InterpreterError
	)
	switch {
	case stderrors.As(err, &compiler):
		return *compiler
	case stderrors.As(err, &value):
		return value
	case stderrors.As(err, &exec):
		return diagnoseExecution(exec, fallback)
	case stderrors.As(err, &scan):
		return NewDiagnostic(scan.Code, scan.Message, orSpan(scan.Span, fallback)).Build()
	case stderrors.As(err, &tok):
		return diagnoseTokenization(tok, fallback)
	case stderrors.As(err, &interp):
		return NewDiagnostic(ErrorScriptExecution, interp.Error(), fallback).
			WithNotes(RenderTraceback(interp.Frames)).
			Build()
	}
	return NewDiagnostic(ErrorInternal, err.Error(), fallback).Build()
}

func diagnoseTokenization(tok *TokenizationError, fallback source.Span) CompilerError {
	msg := tok.Message
	if tok.Value != "" {
		msg = fmt.Sprintf("%s: %s", msg, tok.Value)
	}
	code := tok.Code
	if code == "" {
		code = ErrorTokenization
	}
	span := tok.Span
	if tok.Origin != nil && tok.Origin.Kind != source.OriginInvocation {
		span = tok.Origin.Span
	}
	return NewDiagnostic(code, msg, orSpan(span, fallback)).
		WithOrigin(parentOf(tok.Origin)).
		Build()
}

func diagnoseExecution(exec *ScriptExecutionError, fallback source.Span) CompilerError {
	span := orSpan(exec.Span, orSpan(exec.Run, fallback))
	code := exec.Code
	if code == "" {
		code = ErrorScriptExecution
	}

	var tok *TokenizationError
	if stderrors.As(exec.Cause, &tok) {
		d := diagnoseTokenization(tok, span)
		d.Notes = append(d.Notes, "raised while running the script at "+span.String())
		return d
	}

	b := NewDiagnostic(code, exec.Cause.Error(), span)
	var interp *InterpreterError
	if stderrors.As(exec.Cause, &interp) {
		b.WithNotes(RenderTraceback(interp.Frames))
	}
	return b.WithOrigin(exec.Origin).Build()
}

func parentOf(o *source.Origin) *source.Origin {
	if o == nil {
		return nil
	}
	return o.Parent
}

func orSpan(span, fallback source.Span) source.Span {
	if span.IsZero() {
		return fallback
	}
	return span
}
