package errors

import (
	"fmt"
	"strings"

	"splice/source"
)

// ScanError reports malformed escape syntax. Span points at the opening
// marker or offending delimiter.
type ScanError struct {
	Code    string
	Message string
	Span    source.Span
}

func NewScanError(code, message string, span source.Span) *ScanError {
	return &ScanError{Code: code, Message: message, Span: span}
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// TokenizationError reports a script value that cannot become tokens.
type TokenizationError struct {
	Code    string
	Message string
	Value   string
	Span    source.Span
	Origin  *source.Origin
}

func NewTokenizationError(code, message, value string) *TokenizationError {
	return &TokenizationError{Code: code, Message: message, Value: value}
}

func (e *TokenizationError) Error() string {
	msg := e.Message
	if e.Value != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Value)
	}
	if e.Span.IsZero() {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Span, msg)
}

// At fills in the span and origin if they are still unset.
func (e *TokenizationError) At(span source.Span, origin *source.Origin) *TokenizationError {
	if e.Span.IsZero() {
		e.Span = span
	}
	if e.Origin == nil {
		e.Origin = origin
	}
	return e
}

// Frame is one interpreter call frame. Span is set when the frame lies in
// scripting code of the current invocation.
type Frame struct {
	Function string
	File     string
	Line     int
	Col      int
	HostLine uint32
	Span     source.Span
}

func (f Frame) String() string {
	if f.HostLine > 0 {
		return fmt.Sprintf("File %q, line %d (host line %d), in %s", f.File, f.Line, f.HostLine, f.Function)
	}
	return fmt.Sprintf("File %q, line %d, in %s", f.File, f.Line, f.Function)
}

// InterpreterError is an error raised by the embedded interpreter, kept
// verbatim. Frames are ordered most recent call first.
type InterpreterError struct {
	Class   string
	Message string
	Frames  []Frame
}

func (e *InterpreterError) Error() string {
	if e.Class == "" {
		return e.Message
	}
	return e.Class + ": " + e.Message
}

// Traceback renders the frames, most recent call first.
func (e *InterpreterError) Traceback() string {
	return strings.Join(RenderTraceback(e.Frames), "\n")
}

// ScriptExecutionError wraps a failure raised while a script run executed.
type ScriptExecutionError struct {
	Code   string
	Span   source.Span
	Run    source.Span
	Origin *source.Origin
	Cause  error
}

func (e *ScriptExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Span, e.Cause)
}

func (e *ScriptExecutionError) Unwrap() error {
	return e.Cause
}
