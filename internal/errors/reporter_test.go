package errors

import (
	"fmt"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splice/source"
)

func init() {
	color.NoColor = true
}

func TestErrorReporter(t *testing.T) {
	file := source.NewFile("lib.rs", "fn a() {}\n$for x in 1:{ x }\nfn b() {}")
	span := file.Span(15, 16)

	err := NewDiagnostic(ErrorScriptExecution, "got int, want iterable", span).
		WithNote("Traceback (most recent call first):").
		WithHelp("iterate over range(n) instead").
		Build()
	formatted := NewErrorReporter(file).FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorScriptExecution+"]: got int, want iterable")
	assert.Contains(t, formatted, "lib.rs:2:6")
	assert.Contains(t, formatted, "$for x in 1:{ x }")
	assert.Contains(t, formatted, "│      ^\n")
	assert.Contains(t, formatted, "fn a() {}")
	assert.Contains(t, formatted, "fn b() {}")
	assert.Contains(t, formatted, "note: Traceback")
	assert.Contains(t, formatted, "help: iterate over range(n) instead")
}

func TestMarkerUsesDisplayWidth(t *testing.T) {
	file := source.NewFile("wide.rs", "let 名前 = $oops$;")
	start := len("let 名前 = ")
	span := file.Span(start, start+len("$oops$"))

	formatted := NewErrorReporter(file).FormatError(NewDiagnostic(ErrorScriptExecution, "boom", span).Build())
	// "let " + two double-width runes + " = " is 11 cells.
	assert.Contains(t, formatted, "│            ^^^^^^\n")
}

func TestFormatWithoutSpan(t *testing.T) {
	formatted := NewErrorReporter(nil).FormatError(CompilerError{Level: Error, Code: ErrorInternal, Message: "lost"})
	assert.Contains(t, formatted, "error[E0900]: lost")
}

func TestCodesAreCategorised(t *testing.T) {
	codes := []string{
		ErrorUnterminatedEscape, ErrorUnbalancedDelimiter, ErrorMalformedToken, ErrorDanglingClause,
		ErrorInvalidHeader, ErrorUnterminatedString, ErrorTokenization, ErrorInvalidConcat,
		ErrorInvalidLiteral, ErrorCyclicGroup, ErrorScriptExecution, ErrorScriptSyntax,
		ErrorControlFlow, ErrorInvalidWithTarget, ErrorImport, ErrorConfig, ErrorInternal,
	}
	for _, code := range codes {
		assert.NotEqual(t, "Unknown error code", GetErrorDescription(code), code)
		assert.NotEqual(t, "Unknown", GetErrorCategory(code), code)
		assert.False(t, IsWarning(code))
	}
}

func TestDiagnosePrefersOriginSpan(t *testing.T) {
	file := source.NewFile("in.rs", "$for i in range(2):{ $bad$ }")
	inv := source.NewInvocation(file.Span(0, int(file.Len())))
	loop := inv.Iteration(file.Span(5, 6), 1)
	expr := loop.Child(source.OriginExpr, file.Span(22, 25))

	tok := NewTokenizationError(ErrorTokenization, "cannot convert value to tokens", "{}")
	tok.At(file.Span(0, 1), expr)

	d := Diagnose(tok, inv.Span)
	assert.Equal(t, ErrorTokenization, d.Code)
	assert.Equal(t, "bad", d.Span.Text())
	assert.Contains(t, d.Message, "{}")
	require.Len(t, d.Notes, 1)
	assert.Contains(t, d.Notes[0], "loop iteration 1")
}

func TestDiagnoseScriptExecution(t *testing.T) {
	file := source.NewFile("in.rs", "$x = 1 // 0;")
	run := file.Span(0, int(file.Len()))
	cause := &InterpreterError{
		Message: "floored division by zero",
		Frames:  []Frame{{Function: "<toplevel>", File: "in.rs", Line: 1, Col: 5, HostLine: 1}},
	}
	err := fmt.Errorf("wrapped: %w", &ScriptExecutionError{Span: file.Span(1, 2), Run: run, Cause: cause})

	d := Diagnose(err, run)
	assert.Equal(t, ErrorScriptExecution, d.Code)
	assert.Equal(t, "x", d.Span.Text())
	assert.Equal(t, "floored division by zero", d.Message)
	require.Len(t, d.Notes, 2)
	assert.Equal(t, "Traceback (most recent call first):", d.Notes[0])
	assert.Contains(t, d.Notes[1], `File "in.rs", line 1 (host line 1), in <toplevel>`)
}

func TestDiagnoseScanError(t *testing.T) {
	file := source.NewFile("in.rs", "a $b")
	d := Diagnose(NewScanError(ErrorUnterminatedEscape, "unterminated escape", file.Span(2, 3)), source.Span{})
	assert.Equal(t, ErrorUnterminatedEscape, d.Code)
	assert.Equal(t, uint32(2), d.Span.Start)
	assert.Equal(t, Error, d.Level)
}

func TestDiagnoseUnknownError(t *testing.T) {
	file := source.NewFile("in.rs", "x")
	d := Diagnose(fmt.Errorf("boom"), file.Span(0, 1))
	assert.Equal(t, ErrorInternal, d.Code)
	assert.Equal(t, "x", d.Span.Text())
}
