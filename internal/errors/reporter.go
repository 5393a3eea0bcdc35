package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"splice/source"
)

// ErrorLevel represents the severity of an error
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// CompilerError is the diagnostic handed back to the host compiler.
type CompilerError struct {
	Level       ErrorLevel
	Code        string      // Error code like E0100
	Message     string      // Primary error message
	Span        source.Span // Primary location
	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

// Suggestion represents a suggested fix
type Suggestion struct {
	Message     string
	Replacement string
}

func (e CompilerError) Error() string {
	if e.Span.IsZero() {
		return fmt.Sprintf("%s[%s]: %s", e.Level, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s[%s]: %s", e.Span, e.Level, e.Code, e.Message)
}

// ErrorReporter handles consistent error formatting
type ErrorReporter struct {
	file *source.File
}

func NewErrorReporter(file *source.File) *ErrorReporter {
	return &ErrorReporter{file: file}
}

// FormatError formats a compiler error with Rust-like styling
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var result strings.Builder

	levelColor := er.getLevelColor(err.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	// Header: error[E0100]: message
	if err.Code != "" {
		result.WriteString(fmt.Sprintf("%s[%s]: %s\n",
			levelColor(string(err.Level)), err.Code, err.Message))
	} else {
		result.WriteString(fmt.Sprintf("%s: %s\n",
			levelColor(string(err.Level)), err.Message))
	}

	file := er.file
	if err.Span.File != nil {
		file = err.Span.File
	}
	if file == nil {
		er.writeTrailer(&result, err, "   ")
		return result.String()
	}

	start := file.Position(err.Span.Start)
	end := file.Position(err.Span.End)
	lineNumberWidth := er.getLineNumberWidth(int(start.Line))
	indent := strings.Repeat(" ", lineNumberWidth)

	// Location line: --> filename:line:column
	result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n",
		indent, dim("-->"), file.Name, start.Line, start.Col))
	result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	if start.Line > 1 {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", lineNumberWidth, start.Line-1)),
			dim("│"),
			file.Line(start.Line-1)))
	}

	lineContent := file.Line(start.Line)
	result.WriteString(fmt.Sprintf("%s %s %s\n",
		bold(fmt.Sprintf("%*d", lineNumberWidth, start.Line)),
		dim("│"),
		lineContent))

	// Spans running past the end of the line are underlined to its end.
	endCol := int(end.Col)
	if end.Line != start.Line {
		endCol = len([]rune(lineContent)) + 1
	}
	marker := er.createMarker(lineContent, int(start.Col), endCol, err.Level)
	result.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), marker))

	if int(start.Line) < file.LineCount() {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", lineNumberWidth, start.Line+1)),
			dim("│"),
			file.Line(start.Line+1)))
	}

	er.writeTrailer(&result, err, indent)
	return result.String()
}

func (er *ErrorReporter) writeTrailer(result *strings.Builder, err CompilerError, indent string) {
	dim := color.New(color.Faint).SprintFunc()

	if len(err.Suggestions) > 0 {
		result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
		suggestionColor := color.New(color.FgCyan).SprintFunc()
		for i, suggestion := range err.Suggestions {
			if i == 0 {
				result.WriteString(fmt.Sprintf("%s %s %s: %s\n",
					indent, suggestionColor("help"), suggestionColor("try"), suggestion.Message))
			} else {
				result.WriteString(fmt.Sprintf("%s %s %s\n",
					indent, suggestionColor("    "), suggestion.Message))
			}
			if suggestion.Replacement != "" {
				result.WriteString(fmt.Sprintf("%s %s %s\n",
					indent, suggestionColor("│"), suggestionColor(suggestion.Replacement)))
			}
		}
	}

	noteColor := color.New(color.FgBlue).SprintFunc()
	for _, note := range err.Notes {
		result.WriteString(fmt.Sprintf("%s %s %s %s\n",
			indent, dim("│"), noteColor("note:"), note))
	}

	if err.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n",
			indent, dim("│"), helpColor("help:"), err.HelpText))
	}

	result.WriteString("\n")
}

// getLevelColor returns the appropriate color function for an error level
func (er *ErrorReporter) getLevelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// createMarker underlines columns [startCol, endCol) of line, measuring in
// terminal cells so wide characters stay aligned.
func (er *ErrorReporter) createMarker(line string, startCol, endCol int, level ErrorLevel) string {
	runes := []rune(line)
	pad := runewidth.StringWidth(string(runes[:min(max(startCol-1, 0), len(runes))]))
	width := 0
	if endCol > startCol && startCol-1 < len(runes) {
		width = runewidth.StringWidth(string(runes[startCol-1 : min(endCol-1, len(runes))]))
	}
	if width <= 0 {
		width = 1
	}

	markerColor := color.New(color.FgRed, color.Bold).SprintFunc()
	if level == Warning {
		markerColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return strings.Repeat(" ", pad) + markerColor(strings.Repeat("^", width))
}

// getLineNumberWidth calculates the width needed for line numbers
func (er *ErrorReporter) getLineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line+1))
	if width < 3 {
		width = 3 // minimum width for visual alignment
	}
	return width
}
