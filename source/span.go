package source

import (
	"fmt"
)

// Span is a byte range [Start, End) inside a File.
type Span struct {
	File  *File
	Start uint32
	End   uint32
}

func (s Span) IsZero() bool {
	return s.File == nil
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

// Text returns the source text covered by the span.
func (s Span) Text() string {
	if s.File == nil {
		return ""
	}
	return s.File.Content[s.Start:s.End]
}

// Contains reports whether other lies entirely inside s.
func (s Span) Contains(other Span) bool {
	return s.File == other.File && other.Start >= s.Start && other.End <= s.End
}

// Cover returns the smallest span containing both s and other. Spans from
// different files are not merged.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

func (s Span) StartPos() LineCol {
	if s.File == nil {
		return LineCol{}
	}
	return s.File.Position(s.Start)
}

func (s Span) EndPos() LineCol {
	if s.File == nil {
		return LineCol{}
	}
	return s.File.Position(s.End)
}

func (s Span) String() string {
	if s.File == nil {
		return "<unknown>"
	}
	pos := s.StartPos()
	return fmt.Sprintf("%s:%d:%d", s.File.Name, pos.Line, pos.Col)
}
