package source

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"
)

// File is an immutable named source buffer.
type File struct {
	Name    string
	Content string
	lineIdx []uint32 // offsets of '\n'
}

// LineCol is a human-readable position. Both fields are 1-based and Col
// counts runes.
type LineCol struct {
	Line uint32
	Col  uint32
}

func NewFile(name, content string) *File {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("source %s too large: %w", name, err))
	}
	f := &File{Name: name, Content: content}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			f.lineIdx = append(f.lineIdx, uint32(i))
		}
	}
	return f
}

// Load reads a file from disk, dropping a UTF-8 BOM and normalising CRLF.
func Load(path string) (*File, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return NewFile(path, string(content)), nil
}

func (f *File) Len() uint32 {
	return uint32(len(f.Content))
}

// Span builds a span from int offsets, clamping them to the file.
func (f *File) Span(start, end int) Span {
	s := Offset(clamp(start, len(f.Content)))
	e := Offset(clamp(end, len(f.Content)))
	if e < s {
		e = s
	}
	return Span{File: f, Start: s, End: e}
}

// Position converts a byte offset into a line/column pair.
func (f *File) Position(off uint32) LineCol {
	if int(off) > len(f.Content) {
		off = uint32(len(f.Content))
	}
	line := sort.Search(len(f.lineIdx), func(i int) bool { return f.lineIdx[i] >= off })
	start := uint32(0)
	if line > 0 {
		start = f.lineIdx[line-1] + 1
	}
	col := utf8.RuneCountInString(f.Content[start:off]) + 1
	return LineCol{Line: Offset(line + 1), Col: Offset(col)}
}

// LineStart returns the offset of the first byte of a 1-based line.
func (f *File) LineStart(line uint32) uint32 {
	switch {
	case line <= 1:
		return 0
	case int(line-2) < len(f.lineIdx):
		return f.lineIdx[line-2] + 1
	default:
		return f.Len()
	}
}

// Line returns the text of a 1-based line without its terminator.
func (f *File) Line(line uint32) string {
	if line == 0 || int(line-1) > len(f.lineIdx) {
		return ""
	}
	start := f.LineStart(line)
	end := f.Len()
	if int(line-1) < len(f.lineIdx) {
		end = f.lineIdx[line-1]
	}
	return strings.TrimSuffix(f.Content[start:end], "\r")
}

func (f *File) LineCount() int {
	return len(f.lineIdx) + 1
}

// Offset converts an in-range int offset to the span representation.
func Offset(i int) uint32 {
	v, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return v
}

func clamp(i, hi int) int {
	if i < 0 {
		return 0
	}
	if i > hi {
		return hi
	}
	return i
}
