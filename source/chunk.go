package source

import (
	"strings"
	"unicode/utf8"
)

// Chunk is scripting code cut out of a File. The code may differ from the
// file text (markers removed, strings rewritten), so a segment table maps
// code offsets back to file offsets.
type Chunk struct {
	Name string
	Code string
	Span Span
	segs []segment
}

type segment struct {
	code      int
	file      uint32
	length    int
	synthetic bool
}

// ChunkBuilder assembles a Chunk piece by piece.
type ChunkBuilder struct {
	file *File
	name string
	code strings.Builder
	segs []segment
}

func NewChunkBuilder(file *File, name string) *ChunkBuilder {
	return &ChunkBuilder{file: file, name: name}
}

// Copy appends file text [start, end) verbatim.
func (b *ChunkBuilder) Copy(start, end int) {
	if end <= start {
		return
	}
	b.segs = append(b.segs, segment{code: b.code.Len(), file: Offset(start), length: end - start})
	b.code.WriteString(b.file.Content[start:end])
}

// Insert appends text that has no file counterpart; it maps to offset at.
func (b *ChunkBuilder) Insert(text string, at int) {
	if text == "" {
		return
	}
	b.segs = append(b.segs, segment{code: b.code.Len(), file: Offset(at), length: len(text), synthetic: true})
	b.code.WriteString(text)
}

func (b *ChunkBuilder) Len() int {
	return b.code.Len()
}

func (b *ChunkBuilder) Build(span Span) *Chunk {
	return &Chunk{Name: b.name, Code: b.code.String(), Span: span, segs: b.segs}
}

// FileOffset maps a byte offset in Code to a byte offset in the file.
func (c *Chunk) FileOffset(off int) uint32 {
	if len(c.segs) == 0 {
		return c.Span.Start
	}
	seg := c.segs[0]
	for _, s := range c.segs {
		if s.code > off {
			break
		}
		seg = s
	}
	if seg.synthetic {
		return seg.file
	}
	delta := off - seg.code
	if delta > seg.length {
		delta = seg.length
	}
	return seg.file + uint32(delta)
}

// CodeOffset converts a 1-based line and rune column in Code into a byte
// offset. Out of range positions clamp to the end of the code.
func (c *Chunk) CodeOffset(line, col int) int {
	off := 0
	for l := 1; l < line; l++ {
		nl := strings.IndexByte(c.Code[off:], '\n')
		if nl < 0 {
			return len(c.Code)
		}
		off += nl + 1
	}
	for i := 1; i < col && off < len(c.Code); i++ {
		if c.Code[off] == '\n' {
			break
		}
		_, size := utf8.DecodeRuneInString(c.Code[off:])
		off += size
	}
	return off
}

// SpanAt returns the file span of the word starting at an interpreter
// position, or the whole chunk when the position is unknown.
func (c *Chunk) SpanAt(line, col int) Span {
	if line <= 0 || c.Span.File == nil {
		return c.Span
	}
	start := c.CodeOffset(line, col)
	end := start
	for end < len(c.Code) && isWordByte(c.Code[end]) {
		end++
	}
	if end == start && end < len(c.Code) {
		end++
	}
	s := Span{File: c.Span.File, Start: c.FileOffset(start), End: c.FileOffset(end)}
	if s.End < s.Start {
		s.End = s.Start
	}
	if !c.Span.Contains(s) {
		return c.Span
	}
	return s
}

// HostLine returns the 1-based file line of an interpreter line number.
func (c *Chunk) HostLine(line int) uint32 {
	if c.Span.File == nil {
		return 0
	}
	return c.Span.File.Position(c.FileOffset(c.CodeOffset(line, 1))).Line
}

// Sub returns the chunk of Code[start:end] with its mapping preserved.
func (c *Chunk) Sub(start, end int) *Chunk {
	sub := &Chunk{Name: c.Name, Code: c.Code[start:end]}
	for _, s := range c.segs {
		lo, hi := s.code, s.code+s.length
		if hi <= start || lo >= end {
			continue
		}
		cut := s
		if lo < start {
			if !cut.synthetic {
				cut.file += uint32(start - lo)
			}
			cut.length -= start - lo
			lo = start
		}
		if hi > end {
			cut.length -= hi - end
		}
		cut.code = lo - start
		sub.segs = append(sub.segs, cut)
	}
	if c.Span.File != nil {
		sub.Span = Span{File: c.Span.File, Start: c.FileOffset(start), End: c.FileOffset(end)}
	}
	return sub
}

// Trim drops surrounding whitespace from the code.
func (c *Chunk) Trim() *Chunk {
	start, end := 0, len(c.Code)
	for start < end && isSpace(c.Code[start]) {
		start++
	}
	for end > start && isSpace(c.Code[end-1]) {
		end--
	}
	return c.Sub(start, end)
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 0x80 ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
