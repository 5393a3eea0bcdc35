package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition(t *testing.T) {
	f := NewFile("a.rs", "ab\ncé x\n")

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{6, LineCol{2, 3}}, // after the two-byte é
		{7, LineCol{2, 4}},
		{100, LineCol{3, 1}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Position(tt.off), "offset %d", tt.off)
	}

	assert.Equal(t, 3, f.LineCount())
	assert.Equal(t, "cé x", f.Line(2))
	assert.Equal(t, "", f.Line(0))
	assert.Equal(t, uint32(3), f.LineStart(2))
}

func TestSpan(t *testing.T) {
	f := NewFile("a.rs", "let x = 1;")

	s := f.Span(4, 5)
	assert.Equal(t, "x", s.Text())
	assert.Equal(t, "a.rs:1:5", s.String())
	assert.Equal(t, LineCol{1, 6}, s.EndPos())

	clamped := f.Span(-3, 99)
	assert.Equal(t, uint32(0), clamped.Start)
	assert.Equal(t, f.Len(), clamped.End)

	one := f.Span(8, 9)
	cover := s.Cover(one)
	assert.Equal(t, "x = 1", cover.Text())
	assert.True(t, cover.Contains(s))
	assert.False(t, s.Contains(cover))

	other := NewFile("b.rs", "let x = 1;").Span(0, 3)
	assert.Equal(t, s, s.Cover(other))
	assert.False(t, cover.Contains(other))

	var zero Span
	assert.True(t, zero.IsZero())
	assert.Equal(t, "<unknown>", zero.String())
	assert.Empty(t, zero.Text())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.rs")
	require.NoError(t, os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb"), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", f.Content)
	assert.Equal(t, path, f.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.rs"))
	assert.Error(t, err)
}

func TestChunkMapping(t *testing.T) {
	// script code "x + y" cut out of "$x + $y" with the markers dropped
	f := NewFile("a.rs", "f($x +  $y)")
	b := NewChunkBuilder(f, "a.rs:1:3")
	b.Copy(3, 6)
	b.Insert("", 6)
	b.Copy(9, 10)
	c := b.Build(f.Span(2, 10))

	assert.Equal(t, "x +y", c.Code)
	assert.Equal(t, uint32(3), c.FileOffset(0))
	assert.Equal(t, uint32(5), c.FileOffset(2))
	assert.Equal(t, uint32(9), c.FileOffset(3))

	y := c.SpanAt(1, 4)
	assert.Equal(t, "y", y.Text())

	// unknown positions fall back to the whole chunk
	assert.Equal(t, c.Span, c.SpanAt(0, 0))
}

func TestChunkSyntheticText(t *testing.T) {
	f := NewFile("a.rs", `f"{a}"`)
	b := NewChunkBuilder(f, "a.rs:1:1")
	b.Insert(`"{}".format(`, 0)
	b.Copy(3, 4)
	b.Insert(")", 6)
	c := b.Build(f.Span(0, 6))

	assert.Equal(t, `"{}".format(a)`, c.Code)
	assert.Equal(t, uint32(0), c.FileOffset(3))
	assert.Equal(t, uint32(3), c.FileOffset(12))
	assert.Equal(t, uint32(6), c.FileOffset(13))
}

func TestChunkSubAndTrim(t *testing.T) {
	f := NewFile("a.rs", "$  n + 1\n  ;")
	b := NewChunkBuilder(f, "a.rs:1:1")
	b.Copy(1, 11)
	c := b.Build(f.Span(1, 11))

	trimmed := c.Trim()
	assert.Equal(t, "n + 1", trimmed.Code)
	assert.Equal(t, "n + 1", trimmed.Span.Text())
	assert.Equal(t, uint32(3), trimmed.FileOffset(0))

	sub := trimmed.Sub(4, 5)
	assert.Equal(t, "1", sub.Code)
	assert.Equal(t, "1", sub.Span.Text())
}

func TestChunkLines(t *testing.T) {
	f := NewFile("a.rs", "x\n$a = 1\nb = é\n;")
	b := NewChunkBuilder(f, "a.rs:2:1")
	b.Copy(3, 16)
	c := b.Build(f.Span(3, 16))

	assert.Equal(t, "a = 1\nb = é\n", c.Code)
	assert.Equal(t, 6, c.CodeOffset(2, 1))
	assert.Equal(t, 10, c.CodeOffset(2, 5))
	assert.Equal(t, len(c.Code), c.CodeOffset(9, 1))
	assert.Equal(t, uint32(3), c.HostLine(2))
	assert.Equal(t, "é", c.SpanAt(2, 5).Text())
}

func TestOriginChain(t *testing.T) {
	f := NewFile("a.rs", "gen! { $for i in x:{ $i$ } }")
	inv := NewInvocation(f.Span(5, 28))
	loop := inv.Iteration(f.Span(12, 18), 2)
	expr := loop.Child(OriginExpr, f.Span(21, 24))

	assert.Same(t, inv, expr.Root())
	assert.Equal(t, []*Origin{expr, loop, inv}, expr.Chain())
	assert.Equal(t, "loop iteration 2 at a.rs:1:13", loop.String())
	assert.Equal(t, "expression at a.rs:1:22", expr.String())
	assert.Equal(t, "<host>", (*Origin)(nil).String())
	assert.Nil(t, (*Origin)(nil).Root())
	assert.Equal(t, "OriginKind(9)", OriginKind(9).String())
}
