package lsp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"splice"
	"splice/internal/config"
	errs "splice/internal/errors"
	"splice/internal/lsp"
)

const uri = "file:///work/src/lib.rs"

type published struct {
	method string
	params *protocol.PublishDiagnosticsParams
}

func newHandler(t *testing.T) (*lsp.Handler, *glsp.Context, *[]published) {
	t.Helper()
	session := splice.NewSession(config.Default())
	t.Cleanup(func() { _ = session.Close() })

	var sent []published
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			sent = append(sent, published{method, params.(*protocol.PublishDiagnosticsParams)})
		},
	}
	return lsp.NewHandler(session), ctx, &sent
}

func open(t *testing.T, h *lsp.Handler, ctx *glsp.Context, text string) {
	t.Helper()
	err := h.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "rust", Version: 1, Text: text},
	})
	require.NoError(t, err)
}

func TestInitialize(t *testing.T) {
	h, ctx, _ := newHandler(t)
	res, err := h.Initialize(ctx, &protocol.InitializeParams{})
	require.NoError(t, err)

	caps := res.(*protocol.InitializeResult).Capabilities
	sync := caps.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	assert.True(t, *sync.OpenClose)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *sync.Change)
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	h, ctx, sent := newHandler(t)
	open(t, h, ctx, "fn a() {}\nsplice! { $u8(300)$ }\n")

	require.Len(t, *sent, 1)
	got := (*sent)[0]
	assert.Equal(t, protocol.ServerTextDocumentPublishDiagnostics, got.method)
	assert.Equal(t, uri, got.params.URI)
	require.Len(t, got.params.Diagnostics, 1)

	d := got.params.Diagnostics[0]
	assert.Equal(t, errs.ErrorInvalidLiteral, d.Code.Value)
	assert.Equal(t, "splice", *d.Source)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Equal(t, protocol.UInteger(1), d.Range.Start.Line)
	assert.Equal(t, protocol.UInteger(10), d.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(19), d.Range.End.Character)
}

func TestDidChangeClearsDiagnostics(t *testing.T) {
	h, ctx, sent := newHandler(t)
	open(t, h, ctx, "splice! { $missing$ }")
	require.Len(t, (*sent)[0].params.Diagnostics, 1)

	err := h.TextDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "splice! { $for i in range(2):{ x } }"},
		},
	})
	require.NoError(t, err)

	require.Len(t, *sent, 2)
	assert.Empty(t, (*sent)[1].params.Diagnostics)

	res, ok := h.Result(uri)
	require.True(t, ok)
	assert.Equal(t, "x x", res.Tokens.String())
}

func TestDidClose(t *testing.T) {
	h, ctx, sent := newHandler(t)
	open(t, h, ctx, "splice! { $missing$ }")

	err := h.TextDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)

	require.Len(t, *sent, 2)
	assert.NotNil(t, (*sent)[1].params.Diagnostics)
	assert.Empty(t, (*sent)[1].params.Diagnostics)

	_, ok := h.Result(uri)
	assert.False(t, ok)
}

func TestUnterminatedInvocation(t *testing.T) {
	h, ctx, sent := newHandler(t)
	open(t, h, ctx, "splice! { $x$ ")

	require.Len(t, *sent, 1)
	require.Len(t, (*sent)[0].params.Diagnostics, 1)
	assert.Contains(t, (*sent)[0].params.Diagnostics[0].Message, "unterminated")
}
