package lsp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rlch/soql/lsp"
)

type reply struct {
	result any
	err    error
}

func send(t *testing.T, h jsonrpc2.Handler, req jsonrpc2.Request) reply {
	t.Helper()

	var got reply

	err := h(context.Background(), func(_ context.Context, result any, err error) error {
		got = reply{result: result, err: err}

		return nil
	}, req)
	require.NoError(t, err)

	return got
}

func TestHandler_Routes(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, newBackend(t))
	h := server.Handler()

	open, err := jsonrpc2.NewNotification(protocol.MethodTextDocumentDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: testURI, Text: "SELECT Id FROM Acc"},
	})
	require.NoError(t, err)
	assert.NoError(t, send(t, h, open).err)

	req, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(1), protocol.MethodTextDocumentCompletion, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: 0, Character: 18},
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got := send(t, h, req)
		list, ok := got.result.(*protocol.CompletionList)

		return got.err == nil && ok && len(list.Items) == 1 && list.Items[0].Label == "Account"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestHandler_MethodNotFound(t *testing.T) {
	t.Parallel()

	server := lsp.NewServer(&mockClient{}, zap.NewNop(), lsp.Options{})
	t.Cleanup(server.Close)

	req, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(7), protocol.MethodTextDocumentHover, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, send(t, server.Handler(), req).err, jsonrpc2.ErrMethodNotFound)

	// Non-standard methods would otherwise fall through to Server.Request.
	custom, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(8), "soql/runQuery", map[string]string{"query": "SELECT Id FROM Account"})
	require.NoError(t, err)

	assert.ErrorIs(t, send(t, server.Handler(), custom).err, jsonrpc2.ErrMethodNotFound)

	cancel, err := jsonrpc2.NewNotification("$/cancelRequest", map[string]int{"id": 1})
	require.NoError(t, err)

	assert.ErrorIs(t, send(t, server.Handler(), cancel).err, jsonrpc2.ErrMethodNotFound)
}

func TestHandler_BadParams(t *testing.T) {
	t.Parallel()

	server := lsp.NewServer(&mockClient{}, zap.NewNop(), lsp.Options{})
	t.Cleanup(server.Close)

	req, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(2), protocol.MethodInitialize, []int{1, 2})
	require.NoError(t, err)

	assert.ErrorContains(t, send(t, server.Handler(), req).err, jsonrpc2.ErrParse.Error())
}

func TestHandler_Initialize(t *testing.T) {
	t.Parallel()

	server := lsp.NewServer(&mockClient{}, zap.NewNop(), lsp.Options{})
	t.Cleanup(server.Close)

	req, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(1), protocol.MethodInitialize, &protocol.InitializeParams{})
	require.NoError(t, err)

	got := send(t, server.Handler(), req)
	require.NoError(t, got.err)

	res, ok := got.result.(*protocol.InitializeResult)
	require.True(t, ok)
	assert.NotNil(t, res.Capabilities.CompletionProvider)
}

func TestClientLogger(t *testing.T) {
	t.Parallel()

	client := &mockClient{}
	logger, stop := lsp.NewClientLogger(client, zapcore.NewNopCore(), zapcore.InfoLevel)
	t.Cleanup(stop)

	logger.Debug("hidden")
	logger.With(zap.String("object", "Account")).Warn("Describe failed")

	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()

		return len(client.logs) == 1
	}, 5*time.Second, 10*time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()

	assert.Equal(t, protocol.MessageTypeWarning, client.logs[0].Type)
	assert.Contains(t, client.logs[0].Message, "Describe failed")
	assert.Contains(t, client.logs[0].Message, "Account")
}
