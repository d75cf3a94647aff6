package lsp

import (
	"context"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

var _ protocol.Server = (*Server)(nil)

// implemented lists the methods Server answers. The rest of protocol.Server
// is the embedded nil interface, so those methods never reach
// protocol.ServerHandler.
var implemented = map[string]bool{
	protocol.MethodInitialize:             true,
	protocol.MethodInitialized:            true,
	protocol.MethodShutdown:               true,
	protocol.MethodExit:                   true,
	protocol.MethodTextDocumentDidOpen:    true,
	protocol.MethodTextDocumentDidChange:  true,
	protocol.MethodTextDocumentDidClose:   true,
	protocol.MethodTextDocumentCompletion: true,
}

// Handler serves the implemented methods through protocol.ServerHandler and
// answers every other request with method-not-found.
func (s *Server) Handler() jsonrpc2.Handler {
	h := protocol.ServerHandler(s, nil)

	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.logger.Debug("Request", zap.String("method", req.Method()))

		if !implemented[req.Method()] {
			return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
		}

		return h(ctx, reply, req)
	}
}
