// Package lsp implements a Language Server Protocol server for SOQL query
// completion.
package lsp

import (
	"context"
	"sync"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/soql/complete"
	"github.com/rlch/soql/host"
	"github.com/rlch/soql/metadata"
	"github.com/rlch/soql/store"
)

// Options configure a Server.
type Options struct {
	// Backend describes the org. Requests run on background goroutines.
	Backend host.Backend
	// Store backs the host's disk cache. It is required.
	Store *store.Store
	Host  host.Options
	// Tooling completes against the tooling catalog.
	Tooling bool
	// OnExit runs after the exit notification, typically closing the connection.
	OnExit func()
}

// Server implements the completion subset of the LSP server interface.
type Server struct {
	// Methods outside the completion subset are left to the nil interface;
	// Handler never routes to them.
	protocol.Server

	client protocol.Client
	logger *zap.Logger

	host     *host.Host
	resolver *metadata.Resolver
	receiver host.Receiver
	tooling  bool
	onExit   func()

	// Background host requests run under ctx and are tracked by wg. Once
	// closed is set no new ones start.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	bgMu   sync.Mutex
	closed bool

	// Document state
	mu        sync.RWMutex
	documents map[protocol.DocumentURI]*Document

	// Server state
	initialized bool
	shutdown    bool
}

// Document represents an open document in the server.
type Document struct {
	URI     protocol.DocumentURI
	Version int32
	Content string

	// The engine carries session state between passes and is not safe for
	// concurrent use.
	mu     sync.Mutex
	engine *complete.Engine
}

// NewServer creates a new LSP server. Metadata is fetched from opts.Backend
// through an in-process host.
func NewServer(client protocol.Client, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		client:    client,
		logger:    logger,
		tooling:   opts.Tooling,
		onExit:    opts.OnExit,
		ctx:       ctx,
		cancel:    cancel,
		documents: make(map[protocol.DocumentURI]*Document),
	}

	var cacheOpts []metadata.CacheOption
	if opts.Host.Now != nil {
		cacheOpts = append(cacheOpts, metadata.WithCacheClock(opts.Host.Now))
	}

	cache := metadata.NewCache(opts.Host.TTL, cacheOpts...)
	s.resolver = metadata.NewResolver(cache, host.Outbox(s.dispatch), logger.Named("resolver"))
	s.resolver.SetTooling(opts.Tooling)
	s.receiver = host.Receiver{Resolver: s.resolver}
	s.host = host.New(opts.Backend, opts.Store, s.receive, opts.Host, logger.Named("host"))

	return s
}

// Initialize handles the initialize request.
func (s *Server) Initialize(_ context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.logger.Info("Initialize", zap.String("root", string(params.RootURI)))

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			// Full document sync - client sends entire content on change
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: TriggerCharacters,
				ResolveProvider:   false,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "soql-lsp",
			Version: "0.1.0",
		},
	}, nil
}

// Initialized starts the host: it validates the backend and loads the
// standard catalog, plus the tooling catalog in tooling mode.
func (s *Server) Initialized(_ context.Context, _ *protocol.InitializedParams) error {
	s.logger.Info("Initialized")

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	s.background(func() {
		s.host.Start(s.ctx, "")

		if s.tooling {
			host.Outbox(s.dispatch).RequestObjectList(true)
		}
	})

	return nil
}

// Shutdown handles the shutdown request.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info("Shutdown")

	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	s.Close()

	return nil
}

// Exit handles the exit notification.
func (s *Server) Exit(_ context.Context) error {
	s.logger.Info("Exit")
	s.Close()

	if s.onExit != nil {
		s.onExit()
	}

	return nil
}

// Close cancels outstanding host requests and waits for them. It is safe to
// call more than once.
func (s *Server) Close() {
	s.bgMu.Lock()
	s.closed = true
	s.cancel()
	s.bgMu.Unlock()

	s.wg.Wait()
}

// background runs fn on a tracked goroutine. It reports false once the
// server is closed.
func (s *Server) background(fn func()) bool {
	s.bgMu.Lock()
	defer s.bgMu.Unlock()

	if s.closed {
		return false
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		fn()
	}()

	return true
}

// DidOpen handles textDocument/didOpen notifications.
func (s *Server) DidOpen(_ context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.logger.Info("DidOpen", zap.String("uri", string(params.TextDocument.URI)))

	doc := &Document{
		URI:     params.TextDocument.URI,
		Version: params.TextDocument.Version,
		Content: params.TextDocument.Text,
		engine: complete.NewEngine(s.resolver.Cache(), s.resolver, s.logger.Named("complete"),
			complete.WithTooling(s.tooling)),
	}

	s.mu.Lock()
	s.documents[params.TextDocument.URI] = doc
	s.mu.Unlock()

	return nil
}

// DidChange handles textDocument/didChange notifications.
func (s *Server) DidChange(_ context.Context, params *protocol.DidChangeTextDocumentParams) error {
	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		s.logger.Warn("DidChange for unknown document", zap.String("uri", string(params.TextDocument.URI)))

		return nil
	}

	// Full sync - take the last content change
	if len(params.ContentChanges) > 0 {
		doc.mu.Lock()
		doc.Content = params.ContentChanges[len(params.ContentChanges)-1].Text
		doc.Version = params.TextDocument.Version
		doc.mu.Unlock()
	}

	return nil
}

// DidClose handles textDocument/didClose notifications.
func (s *Server) DidClose(_ context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.logger.Info("DidClose", zap.String("uri", string(params.TextDocument.URI)))

	s.mu.Lock()
	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()

	return nil
}

// getDocument returns a document by URI (read-locked).
func (s *Server) getDocument(uri protocol.DocumentURI) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[uri]

	return doc, ok
}

// dispatch hands an outbound message to the host without blocking the caller.
func (s *Server) dispatch(m host.Message) {
	started := s.background(func() {
		if err := s.host.Handle(s.ctx, m); err != nil {
			s.logger.Warn("Host rejected message", zap.String("command", string(m.Command)), zap.Error(err))
		}
	})

	if !started {
		s.logger.Debug("Dropping message after close", zap.String("command", string(m.Command)))
	}
}

// receive applies inbound host messages. Errors are surfaced to the user.
func (s *Server) receive(m host.Message) {
	u := s.receiver.Receive(m)

	switch u.Kind {
	case host.UpdateSchema:
		s.logger.Debug("Schema loaded", zap.String("object", u.Object))
	case host.UpdateObjects:
		s.logger.Debug("Object list loaded", zap.Int("objects", len(m.Objects)))
	case host.UpdateError:
		err := s.client.ShowMessage(s.ctx, &protocol.ShowMessageParams{
			Type:    protocol.MessageTypeError,
			Message: u.Message,
		})
		if err != nil {
			s.logger.Error("Failed to show message", zap.Error(err))
		}
	case host.UpdateNone:
		if m.Command == host.CmdOrgInfo && m.OrgInfo != nil {
			s.logger.Info("Connected", zap.String("username", m.OrgInfo.Username), zap.String("alias", m.OrgInfo.Alias))
		}
	}
}
