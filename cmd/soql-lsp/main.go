// Command soql-lsp is a Language Server Protocol server for SOQL queries.
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rlch/soql"
	"github.com/rlch/soql/host"
	"github.com/rlch/soql/lsp"
)

var (
	debugFlag   = flag.Bool("debug", false, "Enable debug logging")
	toolingFlag = flag.Bool("tooling", false, "Complete against the tooling API catalog")
	schemasFlag = flag.String("schemas", os.Getenv("SOQL_SCHEMAS"), "Directory of offline describe files")
	orgFlag     = flag.String("target-org", os.Getenv("SOQL_TARGET_ORG"), "Org alias or username")
)

func main() {
	flag.Parse()

	// Set up logging to stderr (stdout is for LSP communication)
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if *debugFlag {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Starting soql-lsp server", zap.Bool("tooling", cfg.Tooling), zap.String("schemas", cfg.Schemas))

	err = run(context.Background(), logger, config.Level, cfg, os.Stdin, os.Stdout)
	if err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

func loadConfig() (*soql.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := soql.LoadConfig(wd)
	if err != nil {
		return nil, err
	}

	if *toolingFlag {
		cfg.Tooling = true
	}

	if *schemasFlag != "" {
		cfg.Schemas = *schemasFlag
	}

	if *orgFlag != "" {
		cfg.TargetOrg = *orgFlag
	}

	return cfg, nil
}

func run(ctx context.Context, logger *zap.Logger, level zapcore.LevelEnabler, cfg *soql.Config, in io.Reader, out io.Writer) error {
	st, err := host.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// Create a JSON-RPC stream connection over stdio
	stream := jsonrpc2.NewStream(&readWriteCloser{in, out})
	conn := jsonrpc2.NewConn(stream)

	// Create a client to send notifications to the editor, and mirror logs to it
	client := protocol.ClientDispatcher(conn, logger)
	clientLogger, stop := lsp.NewClientLogger(client, logger.Core(), level)
	defer stop()

	server := lsp.NewServer(client, clientLogger, lsp.Options{
		Backend: host.NewBackend(cfg, clientLogger),
		Store:   st,
		Host:    host.OptionsFromConfig(cfg),
		Tooling: cfg.Tooling,
		OnExit:  func() { _ = conn.Close() },
	})
	defer server.Close()

	conn.Go(ctx, server.Handler())

	// Wait for the connection to close
	<-conn.Done()

	return conn.Err()
}

// readWriteCloser wraps separate reader/writer into io.ReadWriteCloser.
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	if c, ok := rwc.Writer.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
