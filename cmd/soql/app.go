package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rlch/soql"
	"github.com/rlch/soql/host"
	"github.com/rlch/soql/store"
)

// app is the state shared by the commands that talk to an org.
type app struct {
	cfg    *soql.Config
	logger *zap.Logger
	store  *store.Store
	host   *host.Host

	mu    sync.Mutex
	inbox []host.Message
}

func newLogger(cmd *cli.Command) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if cmd.Bool("debug") {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return config.Build()
}

// loadConfig reads the nearest .soql.yaml and applies flag overrides.
func loadConfig(cmd *cli.Command) (*soql.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}

	cfg, err := soql.LoadConfig(wd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.Bool("tooling") {
		cfg.Tooling = true
	}

	if org := cmd.String("target-org"); org != "" {
		cfg.TargetOrg = org
	}

	if dir := cmd.String("schemas"); dir != "" {
		cfg.Schemas = dir
	}

	return cfg, nil
}

// openApp builds the host for one command. With a nil sink, inbound messages
// are collected and returned by exchange.
func openApp(ctx context.Context, cmd *cli.Command, sink host.Sink) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}

	st, err := host.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: st}
	if sink == nil {
		sink = a.collect
	}

	a.host = host.New(host.NewBackend(cfg, logger), st, sink, host.OptionsFromConfig(cfg), logger.Named("host"))

	return a, nil
}

func (a *app) Close() {
	_ = a.store.Close()
	_ = a.logger.Sync()
}

func (a *app) collect(m host.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.inbox = append(a.inbox, m)
}

// exchange sends m to the host and returns everything it emitted in reply.
// The host answers synchronously, so the inbox is complete once Handle
// returns.
func (a *app) exchange(ctx context.Context, m host.Message) ([]host.Message, error) {
	if err := a.host.Handle(ctx, m); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.inbox
	a.inbox = nil

	return out, nil
}

// errHost wraps error events reported by the host.
var errHost = errors.New("host")

func firstError(msgs []host.Message) error {
	for _, m := range msgs {
		if m.Command == host.CmdError {
			return fmt.Errorf("%w: %s", errHost, m.Message)
		}
	}

	return nil
}

func find(msgs []host.Message, command host.Command) (host.Message, bool) {
	for _, m := range msgs {
		if m.Command == command {
			return m, true
		}
	}

	return host.Message{}, false
}
