package lsp

import (
	"context"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// clientCore is a zapcore.Core that forwards entries to the client as
// window/logMessage notifications. Delivery is asynchronous and drops
// entries when the queue is full, so logging never waits on the editor.
type clientCore struct {
	zapcore.LevelEnabler

	client  protocol.Client
	encoder zapcore.Encoder
	queue   chan *protocol.LogMessageParams
	ctx     context.Context
}

// NewClientLogger returns a logger that writes to both the client's log
// and fallback (typically stderr). The returned stop function ends delivery.
func NewClientLogger(client protocol.Client, fallback zapcore.Core, level zapcore.LevelEnabler) (*zap.Logger, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	core := &clientCore{
		LevelEnabler: level,
		client:       client,
		encoder: zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey:     "msg",
			NameKey:        "logger",
			EncodeDuration: zapcore.StringDurationEncoder,
		}),
		queue: make(chan *protocol.LogMessageParams, 100),
		ctx:   ctx,
	}

	go core.deliver()

	return zap.New(zapcore.NewTee(core, fallback)), cancel
}

func (c *clientCore) deliver() {
	for {
		select {
		case params := <-c.queue:
			// The client may already be gone.
			_ = c.client.LogMessage(c.ctx, params)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *clientCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.encoder = c.encoder.Clone()

	for _, f := range fields {
		f.AddTo(clone.encoder)
	}

	return &clone
}

func (c *clientCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}

	return ce
}

func (c *clientCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.encoder.EncodeEntry(entry, fields)
	if err != nil {
		return err
	}

	params := &protocol.LogMessageParams{
		Type:    messageType(entry.Level),
		Message: strings.TrimSpace(buf.String()),
	}
	buf.Free()

	select {
	case c.queue <- params:
	default:
	}

	return nil
}

func (c *clientCore) Sync() error {
	return nil
}

func messageType(level zapcore.Level) protocol.MessageType {
	switch {
	case level >= zapcore.ErrorLevel:
		return protocol.MessageTypeError
	case level == zapcore.WarnLevel:
		return protocol.MessageTypeWarning
	case level == zapcore.InfoLevel:
		return protocol.MessageTypeInfo
	default:
		return protocol.MessageTypeLog
	}
}
