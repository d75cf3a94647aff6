package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rlch/soql/host"
	"github.com/rlch/soql/store"
)

// Options configure Run.
type Options struct {
	Backend host.Backend
	Store   *store.Store
	Host    host.Options
	Config  Config
	Input   io.Reader
	Output  io.Writer
}

// Run starts the editor and blocks until the user quits. It returns the
// final editor contents.
func Run(ctx context.Context, opts Options) (string, error) {
	logger := opts.Config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var p *tea.Program

	// The host only emits from commands, which run after p is assigned.
	h := host.New(opts.Backend, opts.Store, func(m host.Message) {
		p.Send(InboundMsg(m))
	}, opts.Host, logger.Named("host"))

	model := New(ctx, h, opts.Config)

	progOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}

	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	p = tea.NewProgram(model, progOpts...)

	if _, err := p.Run(); err != nil {
		return model.Text(), err
	}

	return model.Text(), nil
}
