package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/soql"
	"github.com/rlch/soql/host"
	"github.com/rlch/soql/tui"
)

func editCommand() *cli.Command {
	return &cli.Command{
		Name:  "edit",
		Usage: "Open the interactive query editor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "write logs to this file (the terminal is taken by the editor)",
			},
		},
		Action: runEdit,
	}
}

func runEdit(ctx context.Context, cmd *cli.Command) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return cli.Exit("edit needs a terminal; use 'soql complete' or 'soql query' instead", 1)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := editorLogger(cmd.String("log"), cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := host.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	text, err := tui.Run(ctx, tui.Options{
		Backend: host.NewBackend(cfg, logger),
		Store:   st,
		Host:    host.OptionsFromConfig(cfg),
		Config: tui.Config{
			Debounce: cfg.Debounce(),
			Tooling:  cfg.Tooling,
			TTL:      cfg.CacheTTL(),
			Logger:   logger,
		},
	})
	if err != nil {
		return fmt.Errorf("running editor: %w", err)
	}

	if text != "" {
		fmt.Println(soql.NormalizeQuery(text))
	}

	return nil
}

// editorLogger logs to path, or nowhere when path is empty.
func editorLogger(path string, debug bool) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}

	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}

	if !debug {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return config.Build()
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the metadata cache",
		Commands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "Drop cached org info, object lists and describe results",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := openApp(ctx, cmd, nil)
					if err != nil {
						return err
					}
					defer a.Close()

					if err := a.host.ClearCache(ctx); err != nil {
						return fmt.Errorf("clearing cache: %w", err)
					}

					fmt.Println("cache cleared")

					return nil
				},
			},
		},
	}
}

func hostCommand() *cli.Command {
	return &cli.Command{
		Name:  "host",
		Usage: "Serve the editor protocol as JSON lines on stdin/stdout",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "page",
				Usage: "page to load on start",
				Value: soql.PageQuery,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			a, err := openApp(ctx, cmd, host.LineSink(os.Stdout, logger.Named("stdio")))
			if err != nil {
				return err
			}
			defer a.Close()

			a.host.Start(ctx, cmd.String("page"))

			return a.host.Serve(ctx, os.Stdin)
		},
	}
}
