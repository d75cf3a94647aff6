package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/boyter/gocodewalker"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/soql"
	"github.com/rlch/soql/host"
	"github.com/rlch/soql/store"
)

// queryExtension is the file extension saved-query import looks for.
const queryExtension = "soql"

func savedCommand() *cli.Command {
	return &cli.Command{
		Name:  "saved",
		Usage: "Manage saved queries",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved queries",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := openApp(ctx, cmd, nil)
					if err != nil {
						return err
					}
					defer a.Close()

					saved, err := a.store.SavedQueries(ctx)
					if err != nil {
						return err
					}

					return printSaved(saved)
				},
			},
			{
				Name:      "save",
				Usage:     "Save a query under a label",
				ArgsUsage: "<label> <query>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() < 2 {
						return cli.Exit("usage: soql saved save <label> <query>", 1)
					}

					return savedExchange(ctx, cmd, host.Message{
						Command: host.CmdSaveQuery,
						Label:   cmd.Args().Get(0),
						Query:   strings.Join(cmd.Args().Slice()[1:], " "),
					})
				},
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a saved query",
				ArgsUsage: "<label>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() < 1 {
						return cli.Exit("usage: soql saved delete <label>", 1)
					}

					return savedExchange(ctx, cmd, host.Message{Command: host.CmdDeleteQuery, Label: cmd.Args().First()})
				},
			},
			{
				Name:      "import",
				Usage:     "Save every .soql file under a directory, labelled by file name",
				ArgsUsage: "<dir>",
				Action:    runImport,
			},
		},
	}
}

// savedExchange sends a saved-query command and prints the resulting list.
func savedExchange(ctx context.Context, cmd *cli.Command, m host.Message) error {
	a, err := openApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	replies, err := a.exchange(ctx, m)
	if err != nil {
		return err
	}

	if err := firstError(replies); err != nil {
		return err
	}

	list, ok := find(replies, host.CmdSavedQueries)
	if !ok {
		return nil
	}

	return printSaved(list.Queries)
}

func printSaved(saved []store.SavedQuery) error {
	if len(saved) == 0 {
		_, err := fmt.Fprintln(os.Stdout, "No saved queries")
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Label", "Query"})

	for _, q := range saved {
		tw.AppendRow(table.Row{q.Label, soql.NormalizeQuery(q.Query)})
	}

	tw.Render()

	return nil
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		dir = "."
	}

	a, err := openApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := importQueries(ctx, a.store, dir, a.logger)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d queries\n", n)

	return nil
}

// importQueries saves every .soql file under dir. Labels that already exist
// are skipped.
func importQueries(ctx context.Context, st *store.Store, dir string, logger *zap.Logger) (int, error) {
	files, err := walkQueries(dir)
	if err != nil {
		return 0, fmt.Errorf("walking %s: %w", dir, err)
	}

	imported := 0

	for _, path := range files {
		data, err := os.ReadFile(path) //nolint:gosec // G304: file path from user input is expected
		if err != nil {
			return imported, fmt.Errorf("reading %s: %w", path, err)
		}

		label := strings.TrimSuffix(filepath.Base(path), "."+queryExtension)

		err = st.SaveQuery(ctx, label, strings.TrimSpace(string(data)))

		switch {
		case errors.Is(err, soql.ErrDuplicateLabel):
			logger.Warn("Skipping existing label", zap.String("label", label), zap.String("path", path))
		case errors.Is(err, soql.ErrEmptyQuery):
			logger.Warn("Skipping empty query", zap.String("path", path))
		case err != nil:
			return imported, fmt.Errorf("saving %s: %w", path, err)
		default:
			imported++
		}
	}

	return imported, nil
}

// walkQueries lists the .soql files under root, respecting .gitignore.
func walkQueries(root string) ([]string, error) {
	fileListQueue := make(chan *gocodewalker.File, 100)

	fileWalker := gocodewalker.NewFileWalker(root, fileListQueue)
	fileWalker.AllowListExtensions = []string{queryExtension}

	var walkErr error
	fileWalker.SetErrorHandler(func(e error) bool {
		walkErr = e
		return true
	})

	var (
		files []string
		wg    sync.WaitGroup
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		for f := range fileListQueue {
			files = append(files, f.Location)
		}
	}()

	if err := fileWalker.Start(); err != nil {
		return nil, err
	}

	wg.Wait()
	sort.Strings(files)

	return files, walkErr
}
