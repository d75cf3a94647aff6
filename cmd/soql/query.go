package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rlch/soql"
	"github.com/rlch/soql/host"
	"github.com/rlch/soql/results"
)

// ErrNoQuery is returned when a command needs a query and none was given.
var ErrNoQuery = errors.New("no query given")

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Aliases:   []string{"q"},
		Usage:     "Run a query and print the records",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "output format (table, csv, json, md)",
				Value:   string(results.FormatTable),
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: "keep rows where any cell contains the text",
			},
			&cli.StringFlag{
				Name:  "where",
				Usage: "keep records matching an expression, e.g. 'Amount > 1000 && Owner.Name != nil'",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "also write the records to a file in the workspace (csv, json)",
			},
		},
		Action: runQuery,
	}
}

func runQuery(ctx context.Context, cmd *cli.Command) error {
	query := soql.NormalizeQuery(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return ErrNoQuery
	}

	format, err := results.ParseFormat(cmd.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var where *results.Predicate
	if src := cmd.String("where"); src != "" {
		if where, err = results.CompileWhere(src); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	a, err := openApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	replies, err := a.exchange(ctx, host.Message{Command: host.CmdRunQuery, Query: query, IsTooling: a.cfg.Tooling})
	if err != nil {
		return err
	}

	if err := firstError(replies); err != nil {
		return err
	}

	shown, ok := find(replies, host.CmdShowResult)
	if !ok || shown.Data == nil {
		return fmt.Errorf("%w: no result for query", errHost)
	}

	records := shown.Data.Records
	if where != nil {
		if records, err = results.Where(records, where); err != nil {
			return err
		}
	}

	table := results.Flatten(records)
	total := len(table.Rows)

	if text := cmd.String("filter"); text != "" {
		table = table.Filter(text)
		fmt.Fprintln(os.Stderr, results.Summary(len(table.Rows), total))
	}

	if err := results.Render(os.Stdout, table, format); err != nil {
		return err
	}

	if fb, ok := find(replies, host.CmdExecutionFeedback); ok {
		fmt.Fprintf(os.Stderr, "%d rows in %ss\n", fb.RowCount, fb.Time)
	}

	if export := cmd.String("export"); export != "" {
		path, err := exportTable(a.host, table, export)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	}

	return nil
}

// exportTable writes the table through the host's export, in the payload
// shape the editor protocol uses: a CSV string or a JSON array.
func exportTable(h *host.Host, table *results.Table, name string) (string, error) {
	format, err := results.ParseFormat(name)
	if err != nil {
		return "", err
	}

	var content json.RawMessage

	switch format {
	case results.FormatCSV:
		var b strings.Builder
		if err := results.Render(&b, table, results.FormatCSV); err != nil {
			return "", err
		}

		content = host.TextContent(b.String())
	case results.FormatJSON:
		if content, err = json.Marshal(table.Records()); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("%w: cannot export %s", results.ErrUnknownFormat, name)
	}

	return h.Export(content, format)
}

func describeCommand() *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Show an object's properties, fields and child relationships",
		ArgsUsage: "<object>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return cli.Exit("usage: soql describe <object>", 1)
			}

			a, err := openApp(ctx, cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			desc, err := a.host.Describe(ctx, name, a.cfg.Tooling)
			if err != nil {
				return fmt.Errorf("describing %s: %w", name, err)
			}

			return results.Describe(os.Stdout, desc)
		},
	}
}

func objectsCommand() *cli.Command {
	return &cli.Command{
		Name:  "objects",
		Usage: "List queryable objects",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "search",
				Aliases: []string{"s"},
				Usage:   "filter by label, API name or key prefix",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := openApp(ctx, cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			objects, err := a.host.ObjectList(ctx, a.cfg.Tooling)
			if err != nil {
				return fmt.Errorf("listing objects: %w", err)
			}

			return results.Objects(os.Stdout, soql.FilterObjects(objects, cmd.String("search")))
		},
	}
}

func fmtCommand() *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "Format a query (reads stdin when no query is given)",
		ArgsUsage: "[query]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			query := strings.Join(cmd.Args().Slice(), " ")
			if query == "" {
				b, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}

				query = string(b)
			}

			if strings.TrimSpace(query) == "" {
				return ErrNoQuery
			}

			_, err := fmt.Fprintln(os.Stdout, soql.Format(query))

			return err
		},
	}
}
