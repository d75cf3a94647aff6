package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/soql/complete"
	"github.com/rlch/soql/host"
	"github.com/rlch/soql/metadata"
)

// maxRounds bounds the describe/re-run cycles of a one-shot completion.
const maxRounds = 4

func completeCommand() *cli.Command {
	return &cli.Command{
		Name:  "complete",
		Usage: "Print the suggestions for a query at a cursor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "query",
				Aliases:  []string{"q"},
				Usage:    "query text",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "cursor",
				Aliases: []string{"c"},
				Usage:   "byte offset of the cursor (default: end of query)",
				Value:   -1,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output the list as JSON",
			},
		},
		Action: runComplete,
	}
}

func runComplete(ctx context.Context, cmd *cli.Command) error {
	a, err := openApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	text := cmd.String("query")

	cursor := cmd.Int("cursor")
	if cursor < 0 || cursor > len(text) {
		cursor = len(text)
	}

	res, err := completeOnce(ctx, a, text, cursor, a.cfg.Tooling)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return writeCompletionJSON(os.Stdout, text, cursor, res.Suggestions)
	}

	return writeCompletion(os.Stdout, res.Suggestions)
}

// completeOnce runs a pass, fetches whatever schemas it asked for through the
// host, and re-runs until nothing more is requested.
func completeOnce(ctx context.Context, a *app, text string, cursor int, tooling bool) (complete.Result, error) {
	var queue []host.Message

	cache := metadata.NewCache(0)
	resolver := metadata.NewResolver(cache, host.Outbox(func(m host.Message) {
		queue = append(queue, m)
	}), a.logger.Named("resolver"))
	resolver.SetTooling(tooling)

	receiver := host.Receiver{Resolver: resolver}
	engine := complete.NewEngine(cache, resolver, a.logger.Named("complete"), complete.WithTooling(tooling))

	objects, err := a.host.ObjectList(ctx, tooling)
	if err != nil {
		return complete.Result{}, fmt.Errorf("listing objects: %w", err)
	}

	cache.SetObjects(tooling, objects)

	res := engine.Pass(text, cursor)

	for round := 0; round < maxRounds && len(queue) > 0; round++ {
		batch := queue
		queue = nil

		for _, m := range batch {
			replies, err := a.exchange(ctx, m)
			if err != nil {
				return complete.Result{}, err
			}

			for _, r := range replies {
				if u := receiver.Receive(r); u.Kind == host.UpdateError {
					a.logger.Warn("Metadata request failed", zap.String("message", u.Message))
				}
			}
		}

		res = engine.Rerun()
	}

	return res, nil
}

func writeCompletion(w io.Writer, list complete.Suggestions) error {
	switch list.State {
	case complete.ListHidden:
		_, err := fmt.Fprintln(w, "No suggestions")
		return err
	case complete.ListLoading:
		_, err := fmt.Fprintln(w, list.Placeholder)
		return err
	}

	if _, err := fmt.Fprintln(w, list.Title); err != nil {
		return err
	}

	for _, it := range list.Items {
		line := "  " + it.InsertValue
		if it.DisplayLabel != it.InsertValue {
			line += "  (" + it.DisplayLabel + ")"
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

type completionItem struct {
	complete.Item
	// Text is the query after applying the item at the cursor.
	Text   string `json:"text"`
	Cursor int    `json:"cursor"`
}

type completionOutput struct {
	Category    complete.Category `json:"category"`
	State       string            `json:"state"`
	Title       string            `json:"title,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Token       string            `json:"token"`
	Items       []completionItem  `json:"items"`
}

func writeCompletionJSON(w io.Writer, text string, cursor int, list complete.Suggestions) error {
	out := completionOutput{
		Category:    list.Category,
		State:       list.State.String(),
		Title:       list.Title,
		Placeholder: list.Placeholder,
		Token:       list.Token,
		Items:       make([]completionItem, 0, len(list.Items)),
	}

	for _, it := range list.Items {
		ins := complete.Apply(text, cursor, it.InsertValue)
		out.Items = append(out.Items, completionItem{Item: it, Text: ins.Text, Cursor: ins.Cursor})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
