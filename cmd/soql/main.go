// Command soql completes, runs and manages SOQL queries from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "soql",
		Usage: "SOQL query completion, execution and saved queries",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "tooling",
				Aliases: []string{"t"},
				Usage:   "use the tooling API catalog",
			},
			&cli.StringFlag{
				Name:    "target-org",
				Aliases: []string{"o"},
				Usage:   "org alias or username (overrides config)",
				Sources: cli.EnvVars("SOQL_TARGET_ORG"),
			},
			&cli.StringFlag{
				Name:    "schemas",
				Usage:   "directory of offline describe files (replaces the sf CLI)",
				Sources: cli.EnvVars("SOQL_SCHEMAS"),
			},
		},
		Commands: []*cli.Command{
			completeCommand(),
			editCommand(),
			queryCommand(),
			describeCommand(),
			objectsCommand(),
			savedCommand(),
			cacheCommand(),
			hostCommand(),
			fmtCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
