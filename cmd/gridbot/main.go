// Package main provides the gridbot command line: run and grade programs,
// validate world documents, replay traces and serve MCP tools.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "gridbot",
		Usage:   "deterministic grid-world robot engine",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				Sources: cli.EnvVars("GRIDBOT_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before the configuration",
			},
			&cli.StringFlag{
				Name:  "worlds",
				Usage: "override worlds.dir",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// A missing dotenv file is not an error.
			_ = godotenv.Load(c.String("env-file"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			runCommand(),
			validateCommand(),
			replayCommand(),
			worldsCommand(),
			commandsCommand(),
			mcpCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "gridbot:", err)
		os.Exit(1)
	}
}
