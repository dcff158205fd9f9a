package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/app"
	"github.com/cory-johannsen/gridbot/internal/config"
	"github.com/cory-johannsen/gridbot/internal/game/command"
	"github.com/cory-johannsen/gridbot/internal/game/dice"
	"github.com/cory-johannsen/gridbot/internal/game/event"
	"github.com/cory-johannsen/gridbot/internal/game/world"
	"github.com/cory-johannsen/gridbot/internal/grading"
	"github.com/cory-johannsen/gridbot/internal/mcptools"
	"github.com/cory-johannsen/gridbot/internal/observability"
	"github.com/cory-johannsen/gridbot/internal/trace"
	"github.com/cory-johannsen/gridbot/internal/worldschema"
)

// errNotPassed makes `gridbot run` exit non-zero when goals fail.
var errNotPassed = cli.Exit("one or more goals are not completed", 2)

func loadConfig(c *cli.Command) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, nil, err
	}
	if dir := c.String("worlds"); dir != "" {
		cfg.Worlds.Dir = dir
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// languageFor picks the program language from an explicit flag or the file
// extension.
func languageFor(flag, path string) (grading.Language, error) {
	switch {
	case flag != "":
		lang := grading.Language(strings.ToLower(flag))
		if lang != grading.LanguageLua && lang != grading.LanguageCommands {
			return "", fmt.Errorf("%q: %w", flag, grading.ErrUnknownLanguage)
		}
		return lang, nil
	case strings.EqualFold(filepath.Ext(path), ".lua"):
		return grading.LanguageLua, nil
	default:
		return grading.LanguageCommands, nil
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run a program in a world and print the graded result",
		ArgsUsage: "PROGRAM",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "world", Aliases: []string{"w"}, Required: true, Usage: "world name"},
			&cli.StringFlag{Name: "lang", Usage: "lua or commands (default from the file extension)"},
			&cli.Uint64Flag{Name: "seed", Usage: "seed for randomised worlds"},
			&cli.StringFlag{Name: "trace-dir", Usage: "write the event trace into this directory"},
			&cli.BoolFlag{Name: "events", Usage: "include the event stream in the output"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() != 1 {
				return cli.Exit("run needs exactly one PROGRAM argument", 1)
			}
			path := c.Args().First()
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading program: %w", err)
			}
			lang, err := languageFor(c.String("lang"), path)
			if err != nil {
				return err
			}

			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if dir := c.String("trace-dir"); dir != "" {
				cfg.Trace.Dir = dir
			}
			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.Runner.Run(ctx, grading.Request{
				World:    c.String("world"),
				Seed:     c.Uint64("seed"),
				Language: lang,
				Source:   string(src),
			})
			if err != nil {
				return err
			}
			out := map[string]any{"result": run.Result}
			if len(run.Output) > 0 {
				out["output"] = run.Output
			}
			if run.TracePath != "" {
				out["trace"] = run.TracePath
			}
			if c.Bool("events") {
				out["events"] = run.Session.Events()
			}
			if err := printJSON(c.Root().Writer, out); err != nil {
				return err
			}
			if !run.Result.Passed {
				return errNotPassed
			}
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check world documents against the schema and parse them",
		ArgsUsage: "FILE...",
		Action: func(_ context.Context, c *cli.Command) error {
			if c.NArg() == 0 {
				return cli.Exit("validate needs at least one FILE", 1)
			}
			v, err := worldschema.New()
			if err != nil {
				return err
			}
			var failed []error
			for _, path := range c.Args().Slice() {
				if err := validateFile(v, path); err != nil {
					failed = append(failed, err)
					fmt.Fprintf(c.Root().Writer, "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(c.Root().Writer, "ok   %s\n", path)
			}
			if len(failed) > 0 {
				return cli.Exit(errors.Join(failed...).Error(), 1)
			}
			return nil
		},
	}
}

// validateFile checks the schema, then builds the world once with a fixed
// seed so semantic errors (bad coordinates, unknown directions) surface.
func validateFile(v *worldschema.Validator, path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), zap.NewNop())
	_, err := world.LoadFile(path, world.Options{}, roller, zap.NewNop())
	return err
}

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "print the events of a trace file, one JSON object per line",
		ArgsUsage: "TRACE",
		Action: func(_ context.Context, c *cli.Command) error {
			if c.NArg() != 1 {
				return cli.Exit("replay needs exactly one TRACE argument", 1)
			}
			h, evs, err := trace.Read(c.Args().First())
			if err != nil {
				return err
			}
			return writeReplay(c.Root().Writer, h, evs)
		},
	}
}

func writeReplay(w io.Writer, h trace.Header, evs []event.Event) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(h); err != nil {
		return err
	}
	for _, ev := range evs {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}

func worldsCommand() *cli.Command {
	return &cli.Command{
		Name:  "worlds",
		Usage: "list the worlds in the configured directory",
		Action: func(_ context.Context, c *cli.Command) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			catalog, err := world.LoadCatalog(cfg.Worlds.Dir, nil)
			if err != nil {
				return err
			}
			for _, name := range catalog.Names() {
				e, _ := catalog.Get(name)
				fmt.Fprintf(c.Root().Writer, "%-20s %s\n", name, e.Document.Title)
			}
			return nil
		},
	}
}

func commandsCommand() *cli.Command {
	return &cli.Command{
		Name:  "commands",
		Usage: "describe the robot command language",
		Action: func(_ context.Context, c *cli.Command) error {
			return writeCommandHelp(c.Root().Writer, command.DefaultRegistry())
		},
	}
}

// writeCommandHelp prints each category followed by its commands.
func writeCommandHelp(w io.Writer, r *command.Registry) error {
	groups := r.CommandsByCategory()
	cats := make([]string, 0, len(groups))
	for cat := range groups {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		if _, err := fmt.Fprintf(w, "%s:\n", cat); err != nil {
			return err
		}
		for _, cmd := range groups[cat] {
			line := fmt.Sprintf("  %-24s %s", cmd.Usage, cmd.Help)
			if len(cmd.Aliases) > 0 {
				line += " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "serve robot tools to an MCP client on stdin/stdout",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			defer logger.Sync()
			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return mcptools.New(a.Builder, version, logger).ServeStdio()
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
