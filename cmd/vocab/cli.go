package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/vocab/internal/chat"
	"github.com/hpungsan/vocab/internal/db"
	"github.com/hpungsan/vocab/internal/errors"
	"github.com/hpungsan/vocab/internal/mcp"
	"github.com/hpungsan/vocab/internal/ops"
	"github.com/hpungsan/vocab/internal/review"
	"github.com/hpungsan/vocab/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "vocab",
		Usage:   "Spaced-repetition vocabulary coach",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "home", Usage: "Data directory (default: $VOCAB_HOME or ~/.vocab)"},
		},
		Before: func(c *cli.Context) error {
			if e.db != nil || isHelpOrVersion(c.Args().First()) {
				return nil
			}
			if err := e.setup(c.String("home")); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
		Commands: []*cli.Command{
			addCmd(e),
			genCmd(e),
			reviewCmd(e),
			gradeCmd(e),
			chatCmd(e),
			listCmd(e),
			showCmd(e),
			knownCmd(e),
			deleteCmd(e),
			statsCmd(e),
			exportCmd(e),
			importCmd(e),
			serveCmd(e),
			mcpCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// wordArg joins positional arguments so multi-word phrases need no quoting.
func wordArg(c *cli.Context) string {
	return strings.Join(c.Args().Slice(), " ")
}

// addCmd creates the add command.
func addCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a word, generating its card with the local model",
		ArgsUsage: "<word>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "context", Aliases: []string{"c"}, Usage: "Sentence where you met the word"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Add(c.Context, e.db, e.contentModel(), ops.AddInput{
				Word:    wordArg(c),
				Context: c.String("context"),
				Today:   e.now(),
			})
			if err != nil {
				return outputError(err)
			}
			return e.outputJSON(output)
		},
	}
}

// genCmd creates the gen command.
func genCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "gen",
		Usage:     "Preview generated content for a word without storing it",
		ArgsUsage: "<word>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "context", Aliases: []string{"c"}, Usage: "Sentence where you met the word"},
		},
		Action: func(c *cli.Context) error {
			content, err := ops.Preview(c.Context, e.contentModel(), ops.PreviewInput{
				Word:    wordArg(c),
				Context: c.String("context"),
			})
			if err != nil {
				return outputError(err)
			}
			return e.outputJSON(content)
		},
	}
}

// reviewCmd creates the interactive review command.
func reviewCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Review the cards due today",
		Action: func(c *cli.Context) error {
			session := review.New(db.NewStore(e.db), e.scheduler(), e.stdin, e.stdout,
				review.WithLogger(e.logger),
				review.WithClock(e.now),
			)
			if _, err := session.Run(c.Context); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// gradeCmd creates the one-shot grade command.
func gradeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "grade",
		Usage:     "Record a review score for one card",
		ArgsUsage: "<word>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "score", Aliases: []string{"s"}, Required: true, Usage: "Recall score 1-5"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Grade(c.Context, e.db, e.scheduler(), ops.GradeInput{
				Word:  wordArg(c),
				Score: c.Int("score"),
				Today: e.now(),
				Now:   e.now(),
			})
			if err != nil {
				return outputError(err)
			}
			return e.outputJSON(output)
		},
	}
}

// chatCmd creates the conversation practice command.
func chatCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Practice conversation using your vocabulary",
		Action: func(c *cli.Context) error {
			words, err := db.Words(c.Context, e.db)
			if err != nil {
				return outputError(err)
			}
			session := chat.New(e.contentModel(), words, e.stdin, e.stdout, e.logger)
			if _, err := session.Run(c.Context); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List cards",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "due", Aliases: []string{"d"}, Usage: "Only cards due today, in review order"},
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Include cards marked known"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, e.db, ops.ListInput{
				Due:          c.Bool("due"),
				IncludeKnown: c.Bool("all"),
				Limit:        c.Int("limit"),
				Offset:       c.Int("offset"),
				Today:        e.now(),
			})
			if err != nil {
				return outputError(err)
			}
			return e.outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one card",
		ArgsUsage: "<word>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "history", Usage: "Include recent reviews"},
			&cli.IntFlag{Name: "history-limit", Value: ops.DefaultHistoryLimit, Usage: "Maximum reviews to include"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Fetch(c.Context, e.db, ops.FetchInput{
				Word:           wordArg(c),
				IncludeHistory: c.Bool("history"),
				HistoryLimit:   c.Int("history-limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return e.outputJSON(output)
		},
	}
}

// knownCmd creates the known command.
func knownCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "known",
		Usage:     "Mark a word as known, excluding it from review",
		ArgsUsage: "<word>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "unset", Usage: "Return the word to review"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.MarkKnown(c.Context, e.db, ops.MarkKnownInput{
				Word:  wordArg(c),
				Known: !c.Bool("unset"),
			})
			if err != nil {
				return outputError(err)
			}
			return e.outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a card and its review history",
		ArgsUsage: "<word>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, e.db, ops.DeleteInput{Word: wordArg(c)})
			if err != nil {
				return outputError(err)
			}
			return e.outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show collection statistics",
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(c.Context, e.db, e.scheduler(), ops.StatsInput{Today: e.now()})
			if err != nil {
				return outputError(err)
			}
			return e.outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export cards to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: <home>/exports/vocab-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, e.db, e.baseDir, ops.ExportInput{
				Path: c.String("path"),
				Now:  e.now(),
			})
			if err != nil {
				return outputError(err)
			}
			return e.outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import cards from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeError), Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, e.db, ops.ImportInput{
				Path:  c.String("path"),
				Mode:  ops.ImportMode(c.String("mode")),
				Today: e.now(),
			})
			if err != nil {
				return outputError(err)
			}
			return e.outputJSON(output)
		},
	}
}

// serveCmd creates the web UI command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			cfg := *e.cfg
			if bind := c.String("bind"); bind != "" {
				cfg.Web.Bind = bind
			}
			if port := c.Int("port"); port != 0 {
				cfg.Web.Port = port
			}

			srv, err := web.NewServer(e.db, &cfg, Version, e.logger)
			if err != nil {
				return outputError(err)
			}
			if err := web.Run(srv, e.logger); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// mcpCmd creates the MCP stdio server command.
func mcpCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			if err := mcp.Run(e.db, e.cfg, e.baseDir, Version, e.logger); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func (e *env) outputJSON(v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if vocabErr, ok := err.(*errors.VocabError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", vocabErr.Code, vocabErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
