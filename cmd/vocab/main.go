package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/vocab/internal/chat"
	"github.com/hpungsan/vocab/internal/config"
	"github.com/hpungsan/vocab/internal/db"
	"github.com/hpungsan/vocab/internal/llm"
	"github.com/hpungsan/vocab/internal/logging"
	"github.com/hpungsan/vocab/internal/ops"
	"github.com/hpungsan/vocab/internal/srs"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// contentModel generates card content and tutor replies.
type contentModel interface {
	ops.Generator
	chat.Completer
}

// env carries what commands need. setup fills it from --home and config
// unless a test already did.
type env struct {
	db      *sql.DB
	cfg     *config.Config
	baseDir string
	logger  *zap.Logger
	model   contentModel

	stdin  io.Reader
	stdout io.Writer
	now    func() time.Time
}

// setup resolves the home directory, loads config, opens the log and the database.
func (e *env) setup(home string) error {
	baseDir, err := config.BaseDir(home)
	if err != nil {
		return err
	}

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.LogPath(baseDir), cfg.Logging)
	if err != nil {
		logger = logging.Fallback()
		logger.Warn("file logging unavailable", zap.Error(err))
	}

	database, err := db.Open(baseDir, cfg.DBPath(baseDir))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)

	e.db = database
	e.cfg = cfg
	e.baseDir = baseDir
	e.logger = logger
	return nil
}

func (e *env) close() {
	if e.db != nil {
		e.db.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

// contentModel returns the configured local model, built on first use.
func (e *env) contentModel() contentModel {
	if e.model == nil {
		e.model = llm.New(e.cfg.LLM, llm.WithLogger(e.logger))
	}
	return e.model
}

func (e *env) scheduler() *srs.Scheduler {
	return srs.New(e.cfg.Intervals())
}

// isHelpOrVersion returns true if the argument asks for help or version info.
func isHelpOrVersion(arg string) bool {
	switch arg {
	case "", "--help", "-h", "--version", "-v", "help", "h":
		return true
	}
	return false
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  __   __ ___   ___  __ _  ___
  \ \ / // _ \ / __|/ _' || _ )
   \ V /| (_) | (__| (_| || _ \
    \_/  \___/ \___|\__,_||___/

  Spaced-repetition vocabulary coach

  Usage: vocab <command> [options]
         vocab --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	args := os.Args
	// No args + piped stdin → MCP server, as launched by MCP clients
	if len(args) < 2 {
		args = append(args, "mcp")
	}

	e := &env{stdin: os.Stdin, stdout: os.Stdout, now: time.Now}
	app := newCLIApp(e)
	err := app.Run(args)
	e.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
