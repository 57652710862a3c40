package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hpungsan/drape/internal/config"
	"github.com/hpungsan/drape/internal/db"
	"github.com/hpungsan/drape/internal/history"
	"github.com/hpungsan/drape/internal/logging"
	"github.com/hpungsan/drape/internal/mcp"
	"github.com/hpungsan/drape/internal/ops"
	"github.com/hpungsan/drape/internal/remote"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"analyze": true, "history": true, "show": true,
	"chat": true, "export": true, "ui": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
      _
   __| |_ __ __ _ _ __   ___
  / _' | '__/ _' | '_ \ / _ \
 | (_| | | | (_| | |_) |  __/
  \__,_|_|  \__,_| .__/ \___|
                 |_|

  Photo-based style analysis

  Usage: drape <command> [options]
         drape --help

  MCP server mode requires piped input.`)
}

// resolveBaseDir returns $DRAPE_HOME or ~/.drape.
func resolveBaseDir() (string, error) {
	if dir := os.Getenv("DRAPE_HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".drape"), nil
}

// buildApp wires config, storage and the remote clients into an App.
func buildApp(ctx context.Context, database *sql.DB, cfg *config.Config, baseDir string, logger *slog.Logger) (*ops.App, error) {
	store := history.New(db.NewSlot(database, cfg.HistorySlot), logger)
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	// Per-call deadlines come from the request context.
	httpClient := &http.Client{}

	return ops.New(ops.Deps{
		Config:     cfg,
		Logger:     logger,
		Analyzer:   remote.NewAnalysisClient(cfg.AnalysisURL, httpClient),
		Chatter:    remote.NewChatClient(cfg.ChatURL, httpClient),
		History:    store,
		ExportsDir: filepath.Join(baseDir, "exports"),
	}), nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, logging.Discard())
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'drape --help' for usage.\n")
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	baseDir, err := resolveBaseDir()
	if err != nil {
		return err
	}

	app, logger, closeDB, err := startup(context.Background(), baseDir)
	if err != nil {
		return err
	}
	defer closeDB()

	if isCLIMode() {
		return newCLIApp(app, logger).Run(os.Args)
	}

	// MCP server mode (default)
	return mcp.Run(app, Version)
}

// startup loads config and opens storage under baseDir. Unreadable history
// storage never stops it: a corrupt database is moved aside and history
// starts empty.
func startup(ctx context.Context, baseDir string) (*ops.App, *slog.Logger, func(), error) {
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	database, err := db.Open(baseDir, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)

	for _, name := range mcp.ValidateDisabledTools(cfg.DisabledTools) {
		logger.Warn("unknown tool in disabled_tools", "tool", name)
	}

	app, err := buildApp(ctx, database, cfg, baseDir, logger)
	if err != nil {
		database.Close()
		return nil, nil, nil, err
	}
	return app, logger, func() { database.Close() }, nil
}
