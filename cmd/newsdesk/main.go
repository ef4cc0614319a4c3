package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/moestate/newsdesk/internal/brief"
	"github.com/moestate/newsdesk/internal/catalog"
	"github.com/moestate/newsdesk/internal/config"
	"github.com/moestate/newsdesk/internal/db"
	"github.com/moestate/newsdesk/internal/ingest"
	"github.com/moestate/newsdesk/internal/logging"
	"github.com/moestate/newsdesk/internal/mcp"
	"github.com/moestate/newsdesk/internal/metrics"
	"github.com/moestate/newsdesk/internal/mirror"
	"github.com/moestate/newsdesk/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"generate": true, "create": true, "update": true, "delete": true,
	"fetch": true, "list": true, "append": true,
	"export": true, "import": true, "ingest": true, "catalog": true,
	"serve": true, "mcp": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func printBanner() {
	fmt.Println(`
  newsdesk: commercial real estate market briefs

  Usage: newsdesk <command> [options]
         newsdesk --help

  MCP server mode requires piped input.`)
}

// services is everything a command needs, opened once per process.
type services struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *metrics.Metrics
	manager    *ops.Manager
	generator  *brief.Generator
	catalog    *catalog.Provider
	ingest     *ingest.Service
	exportsDir string
}

// openServices wires storage, the optional mirror and the brief pipeline.
// The returned function releases the database and mirror pool.
func openServices(ctx context.Context, baseDir string, cfg *config.Config, logger *zap.Logger) (*services, func(), error) {
	database, err := db.Init(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)

	remote, closeMirror, err := mirror.Open(ctx, cfg.Mirror, logger)
	if err != nil {
		database.Close()
		return nil, nil, err
	}

	m := metrics.New()
	provider := catalog.NewProvider(catalog.NewSource(cfg.CatalogPath), cfg.CatalogDelay.Std())
	selector := brief.NewSelector(cfg.Selection, rand.New(rand.NewSource(time.Now().UnixNano())))
	client := &http.Client{Timeout: cfg.FeedTimeout.Std()}

	svc := &services{
		cfg:        cfg,
		logger:     logger,
		metrics:    m,
		manager:    ops.NewManager(db.NewSlotStore(database, ""), remote, logger, m),
		generator:  brief.NewGenerator(provider, selector, cfg.GenerationDelay.Std(), logger, m),
		catalog:    provider,
		ingest:     ingest.NewService(cfg.Feeds, cfg.FeedTimeout.Std(), client, logger, m),
		exportsDir: filepath.Join(baseDir, "exports"),
	}
	cleanup := func() {
		closeMirror()
		database.Close()
	}
	return svc, cleanup, nil
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Help and version need no database
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Global flags such as --base-dir come before the command
	if len(os.Args) >= 2 && !strings.HasPrefix(os.Args[1], "-") && !isCLIMode(os.Args) && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'newsdesk --help' for usage.\n")
		os.Exit(1)
	}

	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := &services{}
	cleanup := func() {}
	defer func() { cleanup() }()

	app := newCLIApp(svc)
	app.Before = func(c *cli.Context) error {
		opened, done, err := setup(c.Context, c.String("base-dir"))
		if err != nil {
			return err
		}
		*svc = *opened
		cleanup = done
		return nil
	}
	// No subcommand and piped stdin: MCP server mode
	app.Action = func(c *cli.Context) error {
		return mcp.Run(svc.mcpHandlers(), svc.cfg, Version)
	}
	return app.RunContext(ctx, args)
}

// setup loads config for baseDir, builds the logger and opens services.
func setup(ctx context.Context, baseDir string) (*services, func(), error) {
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("could not determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".newsdesk")
	}

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}

	svc, closeServices, err := openServices(ctx, baseDir, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return svc, func() {
		closeServices()
		_ = logger.Sync()
	}, nil
}

func (s *services) mcpHandlers() *mcp.Handlers {
	return mcp.NewHandlers(s.manager, s.generator, s.catalog, s.ingest, s.exportsDir)
}
