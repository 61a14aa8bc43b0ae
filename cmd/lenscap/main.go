package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarlsen/lenscap/internal/camera"
	"github.com/mkarlsen/lenscap/internal/config"
	"github.com/mkarlsen/lenscap/internal/logging"
	"github.com/mkarlsen/lenscap/internal/mcp"
	"github.com/mkarlsen/lenscap/internal/settings"
	"github.com/mkarlsen/lenscap/internal/task"
	"github.com/mkarlsen/lenscap/internal/urlstore"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// app bundles the wired dependencies shared by every surface.
type app struct {
	urls   *urlstore.Store
	svc    *camera.Service
	runner *task.Runner
	cfg    *config.Config
	log    zerolog.Logger
}

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"urls": true, "snapshot": true, "record": true, "preview": true,
	"watch": true, "output-dir": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isCompatMode reports whether the first argument is a bare stream URL, the
// legacy invocation shape `lenscap <url> [seconds]`.
func isCompatMode() bool {
	return len(os.Args) >= 2 && strings.Contains(os.Args[1], "://")
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _
  | | ___ _ __  ___  ___ __ _ _ __
  | |/ _ \ '_ \/ __|/ __/ _' | '_ \
  | |  __/ | | \__ \ (_| (_| | |_) |
  |_|\___|_| |_|___/\___\__,_| .__/
                             |_|
  Network camera capture studio

  Usage: lenscap <command> [options]
         lenscap <stream-url> [seconds]
         lenscap --help

  MCP server mode requires piped input.`)
}

// initApp opens the settings store and wires the shared services.
func initApp(baseDir string) (*app, func(), error) {
	store, err := settings.Open(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open settings store: %w", err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		ToFile: cfg.LogToFile,
		LogDir: filepath.Join(baseDir, "logs"),
	})

	a := &app{
		urls:   urlstore.New(store),
		svc:    camera.NewService(camera.NewEngine()),
		runner: task.NewRunner(log),
		cfg:    cfg,
		log:    log,
	}
	return a, func() { store.Close() }, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before settings init (no store needed)
	if isHelpOrVersion() {
		cliApp := newCLIApp(&app{})
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".lenscap")

	a, closeApp, err := initApp(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeApp()

	// Legacy invocation: a bare stream URL records a clip and prints
	// Success or Fail.
	if isCompatMode() {
		os.Exit(runCompat(a, os.Args[1:], os.Stdout))
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		cliApp := newCLIApp(a)
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'lenscap --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(a.urls, a.svc, a.runner, a.cfg, a.log, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
