// Package cmd implements the rxview CLI commands.
//
// The command structure follows standard Go CLI patterns with a root command
// that dispatches to subcommands (demo, serve, version).
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-drift/reactive/cmd/rxview/internal/config"
	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/logging"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Short       string
	Long        string
	Usage       string
	Run         func(args []string) error
	SubCommands []*Command
}

var rootCmd = &Command{
	Name:  "rxview",
	Short: "rxview - stream-backed views",
	Long: `rxview resolves view shapes whose leaves are streams and paints every
materialized view to stdout or to websocket clients.

Use "rxview <command> --help" for more information about a command.`,
	Usage: "rxview <command> [flags]",
}

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// Global flags.
var (
	configDir string
	logLevel  string
)

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	rootCmd.SubCommands = append(rootCmd.SubCommands, cmd)
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return execute(os.Args[1:])
}

func execute(args []string) error {
	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	// Handle global flags and extract --config and --log-level
	var filteredArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-h", "--help", "help":
			if len(filteredArgs) == 0 {
				printHelp(rootCmd)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "-v", "--version":
			if len(filteredArgs) == 0 {
				printVersion()
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "--config", "--log-level":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", arg)
			}
			setGlobal(arg, args[i+1])
			i++
		default:
			if name, value, ok := strings.Cut(arg, "="); ok && (name == "--config" || name == "--log-level") {
				setGlobal(name, value)
				continue
			}
			filteredArgs = append(filteredArgs, arg)
		}
	}
	args = filteredArgs

	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	// Find and execute the command
	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmdName)
		printHelp(rootCmd)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	// Check for help flag on subcommand
	cmdArgs := args[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(cmd)
			return nil
		}
	}

	return cmd.Run(cmdArgs)
}

func setGlobal(name, value string) {
	switch name {
	case "--config":
		configDir = value
	case "--log-level":
		logLevel = value
	}
}

// loadConfig resolves the configuration and installs the process logger
// and error handler.
func loadConfig() (*config.Resolved, logging.Logger, error) {
	dir := configDir
	if dir == "" {
		root, err := config.FindProjectRoot()
		if err != nil {
			return nil, nil, err
		}
		dir = root
	}
	cfg, err := config.Resolve(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		level, ok := logging.ParseLevel(logLevel)
		if !ok {
			return nil, nil, fmt.Errorf("invalid --log-level %q", logLevel)
		}
		cfg.LogLevel = level
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.SetDefault(logger)
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: cfg.LogLevel == logging.LevelDebug})
	return cfg, logger, nil
}

func printVersion() {
	fmt.Printf("rxview version %s (built %s)\n", Version, BuildTime)
}

func printHelp(cmd *Command) {
	fmt.Println(cmd.Long)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s\n", cmd.Usage)
	fmt.Println()
	fmt.Println("Commands:")
	for _, sub := range cmd.SubCommands {
		fmt.Printf("  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -h, --help           Show help for a command")
	fmt.Println("  -v, --version        Show version information")
	fmt.Println("  --config DIR         Directory holding reactive.yaml (default: project root)")
	fmt.Println("  --log-level LEVEL    Override log.level (debug, info, warn, error)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  rxview demo --ticks 5     Paint a ticking counter as JSON lines")
	fmt.Println("  rxview serve              Serve views over websocket with /metrics")
}

func printCommandHelp(cmd *Command) {
	fmt.Println(cmd.Long)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s\n", cmd.Usage)
}
