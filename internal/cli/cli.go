package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/williamscs/pants/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Invocation is the parsed command line: the session configuration plus the
// command and its arguments.
type Invocation struct {
	Config  *app.Config
	Command string
	Args    []string
}

// Parse processes command-line arguments. It returns the invocation, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("pants", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
pants - build-graph queries over BUILD.hcl declarations.

Usage:
  pants [options] COMMAND [SPECS...]

Commands:
  targets            List every target, generators expanded.
  deps SPECS         Print the direct dependencies of the matched targets.
  closure SPECS      Print the transitive closure of the matched targets.
  coarsen SPECS      Print cycle-coarsened components, one per line.
  owners FILES       Print the targets owning the given files.
  sources SPECS      Print the source files of the matched targets.
  peek SPECS         Print the matched targets with their field values.

Options:
`)
		flagSet.PrintDefaults()
	}

	rootFlag := flagSet.String("root", ".", "Repository root to scan for declarations.")
	buildIgnoreFlag := flagSet.String("build-ignore", "", "Comma-separated gitignore-style patterns; matching declaration files are skipped.")
	unownedFlag := flagSet.String("unowned-files", "error", "Behavior for file arguments without an owner. Options: 'ignore', 'warn', or 'error'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var buildIgnore []string
	for _, pattern := range strings.Split(*buildIgnoreFlag, ",") {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			buildIgnore = append(buildIgnore, pattern)
		}
	}

	config, err := app.NewConfig(app.Config{
		RootDir:      *rootFlag,
		BuildIgnore:  buildIgnore,
		UnownedFiles: strings.ToLower(*unownedFlag),
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", flagSet.Arg(0))
	return &Invocation{
		Config:  config,
		Command: flagSet.Arg(0),
		Args:    flagSet.Args()[1:],
	}, false, nil
}
