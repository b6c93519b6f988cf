package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/holthome/backupctl/internal/types"
)

const (
	defaultConfigPath   = "/etc/backupctl/backupctl.env"
	configSourceDefault = "default path"
	configSourceFlag    = "specified via --config/-c flag"
)

// Args holds the parsed command-line arguments
type Args struct {
	ConfigPath       string
	ConfigPathSource string
	LogLevel         types.LogLevel
	DryRun           bool
	Verbose          bool
	Quiet            bool
	Yes              bool
	JSON             bool
	Status           bool
	ShowVersion      bool
	ShowHelp         bool
}

// Parse parses the given command-line arguments into an Args struct.
// Errors (unknown flags) are reported on w and returned.
func Parse(w io.Writer, argv0 string, arguments []string) (*Args, error) {
	args := &Args{}

	fs := flag.NewFlagSet(argv0, flag.ContinueOnError)
	fs.SetOutput(w)

	configFlag := newStringFlag(defaultConfigPath)
	fs.Var(configFlag, "config", "Path to configuration file")
	fs.Var(configFlag, "c", "Path to configuration file (shorthand)")

	var logLevelStr string
	fs.StringVar(&logLevelStr, "log-level", "",
		"Log level (debug|info|warning|error|critical)")
	fs.StringVar(&logLevelStr, "l", "",
		"Log level (shorthand)")

	fs.BoolVar(&args.DryRun, "dry-run", false,
		"Log planned actions without starting or stopping any unit (always exits 0)")
	fs.BoolVar(&args.DryRun, "n", false,
		"Perform a dry run (shorthand)")

	fs.BoolVar(&args.Verbose, "verbose", false,
		"Enable debug-level output")
	fs.BoolVar(&args.Verbose, "v", false,
		"Enable debug-level output (shorthand)")

	fs.BoolVar(&args.Quiet, "quiet", false,
		"Suppress non-error human output")
	fs.BoolVar(&args.Quiet, "q", false,
		"Suppress non-error human output (shorthand)")

	fs.BoolVar(&args.Yes, "yes", false,
		"Skip the interactive confirmation prompt")
	fs.BoolVar(&args.Yes, "no-confirm", false,
		"Alias for --yes")

	fs.BoolVar(&args.JSON, "json", false,
		"Emit the final report as machine-readable JSON")

	fs.BoolVar(&args.Status, "status", false,
		"Show the backup status dashboard (Prometheus-backed) instead of running")

	fs.BoolVar(&args.ShowVersion, "version", false,
		"Show version information")

	fs.BoolVar(&args.ShowHelp, "help", false,
		"Show help message")
	fs.BoolVar(&args.ShowHelp, "h", false,
		"Show help message (shorthand)")

	fs.Usage = func() {
		printHelp(w, argv0, fs)
	}

	if err := fs.Parse(arguments); err != nil {
		return nil, err
	}

	args.ConfigPath = configFlag.value
	if configFlag.set {
		args.ConfigPathSource = configSourceFlag
	} else {
		args.ConfigPathSource = configSourceDefault
	}

	// Parse log level if provided; --verbose/--quiet take effect only when
	// no explicit level was given.
	switch {
	case logLevelStr != "":
		args.LogLevel = parseLogLevel(logLevelStr)
	case args.Verbose:
		args.LogLevel = types.LogLevelDebug
	case args.Quiet:
		args.LogLevel = types.LogLevelError
	default:
		args.LogLevel = types.LogLevelNone // Will be overridden by config
	}

	return args, nil
}

// parseLogLevel converts string to LogLevel
func parseLogLevel(s string) types.LogLevel {
	switch s {
	case "debug", "5":
		return types.LogLevelDebug
	case "info", "4":
		return types.LogLevelInfo
	case "warning", "3":
		return types.LogLevelWarning
	case "error", "2":
		return types.LogLevelError
	case "critical", "1":
		return types.LogLevelCritical
	case "none", "0":
		return types.LogLevelNone
	default:
		return types.LogLevelInfo
	}
}

// ShowHelp displays the help message on stderr.
func ShowHelp() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	printHelp(os.Stderr, os.Args[0], fs)
}

// ShowVersion displays version information.
func ShowVersion(version string) {
	printVersion(os.Stdout, version)
}

func printHelp(w io.Writer, argv0 string, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s [options]\n\n", argv0)
	fmt.Fprintln(w, "Pre-deployment backup orchestrator: triggers the host's snapshot,")
	fmt.Fprintln(w, "replication, database and file backup units in order and reports a verdict.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0   all executed units succeeded")
	fmt.Fprintln(w, "  1   partial failure (failure rate <= 50%)")
	fmt.Fprintln(w, "  2   critical (preflight, discovery, zero executed, or rate > 50%)")
	fmt.Fprintln(w, "  130 interrupted")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  %s --yes\n", argv0)
	fmt.Fprintf(w, "  %s --dry-run --log-level debug\n", argv0)
	fmt.Fprintf(w, "  %s --json --yes\n", argv0)
	fmt.Fprintf(w, "  %s --status\n", argv0)
}

func printVersion(w io.Writer, version string) {
	fmt.Fprintln(w, "backupctl")
	fmt.Fprintf(w, "Version: %s\n", version)
}

type stringFlag struct {
	value string
	set   bool
}

func newStringFlag(defaultValue string) *stringFlag {
	return &stringFlag{value: defaultValue}
}

func (s *stringFlag) String() string {
	return s.value
}

func (s *stringFlag) Set(val string) error {
	s.value = val
	s.set = true
	return nil
}
