package cli

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/holthome/backupctl/internal/types"
)

func parseArgs(t *testing.T, arguments ...string) *Args {
	t.Helper()
	var buf bytes.Buffer
	args, err := Parse(&buf, "backupctl", arguments)
	if err != nil {
		t.Fatalf("Parse(%v) failed: %v (output: %s)", arguments, err, buf.String())
	}
	return args
}

func TestParseDefaults(t *testing.T) {
	args := parseArgs(t)

	if args.ConfigPath != defaultConfigPath {
		t.Errorf("ConfigPath = %q, want %q", args.ConfigPath, defaultConfigPath)
	}
	if args.ConfigPathSource != configSourceDefault {
		t.Errorf("ConfigPathSource = %q, want %q", args.ConfigPathSource, configSourceDefault)
	}
	if args.DryRun || args.Verbose || args.Quiet || args.Yes || args.JSON || args.Status {
		t.Errorf("unexpected flag set in defaults: %+v", args)
	}
	if args.LogLevel != types.LogLevelNone {
		t.Errorf("LogLevel = %v, want None (defer to config)", args.LogLevel)
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name      string
		arguments []string
		check     func(t *testing.T, args *Args)
	}{
		{
			name:      "config long flag",
			arguments: []string{"--config", "/tmp/test.env"},
			check: func(t *testing.T, args *Args) {
				if args.ConfigPath != "/tmp/test.env" {
					t.Errorf("ConfigPath = %q", args.ConfigPath)
				}
				if args.ConfigPathSource != configSourceFlag {
					t.Errorf("ConfigPathSource = %q", args.ConfigPathSource)
				}
			},
		},
		{
			name:      "config shorthand",
			arguments: []string{"-c", "/tmp/short.env"},
			check: func(t *testing.T, args *Args) {
				if args.ConfigPath != "/tmp/short.env" {
					t.Errorf("ConfigPath = %q", args.ConfigPath)
				}
			},
		},
		{
			name:      "dry run shorthand",
			arguments: []string{"-n"},
			check: func(t *testing.T, args *Args) {
				if !args.DryRun {
					t.Error("DryRun not set")
				}
			},
		},
		{
			name:      "verbose sets debug level",
			arguments: []string{"--verbose"},
			check: func(t *testing.T, args *Args) {
				if args.LogLevel != types.LogLevelDebug {
					t.Errorf("LogLevel = %v, want debug", args.LogLevel)
				}
			},
		},
		{
			name:      "quiet sets error level",
			arguments: []string{"-q"},
			check: func(t *testing.T, args *Args) {
				if args.LogLevel != types.LogLevelError {
					t.Errorf("LogLevel = %v, want error", args.LogLevel)
				}
			},
		},
		{
			name:      "explicit log level wins over verbose",
			arguments: []string{"--verbose", "--log-level", "warning"},
			check: func(t *testing.T, args *Args) {
				if args.LogLevel != types.LogLevelWarning {
					t.Errorf("LogLevel = %v, want warning", args.LogLevel)
				}
			},
		},
		{
			name:      "no-confirm aliases yes",
			arguments: []string{"--no-confirm"},
			check: func(t *testing.T, args *Args) {
				if !args.Yes {
					t.Error("Yes not set by --no-confirm")
				}
			},
		},
		{
			name:      "json and status",
			arguments: []string{"--json", "--status"},
			check: func(t *testing.T, args *Args) {
				if !args.JSON || !args.Status {
					t.Errorf("JSON=%v Status=%v", args.JSON, args.Status)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, parseArgs(t, tt.arguments...))
		})
	}
}

func TestParseUnknownFlag(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Parse(&buf, "backupctl", []string{"--bogus"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestHelpListsExitCodes(t *testing.T) {
	args := parseArgs(t, "--help")
	if !args.ShowHelp {
		t.Error("ShowHelp not set")
	}

	var buf bytes.Buffer
	printHelp(&buf, "backupctl", flag.NewFlagSet("backupctl", flag.ContinueOnError))
	out := buf.String()
	for _, want := range []string{"Usage: backupctl", "Exit codes:", "130 interrupted"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected types.LogLevel
	}{
		{"debug", types.LogLevelDebug},
		{"info", types.LogLevelInfo},
		{"warning", types.LogLevelWarning},
		{"error", types.LogLevelError},
		{"critical", types.LogLevelCritical},
		{"none", types.LogLevelNone},
		{"5", types.LogLevelDebug},
		{"0", types.LogLevelNone},
		{"garbage", types.LogLevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf, "1.2.3")
	out := buf.String()
	if !strings.Contains(out, "backupctl") || !strings.Contains(out, "1.2.3") {
		t.Errorf("unexpected version output: %q", out)
	}
}
