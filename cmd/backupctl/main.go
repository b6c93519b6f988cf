// Command backupctl runs the pre-deployment backup pipeline: it triggers
// the host's snapshot, replication, database and file backup units in a
// fixed stage order, supervises them with per-stage timeouts, and reports
// a machine-readable verdict through its exit code.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/term"

	"github.com/holthome/backupctl/internal/checks"
	"github.com/holthome/backupctl/internal/cli"
	"github.com/holthome/backupctl/internal/config"
	"github.com/holthome/backupctl/internal/input"
	"github.com/holthome/backupctl/internal/logging"
	"github.com/holthome/backupctl/internal/metrics"
	"github.com/holthome/backupctl/internal/notify"
	"github.com/holthome/backupctl/internal/orchestrator"
	"github.com/holthome/backupctl/internal/status"
	"github.com/holthome/backupctl/internal/systemd"
	"github.com/holthome/backupctl/internal/types"
	"github.com/holthome/backupctl/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	args, err := cli.Parse(os.Stderr, os.Args[0], os.Args[1:])
	if err != nil {
		return types.ExitCritical.Int()
	}

	if args.ShowHelp {
		cli.ShowHelp()
		return types.ExitSuccess.Int()
	}
	if args.ShowVersion {
		cli.ShowVersion(version.Full())
		return types.ExitSuccess.Int()
	}

	cfg, err := config.LoadConfig(args.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return types.ExitCritical.Int()
	}

	logLevel := cfg.LogLevel
	if args.LogLevel != types.LogLevelNone {
		logLevel = args.LogLevel
	}
	useColor := cfg.UseColor && term.IsTerminal(int(os.Stdout.Fd()))
	logger := logging.New(logLevel, useColor)
	// Human logs go to stderr so stdout stays clean for --json output.
	logger.SetOutput(os.Stderr)

	// Ctrl+C cancels the run context; closing stdin unblocks any pending
	// interactive read so the prompt goroutine cannot leak.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closeStdinOnce sync.Once
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warning("Received %s, stopping active units before exit", sig)
		cancel()
		closeStdinOnce.Do(func() { os.Stdin.Close() })
	}()
	defer signal.Stop(sigChan)

	if args.Status {
		return runStatus(ctx, logger, cfg, args)
	}

	logger.Info("backupctl %s (config: %s, %s)", version.String(), args.ConfigPath, args.ConfigPathSource)
	if args.DryRun {
		logger.Info("Dry run: no unit will be started or stopped")
	}

	if !args.Yes && !args.DryRun {
		if !input.IsTerminal() {
			fmt.Fprintln(os.Stderr, "Refusing to run without confirmation on a non-interactive stdin (use --yes)")
			return types.ExitCritical.Int()
		}
		reader := bufio.NewReader(os.Stdin)
		ok, err := input.Confirm(ctx, os.Stderr, reader, "Run the full backup pipeline now?")
		if err != nil {
			if input.IsAborted(err) {
				return types.ExitInterrupted.Int()
			}
			fmt.Fprintf(os.Stderr, "Confirmation failed: %v\n", err)
			return types.ExitCritical.Int()
		}
		if !ok {
			logger.Info("Aborted by operator")
			return types.ExitSuccess.Int()
		}
	}

	source, err := systemd.NewDBusSource(ctx)
	if err != nil {
		logger.Critical("Cannot reach the service manager: %v", err)
		return types.ExitCritical.Int()
	}
	defer source.Close()

	orch := orchestrator.New(logger, cfg, source, args.DryRun)
	orch.SetChecker(checks.NewChecker(logger, cfg.PreflightTargets, args.DryRun))

	report := orch.Run(ctx)

	if args.JSON {
		if err := report.WriteJSON(os.Stdout); err != nil {
			logger.Error("Cannot write JSON report: %v", err)
		}
	} else if !args.Quiet {
		orchestrator.WriteSummary(os.Stdout, orch.Registry(), report)
	}

	publish(ctx, logger, cfg, args, report)

	return report.ExitCode
}

// publish exports metrics and sends the webhook notification. Neither may
// alter the run's exit code, and neither runs for a dry run.
func publish(ctx context.Context, logger *logging.Logger, cfg *config.Config, args *cli.Args, report *orchestrator.RunReport) {
	if args.DryRun {
		return
	}

	hostname, _ := os.Hostname()

	if cfg.MetricsPath != "" {
		exporter := metrics.NewPrometheusExporter(cfg.MetricsPath, logger)
		err := exporter.Export(&metrics.RunMetrics{
			Hostname:           hostname,
			StartTime:          report.StartedAt,
			EndTime:            report.FinishedAt,
			ExitCode:           report.ExitCode,
			TotalServices:      report.TotalServices,
			Successful:         report.Successful,
			Failed:             report.Failed,
			TimedOut:           report.TimedOut,
			Skipped:            report.Skipped,
			FailureRatePercent: report.FailureRatePercent,
		})
		if err != nil {
			logger.Warning("Metrics export failed: %v", err)
		}
	}

	notifier, err := notify.NewWebhookNotifier(cfg.WebhookURL, logger)
	if err != nil {
		logger.Warning("Webhook disabled: %v", err)
		return
	}
	if notifier.IsEnabled() {
		if err := notifier.Send(ctx, hostname, types.ExitCode(report.ExitCode).String(), report); err != nil {
			logger.Debug("Webhook notification not delivered: %v", err)
		}
	}
}

// runStatus renders the Prometheus-backed backup health dashboard instead
// of running the pipeline.
func runStatus(ctx context.Context, logger *logging.Logger, cfg *config.Config, args *cli.Args) int {
	client := status.NewClient(cfg.PrometheusURL, cfg.PrometheusAPIKey)

	rows, err := status.Collect(ctx, client)
	if err != nil {
		logger.Error("Cannot collect backup status: %v", err)
		return types.ExitCritical.Int()
	}
	if len(rows) == 0 {
		logger.Warning("No backup metrics found in Prometheus at %s", cfg.PrometheusURL)
		return types.ExitPartial.Int()
	}

	switch {
	case args.JSON:
		if err := status.WriteJSON(os.Stdout, rows); err != nil {
			logger.Error("Cannot write status JSON: %v", err)
			return types.ExitCritical.Int()
		}
	case args.Quiet || !term.IsTerminal(int(os.Stdout.Fd())):
		status.WritePlain(os.Stdout, rows)
	default:
		if err := status.ShowTUI(rows); err != nil {
			// Fall back to the plain table when the terminal cannot host
			// the full-screen view.
			status.WritePlain(os.Stdout, rows)
		}
	}

	return types.ExitSuccess.Int()
}
