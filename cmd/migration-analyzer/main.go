package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/migration-analyzer/pkg/analyzer"
	"github.com/ritzau/migration-analyzer/pkg/config"
	"github.com/ritzau/migration-analyzer/pkg/logging"
	"github.com/ritzau/migration-analyzer/pkg/model"
	"github.com/ritzau/migration-analyzer/pkg/output"
	"github.com/ritzau/migration-analyzer/pkg/watcher"
)

func main() {
	f := pflag.NewFlagSet("migration-analyzer", pflag.ExitOnError)
	f.String("source_root", ".", "Path to the legacy source tree")
	f.String("rule_catalog", "", "Path to a TOML rule catalog (empty = built-in defaults)")
	f.Float64("auto_threshold", 0.2, "Risk score below which a unit counts as auto-migratable")
	f.Float64("high_risk_floor", 0.5, "Risk score at or above which a unit is ranked high-risk")
	f.Int("worker_count", 0, "Indexer worker pool size (0 = number of CPUs)")
	f.String("report_out", "migration-report.json", "Report output path ('-' for stdout)")
	f.Bool("summary", false, "Print a colorized summary to the console")
	f.Bool("watch", false, "Re-run the analysis when source files change")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Bool("json_logs", false, "Emit JSON logs instead of console format")
	_ = f.Parse(os.Args[1:])

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runOnce(ctx, cfg); err != nil {
		exitOnError(err)
	}

	if cfg.Watch {
		if err := watchLoop(ctx, cfg); err != nil {
			exitOnError(err)
		}
	}
}

func runOnce(ctx context.Context, cfg *config.Config) error {
	report, err := analyzer.Analyze(ctx, cfg)
	if err != nil {
		return err
	}
	if err := writeReport(report, cfg.ReportOut); err != nil {
		return err
	}
	if cfg.Summary {
		output.PrintSummary(report)
	}
	return nil
}

func watchLoop(ctx context.Context, cfg *config.Config) error {
	w, err := watcher.New(cfg.SourceRoot, cfg.FileSuffixes)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	deb := watcher.NewDebouncer(w.Events(), 500*time.Millisecond, 5*time.Second)
	deb.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-deb.Output():
			if !ok {
				return nil
			}
			logging.Info("source changed, re-running analysis", "changedPaths", len(event.Paths))
			if err := runOnce(ctx, cfg); err != nil {
				if errors.Is(err, &model.CancelledError{}) {
					return nil
				}
				// A broken intermediate state is normal while editing; keep
				// watching
				logging.Error("re-analysis failed", "error", err)
			}
		}
	}
}

func writeReport(report *model.MigrationReport, path string) error {
	data, err := report.Marshal()
	if err != nil {
		return fmt.Errorf("serializing report: %w", err)
	}
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	logging.Info("report written", "path", path, "bytes", len(data))
	return nil
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch {
	case cfg.Verbose >= 2:
		level = slog.LevelDebug - 4
	case cfg.Verbose == 1:
		level = slog.LevelDebug
	}
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}
}

func exitOnError(err error) {
	var cancelled *model.CancelledError
	switch {
	case errors.As(err, &cancelled):
		fmt.Fprintf(os.Stderr, "Cancelled after indexing %d unit(s); no report written\n", len(cancelled.Partial))
		os.Exit(130)
	case errors.Is(err, model.ErrRootNotFound):
		fmt.Fprintln(os.Stderr, "Error: source root does not exist")
		os.Exit(2)
	case errors.Is(err, model.ErrPermissionDenied):
		fmt.Fprintln(os.Stderr, "Error: source root is not readable")
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
