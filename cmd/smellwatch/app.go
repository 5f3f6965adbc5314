package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"smellwatch/internal/config"
	"smellwatch/internal/data/history"
	"smellwatch/internal/engine/analyzer"
	"smellwatch/internal/scanner"
	"smellwatch/internal/ui/report"
)

// App wires the scanner, the engine and the optional history store for
// a sequence of runs over the same paths.
type App struct {
	cfg     *config.Config
	paths   []string
	format  string
	scanner *scanner.Scanner
	engine  *analyzer.Engine
	store   *history.Store
}

func NewApp(cfg *config.Config, paths []string, format string) (*App, error) {
	s, err := scanner.New(cfg.Exclude)
	if err != nil {
		return nil, err
	}
	engine, err := analyzer.New(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:     cfg,
		paths:   paths,
		format:  format,
		scanner: s,
		engine:  engine,
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		app.store = store
	}

	return app, nil
}

// Run performs one scan-analyze-report cycle and returns the report for
// exit-code decisions.
func (a *App) Run(ctx context.Context, out io.Writer) (*analyzer.Report, error) {
	inputs, err := a.scanner.Collect(a.paths)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		slog.Warn("no python sources found", "paths", a.paths)
	}

	rep, err := a.engine.Analyze(ctx, inputs)
	if err != nil {
		return nil, err
	}

	if err := a.write(out, rep); err != nil {
		return nil, err
	}

	if a.store != nil {
		snap := history.Snapshot{
			RunID:        rep.RunID,
			Timestamp:    rep.StartedAt,
			UnitCount:    rep.Units,
			SkippedCount: len(rep.Skipped),
			FindingCount: len(rep.Findings),
			ByRule:       rep.Summary,
		}
		if err := a.store.SaveSnapshot(snap); err != nil {
			slog.Error("failed to persist run snapshot", "run_id", rep.RunID, "error", err)
		}
	}

	return rep, nil
}

func (a *App) write(out io.Writer, rep *analyzer.Report) error {
	switch a.format {
	case "text":
		return report.WriteText(out, rep)
	case "json":
		return report.WriteJSON(out, rep)
	case "sarif":
		return report.WriteSARIF(out, rep)
	default:
		return fmt.Errorf("unknown output format %q", a.format)
	}
}

// PrintHistory dumps the most recent persisted runs to stderr-friendly
// plain text.
func (a *App) PrintHistory(out io.Writer, limit int) error {
	if a.store == nil {
		return fmt.Errorf("history is not configured; set history.path in the config file")
	}
	snapshots, err := a.store.Recent(limit)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(out, "no recorded runs")
		return nil
	}
	for _, snap := range snapshots {
		fmt.Fprintf(out, "%s  run=%s units=%d skipped=%d findings=%d\n",
			snap.Timestamp.Local().Format("2006-01-02 15:04:05"),
			snap.RunID, snap.UnitCount, snap.SkippedCount, snap.FindingCount)
	}
	return nil
}

func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing history store: %v\n", err)
		}
	}
}
