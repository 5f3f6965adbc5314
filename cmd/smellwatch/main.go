package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"smellwatch/internal/config"
	"smellwatch/internal/shared/observability"
	"smellwatch/internal/watcher"
)

var (
	configPath = flag.String("config", "./smellwatch.toml", "Path to config file")
	format     = flag.String("format", "text", "Output format: text, json or sarif")
	watch      = flag.Bool("watch", false, "Re-run analysis when watched files change")
	metricsOn  = flag.String("metrics", "", "Serve /metrics and /health on this address in watch mode (e.g. :9090)")
	histLimit  = flag.Int("history", 0, "Print the last N recorded runs and exit")
	histPath   = flag.String("history-db", "", "Record run snapshots in this sqlite file (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")

	noLogCheck       = flag.Bool("no-log-check", false, "Disable the excessive logging rule")
	noGodClass       = flag.Bool("no-god-class", false, "Disable the god class rule")
	noDupCheck       = flag.Bool("no-dup-check", false, "Disable duplicate block detection")
	noLongMethod     = flag.Bool("no-long-method", false, "Disable the long method rule")
	noDeadCode       = flag.Bool("no-dead-code", false, "Disable dead code detection")
	noMutableDefault = flag.Bool("no-mutable-default", false, "Disable the mutable default rule")

	maxMethods       = flag.Int("max-methods", 0, "Override max methods per class")
	maxCC            = flag.Int("max-cc", 0, "Override max class cyclomatic complexity")
	maxLOC           = flag.Int("max-loc", 0, "Override max class lines")
	dupSimilarity    = flag.Float64("dup-similarity", 0, "Override duplicate similarity threshold (0..1)")
	dupMinStatements = flag.Int("dup-min-statements", 0, "Override minimum duplicate block statements")
	methodMaxLOC     = flag.Int("method-max-loc", 0, "Override max method lines")
	maxCyclomatic    = flag.Int("max-cyclomatic", 0, "Override max method cyclomatic complexity")
	maxLogCalls      = flag.Int("max-log-calls", 0, "Override max logging calls per function")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("smellwatch v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	app, err := NewApp(cfg, paths, *format)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if *histLimit > 0 {
		if err := app.PrintHistory(os.Stdout, *histLimit); err != nil {
			slog.Error("failed to read history", "error", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	rep, err := app.Run(ctx, os.Stdout)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	if !*watch {
		if len(rep.Findings) > 0 {
			os.Exit(2)
		}
		os.Exit(0)
	}

	if *metricsOn != "" {
		srv := observability.NewServer(*metricsOn)
		if err := srv.Start(); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(1)
		}
		defer srv.Stop(ctx)
	}

	w, err := watcher.New(500*time.Millisecond, cfg.Exclude, func() {
		if _, err := app.Run(ctx, os.Stdout); err != nil {
			slog.Error("analysis failed", "error", err)
		}
	})
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := w.Watch(paths); err != nil {
		slog.Error("failed to watch paths", "paths", paths, "error", err)
		os.Exit(1)
	}

	slog.Info("watching for changes", "paths", paths)
	select {}
}

// applyFlags layers explicit command line overrides on top of the file
// configuration. A zero-valued threshold flag means "keep the config".
func applyFlags(cfg *config.Config) {
	if *noLogCheck {
		cfg.Rules.LogCheck = false
	}
	if *noGodClass {
		cfg.Rules.GodClass = false
	}
	if *noDupCheck {
		cfg.Rules.DupCheck = false
	}
	if *noLongMethod {
		cfg.Rules.LongMethod = false
	}
	if *noDeadCode {
		cfg.Rules.DeadCode = false
	}
	if *noMutableDefault {
		cfg.Rules.MutableDefault = false
	}
	if *histPath != "" {
		cfg.History.Path = *histPath
	}

	t := &cfg.Thresholds
	if *maxMethods > 0 {
		t.MaxMethods = *maxMethods
	}
	if *maxCC > 0 {
		t.MaxCC = *maxCC
	}
	if *maxLOC > 0 {
		t.MaxLOC = *maxLOC
	}
	if *dupSimilarity > 0 {
		t.DupSimilarity = *dupSimilarity
	}
	if *dupMinStatements > 0 {
		t.DupMinStatements = *dupMinStatements
	}
	if *methodMaxLOC > 0 {
		t.MethodMaxLOC = *methodMaxLOC
	}
	if *maxCyclomatic > 0 {
		t.MaxCyclomatic = *maxCyclomatic
	}
	if *maxLogCalls > 0 {
		t.MaxLogCalls = *maxLogCalls
	}
}
