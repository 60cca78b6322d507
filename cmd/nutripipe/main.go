// Command nutripipe runs the full nutrition transformation pipeline once:
// ingest the raw USDA files, stage, join, pivot, resolve the mart, and
// publish the result as CSV, Excel and SQLite.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"nutripipe/internal/config"
	"nutripipe/internal/exporter"
	"nutripipe/internal/infrastructure"
	"nutripipe/internal/pipeline"
	"nutripipe/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	inDir := flag.String("in", "", "input directory for raw USDA files (overrides config)")
	outDir := flag.String("out", "", "output directory for published files (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *inDir != "" {
		cfg.Inputs.Dir = *inDir
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Pipeline run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	snapshots := pipeline.NewSnapshotStore()
	metrics := pipeline.NewMetrics(prometheus.NewRegistry())
	runner := pipeline.NewRunner(snapshots, metrics, logger, pipeline.DefaultStages(cfg, metrics)...)

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	for _, sr := range report.Stages {
		logger.Info("stage summary",
			slog.String("stage", sr.StageID),
			slog.Duration("duration", sr.Duration))
	}

	profiles, err := pipeline.Profiles(snapshots)
	if err != nil {
		return err
	}
	stats, err := pipeline.CategoryStats(snapshots)
	if err != nil {
		return err
	}

	martExporter := exporter.NewMartExporter(cfg.Output.Dir, cfg.Output.BOMPrefix)
	if err := martExporter.ExportProfiles("food_nutrition_profile.csv", profiles); err != nil {
		return err
	}
	if err := martExporter.ExportCategoryStats("category_stats.csv", stats); err != nil {
		return err
	}
	if err := exporter.NewExcelExporter(cfg.Output.Dir).ExportWorkbook(cfg.Output.ExcelFile, profiles, stats); err != nil {
		return err
	}

	db, err := store.Open(cfg.Output.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PublishProfiles(ctx, profiles); err != nil {
		return err
	}
	if err := db.PublishCategoryStats(ctx, stats); err != nil {
		return err
	}

	logger.Info("mart published",
		slog.Int("profiles", len(profiles)),
		slog.Int("categories", len(stats)),
		slog.String("database", cfg.Output.SQLitePath))
	return nil
}
