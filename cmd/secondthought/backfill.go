package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/MikeSquared-Agency/secondthought/internal/analyzer"
	"github.com/MikeSquared-Agency/secondthought/internal/backfill"
	"github.com/MikeSquared-Agency/secondthought/internal/config"
	"github.com/MikeSquared-Agency/secondthought/internal/slack"
	"github.com/MikeSquared-Agency/secondthought/internal/store"
)

// runBackfill analyzes a directory of exported JSONL chat logs and returns
// the process exit code.
func runBackfill(ctx context.Context, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	bcfg := backfill.Config{AlertBelow: cfg.AlertTrustBelow}
	fs.StringVar(&bcfg.Dir, "dir", "", "directory of .jsonl chat logs")
	fs.StringVar(&bcfg.SingleFile, "file", "", "analyze a single .jsonl file")
	fs.StringVar(&bcfg.StatePath, "state", backfill.DefaultStatePath, "progress file for resumable runs")
	fs.BoolVar(&bcfg.DryRun, "dry-run", false, "analyze without persisting or alerting")
	fs.IntVar(&bcfg.MinMessages, "min-messages", 2, "skip logs with fewer messages")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := slog.Default()
	gen, _, provider := buildProviders(cfg)
	risk := analyzer.New(gen, logger, analyzer.WithProviderName(provider))

	var assessments backfill.AssessmentStore
	if cfg.DatabaseURL != "" && !bcfg.DryRun {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			slog.Error("failed to migrate database", "error", err)
			return 1
		}
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			return 1
		}
		defer db.Close()
		assessments = db
	} else if !bcfg.DryRun {
		slog.Warn("DATABASE_URL not set, assessments will only be logged")
	}

	var alerter backfill.Alerter
	if cfg.SlackBotToken != "" && cfg.SlackAlertChannel != "" {
		alerter = slack.NewPoster(cfg.SlackBotToken, cfg.SlackAlertChannel, logger)
	}

	sum, err := backfill.NewRunner(bcfg, risk, assessments, alerter, logger).Run(ctx)
	if err != nil {
		slog.Error("backfill failed", "error", err, "analyzed", sum.Analyzed)
		return 1
	}
	return 0
}
