package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/secondthought/internal/analyzer"
	"github.com/MikeSquared-Agency/secondthought/internal/anthropic"
	"github.com/MikeSquared-Agency/secondthought/internal/api"
	"github.com/MikeSquared-Agency/secondthought/internal/chat"
	"github.com/MikeSquared-Agency/secondthought/internal/config"
	"github.com/MikeSquared-Agency/secondthought/internal/hermes"
	"github.com/MikeSquared-Agency/secondthought/internal/llm"
	"github.com/MikeSquared-Agency/secondthought/internal/manipulation"
	"github.com/MikeSquared-Agency/secondthought/internal/metrics"
	"github.com/MikeSquared-Agency/secondthought/internal/openai"
	"github.com/MikeSquared-Agency/secondthought/internal/processor"
	"github.com/MikeSquared-Agency/secondthought/internal/recovery"
	"github.com/MikeSquared-Agency/secondthought/internal/slack"
	"github.com/MikeSquared-Agency/secondthought/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "backfill" {
		os.Exit(runBackfill(ctx, cfg, os.Args[2:]))
	}

	slog.Info("secondthought starting", "port", cfg.Port)

	logger := slog.Default()
	m := metrics.New()

	gen, completer, provider := buildProviders(cfg)

	// Storage
	var (
		assessments interface {
			api.AssessmentStore
			processor.AssessmentStore
		}
		conversations chat.ConversationStore
		database      api.Pinger
		storage       = "memory"
	)
	if cfg.DatabaseURL != "" {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		assessments, conversations, database, storage = db, db, db, "postgres"
		slog.Info("database connected")
	} else {
		mem := store.NewMemoryStore()
		assessments, conversations = mem, mem
		slog.Warn("DATABASE_URL not set, keeping results in memory")
	}

	risk := analyzer.New(gen, logger, analyzer.WithMetrics(m), analyzer.WithProviderName(provider))
	pipeline := recovery.New(gen, recovery.NewHTTPFetcher(nil), logger,
		recovery.WithMaxHTMLChars(cfg.MaxHTMLChars),
		recovery.WithMetrics(m),
		recovery.WithProviderName(provider),
	)
	replies := manipulation.New(completer, logger, manipulation.WithMetrics(m), manipulation.WithProviderName(provider))
	chatService := chat.NewService(conversations, completer, replies, logger)

	// NATS intake (optional)
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := hermesClient.Drain(); err != nil {
				slog.Warn("NATS drain failed", "error", err)
				hermesClient.Close()
			}
		}()
		slog.Info("NATS connected", "url", cfg.NatsURL)

		opts := []processor.Option{processor.WithStore(assessments)}
		if cfg.SlackBotToken != "" && cfg.SlackAlertChannel != "" {
			poster := slack.NewPoster(cfg.SlackBotToken, cfg.SlackAlertChannel, logger)
			opts = append(opts, processor.WithAlerter(poster, cfg.AlertTrustBelow))
			slog.Info("slack alerts ready", "channel", cfg.SlackAlertChannel, "trust_below", cfg.AlertTrustBelow)
		} else {
			slog.Warn("slack not configured, running without alerts")
		}

		proc := processor.New(risk, pipeline, hermesClient, logger, opts...)
		if err := hermesClient.Subscribe(hermes.SubjectTranscriptSubmitted, proc.HandleTranscriptSubmitted); err != nil {
			slog.Error("failed to subscribe to transcript events", "error", err)
			os.Exit(1)
		}
	}

	srv := api.NewServer(cfg.Port, cfg.APIToken, api.Deps{
		Analyzer:    risk,
		Recovery:    pipeline,
		Chat:        chatService,
		Assessments: assessments,
		Database:    database,
		Metrics:     m,
		Provider:    provider,
		Mode:        risk.Mode(),
		Storage:     storage,
		Logger:      logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("secondthought ready", "port", cfg.Port, "provider", provider, "mode", risk.Mode(), "storage", storage)

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("secondthought stopped")
}

// buildProviders resolves the language model once. With none configured
// both returns are nil: risk analysis runs heuristic-only and recovery and
// chat report the missing configuration.
func buildProviders(cfg config.Config) (llm.Generator, llm.Completer, string) {
	provider := cfg.Provider()
	switch provider {
	case config.ProviderOpenAI:
		slog.Info("openai client ready", "analysis_model", cfg.AnalysisModel, "chat_model", cfg.ChatModel)
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.AnalysisModel, openai.WithBaseURL(cfg.OpenAIBaseURL)),
			openai.NewClient(cfg.OpenAIAPIKey, cfg.ChatModel, openai.WithBaseURL(cfg.OpenAIBaseURL)),
			provider
	case config.ProviderAnthropic:
		c := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		slog.Info("anthropic client ready", "model", cfg.AnthropicModel)
		return c, c, provider
	}
	slog.Warn("no language model configured, running heuristic-only")
	return nil, nil, provider
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
