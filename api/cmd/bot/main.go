package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/catalog"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/config"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/grader"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/grader/gemini"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/grader/openai"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/httpserver"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/logger"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/messages"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/quiz"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/session"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/store"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/telegram"
)

// drainGrace covers sending the result after the last grading call times out.
const drainGrace = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("bot stopped", "error", err)
	}
	log.Info("bot stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	msgs, err := messages.For(cfg.Language)
	if err != nil {
		return err
	}

	dishes, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", cfg.CatalogPath, err)
	}
	log.Info("catalog loaded", "path", cfg.CatalogPath, "dishes", dishes.Len())

	// --- Grading engines ---
	var engines grader.Engines
	if cfg.OpenAIAPIKey != "" {
		engines.OpenAI = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	if cfg.GeminiAPIKey != "" {
		gm, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("gemini: %w", err)
		}
		defer gm.Close()
		engines.Gemini = gm
	}
	def, err := engines.Get(cfg.GraderEngine)
	if err != nil {
		return err
	}
	if def == nil {
		return fmt.Errorf("grader engine %q is not configured", cfg.GraderEngine)
	}
	backends := grader.NewManager(def)
	log.Info("grader ready", "engine", def.Name(), "model", def.GetModel(), "timeout", cfg.GradeTimeout)

	// --- Postgres (optional) ---
	var (
		recorder quiz.Recorder
		pinger   httpserver.Pinger
	)
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func(db *sql.DB) { _ = db.Close() }(db)
		repo := store.NewAttemptRepo(db)
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		log.Info("db connected", "dsn", store.SafeDSNSummary(cfg.DatabaseURL))
		recorder, pinger = repo, repo
	}

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false
	log.Info("authorized", "bot", bot.Self.UserName)

	ctrl := quiz.NewController(quiz.Deps{
		Catalog:  dishes,
		Sessions: session.NewStore(),
		Grader:   grader.New(backends, cfg.GradeTimeout, msgs.GradingFailed, log),
		Sender:   &telegram.Sender{Bot: bot},
		Messages: msgs,
		Recorder: recorder,
		Log:      log,
		Engines:  engines,
		Backends: backends,
	})
	router := &telegram.Router{Quiz: ctrl, NextLabel: msgs.NextButton, Log: log}
	dispatch := router.Dispatch(ctx)

	mux := httpserver.NewMux(dishes.Len(), pinger)
	addr := "0.0.0.0:" + cfg.Port

	g, gctx := errgroup.WithContext(ctx)
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		path := telegram.WebhookPath(bot.Token)
		wh, err := tgbotapi.NewWebhook(strings.TrimRight(webhookURL, "/") + path)
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		wh.DropPendingUpdates = true
		if _, err := bot.Request(wh); err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		mux.Handle(path, telegram.WebhookHandler(bot, log, dispatch))
		log.Info("webhook mode", "addr", addr)
	} else {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.Warn("delete webhook failed", "error", err)
		}
		poller := telegram.NewPoller(bot, log)
		g.Go(func() error {
			poller.Run(gctx, dispatch)
			return nil
		})
		log.Info("polling mode")
	}
	g.Go(func() error { return httpserver.Serve(gctx, addr, mux, log) })

	err = g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.GradeTimeout+drainGrace)
	defer cancel()
	log.Info("draining in-flight updates", "timeout", cfg.GradeTimeout+drainGrace)
	if derr := router.Drain(drainCtx); derr != nil {
		log.Warn("shutdown before all updates were handled", "error", derr)
	}
	return err
}
