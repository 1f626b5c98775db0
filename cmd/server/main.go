package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/ai"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/auth"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/config"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/db"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/email"
	httpapi "github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/http"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/jobs"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/notify"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/realtime"
	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/storage"
)

const version = "2.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "autoassist-desk").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.New(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	initCtx, cancelInit := context.WithTimeout(ctx, 30*time.Second)
	if err := store.Init(initCtx); err != nil {
		logger.Error().Err(err).Msg("database init incomplete")
	}
	cancelInit()

	files, err := storage.New(cfg.UploadFolder)
	if err != nil {
		logger.Fatal().Err(err).Str("folder", cfg.UploadFolder).Msg("failed to prepare upload folder")
	}

	sessions, err := auth.NewSessions(cfg.SecretKey, cfg.SessionTTL, cfg.IsProduction())
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid session configuration")
	}

	hub := realtime.NewHub(logger)
	go func() {
		if err := hub.RunWithContext(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("realtime hub stopped")
		}
	}()

	notifier := notify.New(notify.Options{
		URL:        cfg.WebhookURL,
		Timeout:    cfg.WebhookTimeout,
		Retries:    cfg.WebhookRetries,
		RetryDelay: cfg.WebhookDelay,
		Logger:     logger,
	})
	if !notifier.Configured() {
		logger.Warn().Msg("WEBHOOK_URL not set, replies go out over SMTP")
	}

	mailer := email.NewSender(email.Config{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		Username: cfg.EmailUsername,
		Password: cfg.EmailPassword,
		UseTLS:   cfg.EmailUseTLS,
		From:     cfg.EmailFrom,
	}, files, logger)

	var adapter ai.Adapter
	if cfg.AIURL == "" || cfg.AIModel == "" {
		adapter = ai.MockAdapter{}
		logger.Info().Msg("using mock AI adapter")
	} else {
		adapter = ai.NewHTTPAdapter(cfg.AIURL, cfg.AIModel, cfg.AIAPIKey)
	}

	scheduler, err := jobs.New(store, store, notifier.Status, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule jobs")
	}
	scheduler.Start()

	router := httpapi.Router(cfg, httpapi.Deps{
		Store:    store,
		Files:    files,
		Sessions: sessions,
		Hub:      hub,
		Notifier: notifier,
		Mailer:   mailer,
		AI:       adapter,
		Version:  version,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	scheduler.Stop(ctxShutdown)
	logger.Info().Msg("server stopped")
}
