package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/luisvx/inboxcode/internal/config"
	"github.com/luisvx/inboxcode/internal/database"
	"github.com/luisvx/inboxcode/internal/mailbox"
	"github.com/luisvx/inboxcode/internal/mailcow"
	"github.com/luisvx/inboxcode/internal/query"
	"github.com/luisvx/inboxcode/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting inboxcode")

	// Connect to database
	db, err := database.New(database.Config{
		Path:        cfg.DatabasePath,
		BusyTimeout: cfg.DatabaseBusyTimeout,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	// Shared mailbox client: one session per query, no pooling
	mailboxClient := mailbox.NewClient(mailbox.ClientConfig{
		Addr:        cfg.IMAPAddr(),
		Username:    cfg.IMAPUser,
		Password:    cfg.IMAPPass,
		DialTimeout: cfg.DialTimeout,
	}, logger)

	orchestrator := query.New(db, mailboxClient, cfg.ScanTimeout, logger)

	// Mailcow provisioning (optional)
	var mailcowClient *mailcow.Client
	if cfg.MailcowEnabled() {
		mailcowClient = mailcow.NewClient(mailcow.Config{
			BaseURL:    cfg.MailcowURL,
			APIKey:     cfg.MailcowAPIKey,
			Domain:     cfg.MailcowDomain,
			SharedAddr: cfg.IMAPUser,
		})
		logger.Info("mailcow provisioning enabled", "domain", cfg.MailcowDomain)
	}

	server := web.NewServer(web.Deps{
		Orchestrator: orchestrator,
		DB:           db,
		Mailcow:      mailcowClient,
		AdminToken:   cfg.AdminToken,
		Logger:       logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Setup graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("received shutdown signal", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.HTTPAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
