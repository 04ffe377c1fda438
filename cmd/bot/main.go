// Package main is the entry point of the Telegram echo bot.
//
// The process serves the webhook endpoint over HTTP, registers the webhook
// with Telegram on startup when the configuration allows it, and releases the
// bot client on shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/echohub/telegram-echo-bot/config"
	httpserver "github.com/echohub/telegram-echo-bot/internal/interface/http"
	"github.com/echohub/telegram-echo-bot/internal/interface/http/handlers"
	tgbot "github.com/echohub/telegram-echo-bot/internal/interface/telegram"
	"github.com/echohub/telegram-echo-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting telegram echo bot",
		"env", cfg.App.Environment,
		"debug", bool(cfg.App.Debug),
		"version", cfg.App.Version,
	)

	for _, warning := range cfg.Warnings() {
		log.Warn("configuration warning", "warning", warning)
	}
	if !cfg.HasValidBotToken() {
		log.Warn("continuing with a placeholder bot token, telegram features are unavailable")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. TELEGRAM BOT
	// ─────────────────────────────────────────────────────────────────────────
	bot := tgbot.NewBot(tgbot.BotConfigFrom(cfg, log))
	bot.Startup(ctx)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpServer := httpserver.NewServer(httpserver.ConfigFrom(cfg), httpserver.Dependencies{
		Webhook: bot,
		Health:  handlers.NewConfigHealthSource(cfg),
		Stats:   handlers.StatsProviderFunc(func() any { return bot.Stats() }),
		Logger:  log,
	})

	errCh := httpServer.StartAsync()

	log.Info("telegram echo bot is running",
		"http_address", httpServer.Address(),
		"webhook_path", config.WebhookPath,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http server error: %w", err)
			log.Error("service error", logger.Err(runErr))
		}
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	// Stop accepting webhooks first, then release the bot client.
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		shutdownErr = errors.Join(shutdownErr, err)
	}

	if err := bot.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop bot gracefully", logger.Err(err))
		shutdownErr = errors.Join(shutdownErr, err)
	}

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return runErr
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger builds the root logger and installs it as the slog default.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := logger.DefaultOptions()
	opts.Format = logger.Format(cfg.Observability.LogFormat)
	opts.Debug = bool(cfg.App.Debug)
	opts.Service = handlers.ServiceName

	log := logger.New(opts)
	slog.SetDefault(log)
	return log
}
