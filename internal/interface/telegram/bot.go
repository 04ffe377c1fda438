// Package telegram implements the Telegram side of the echo bot: it decodes
// webhook updates, routes them to command and echo handlers, and manages the
// bot client lifecycle (webhook registration on startup, release on shutdown).
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/echohub/telegram-echo-bot/config"
	"github.com/echohub/telegram-echo-bot/internal/infrastructure/external/telegram"
	"github.com/echohub/telegram-echo-bot/internal/interface/telegram/handler"
	"github.com/echohub/telegram-echo-bot/internal/interface/telegram/middleware"
	"github.com/echohub/telegram-echo-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidUpdate is returned when a webhook payload is not a Telegram
	// update: malformed JSON or a missing update_id.
	ErrInvalidUpdate = errors.New("invalid telegram update")

	// ErrBotShutDown is returned for updates arriving after Shutdown.
	ErrBotShutDown = errors.New("bot is shut down")
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// Token is the Telegram Bot API token. Empty falls back to config.DummyBotToken.
	Token string

	// APIBaseURL overrides the Bot API endpoint (tests, local Bot API servers).
	APIBaseURL string

	// RequestTimeout bounds each Bot API call.
	RequestTimeout time.Duration

	// HTTPClient overrides the client's transport.
	HTTPClient *http.Client

	// RegisterWebhook enables setWebhook during Startup.
	RegisterWebhook bool

	// WebhookURL is the full public endpoint Telegram should call.
	WebhookURL string

	// WebhookSecret is sent as secret_token when registering the webhook.
	WebhookSecret string

	// Environment selects how loudly webhook problems are reported.
	Environment config.Environment

	// Debug enables debug logging.
	Debug bool

	// Logger for structured logging.
	Logger *slog.Logger

	// MaxConcurrentUpdates limits concurrent update processing; 0 means unbounded.
	MaxConcurrentUpdates int

	// Workers is informational: the number of server processes deployed.
	Workers int
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig(token string) BotConfig {
	return BotConfig{
		Token:                token,
		APIBaseURL:           telegram.DefaultBaseURL,
		RequestTimeout:       10 * time.Second,
		Environment:          config.EnvDevelopment,
		Logger:               slog.Default(),
		MaxConcurrentUpdates: 0,
		Workers:              1,
	}
}

// BotConfigFrom maps the application configuration onto a BotConfig.
func BotConfigFrom(cfg *config.Config, log *slog.Logger) BotConfig {
	bc := DefaultBotConfig(cfg.EffectiveBotToken())
	bc.APIBaseURL = cfg.Telegram.APIBaseURL
	bc.RequestTimeout = cfg.Telegram.RequestTimeout
	bc.RegisterWebhook = cfg.ShouldSetWebhook()
	bc.WebhookURL = cfg.WebhookEndpoint()
	bc.WebhookSecret = cfg.Telegram.WebhookSecret
	bc.Environment = cfg.App.Environment
	bc.Debug = bool(cfg.App.Debug)
	bc.Logger = log
	bc.MaxConcurrentUpdates = cfg.App.MaxConcurrentUpdates
	bc.Workers = cfg.App.Workers
	return bc
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the Telegram bot controller.
type Bot struct {
	config   BotConfig
	client   *telegram.Client
	router   *Router
	recovery *middleware.RecoveryMiddleware
	logger   *slog.Logger

	updateSem chan struct{}
	wg        sync.WaitGroup

	lifecycleMu sync.RWMutex
	shutdown    bool

	stats *BotStats
}

// BotStats holds runtime statistics.
type BotStats struct {
	mu              sync.RWMutex
	StartedAt       time.Time
	UpdatesReceived int64
	UpdatesHandled  int64
	UpdatesIgnored  int64
	ErrorsCount     int64
	CommandsCount   map[string]int64
}

// StatsSnapshot is a point-in-time copy of BotStats.
type StatsSnapshot struct {
	StartedAt       time.Time        `json:"started_at"`
	Uptime          string           `json:"uptime"`
	UpdatesReceived int64            `json:"updates_received"`
	UpdatesHandled  int64            `json:"updates_handled"`
	UpdatesIgnored  int64            `json:"updates_ignored"`
	ErrorsCount     int64            `json:"errors_count"`
	CommandsCount   map[string]int64 `json:"commands_count"`
}

// NewBot creates the bot, its client and the command routes.
func NewBot(cfg BotConfig) *Bot {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Token == "" {
		cfg.Token = config.DummyBotToken
	}
	if cfg.MaxConcurrentUpdates < 0 {
		cfg.MaxConcurrentUpdates = 0
	}

	clientConfig := telegram.DefaultClientConfig(cfg.Token)
	clientConfig.BaseURL = cfg.APIBaseURL
	clientConfig.HTTPClient = cfg.HTTPClient
	clientConfig.Logger = cfg.Logger.With(logger.Component("telegram_client"))
	clientConfig.Debug = cfg.Debug
	if cfg.RequestTimeout > 0 {
		clientConfig.Timeout = cfg.RequestTimeout
	}
	client := telegram.NewClient(clientConfig)

	router := NewRouter(RouterConfig{Logger: cfg.Logger.With(logger.Component("router")), Debug: cfg.Debug})
	router.RegisterCommand("start", handler.NewStartHandler(client))
	router.RegisterCommand("help", handler.NewHelpHandler(client))
	router.SetTextHandler(handler.NewEchoHandler(client))

	recoveryConfig := middleware.DefaultRecoveryConfig()
	recoveryConfig.Logger = cfg.Logger

	b := &Bot{
		config:   cfg,
		client:   client,
		router:   router,
		recovery: middleware.NewRecoveryMiddleware(recoveryConfig),
		logger:   cfg.Logger,
		stats: &BotStats{
			StartedAt:     time.Now(),
			CommandsCount: make(map[string]int64),
		},
	}
	if cfg.MaxConcurrentUpdates > 0 {
		b.updateSem = make(chan struct{}, cfg.MaxConcurrentUpdates)
	}

	router.Use(b.countCommands)
	router.Use(b.recoverPanics)

	return b
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE MANAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Startup registers the webhook when configured. Registration failures are
// logged, never returned: the HTTP server keeps serving either way.
func (b *Bot) Startup(ctx context.Context) {
	b.logger.Info("starting telegram echo bot",
		"environment", b.config.Environment,
		"commands", b.router.GetRegisteredCommands(),
		"workers", b.config.Workers,
		"max_concurrent_updates", b.config.MaxConcurrentUpdates,
	)

	if !b.config.RegisterWebhook {
		if b.config.Environment.Is(config.EnvDevelopment) {
			b.logger.Info("development environment: skipping webhook registration")
		} else {
			b.logger.Warn("webhook is not configured, check TELEGRAM_BOT_TOKEN and WEBHOOK_URL",
				"environment", b.config.Environment,
			)
		}
		return
	}

	err := b.client.SetWebhook(ctx, telegram.WebhookParams{
		URL:         b.config.WebhookURL,
		SecretToken: b.config.WebhookSecret,
	})
	if err != nil {
		b.logger.Error("failed to set webhook", "url", b.config.WebhookURL, logger.Err(err))
		if b.config.Environment.Is(config.EnvProduction) {
			b.logger.Error("webhook registration failed in production, the bot will not receive updates")
		} else {
			b.logger.Info("webhook registration failure is expected outside production")
		}
		return
	}

	b.logger.Info("webhook set", "url", b.config.WebhookURL)
}

// Shutdown waits for in-flight updates and releases the client. It is idempotent.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.lifecycleMu.Lock()
	if b.shutdown {
		b.lifecycleMu.Unlock()
		return nil
	}
	b.shutdown = true
	b.lifecycleMu.Unlock()

	b.logger.Info("stopping telegram bot")

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn("context cancelled while waiting for in-flight updates")
		waitErr = ctx.Err()
	}

	if err := b.client.Close(); err != nil {
		return fmt.Errorf("close telegram client: %w", err)
	}
	return waitErr
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// HandleUpdate decodes a webhook payload and dispatches it.
//
// Only ErrInvalidUpdate and ErrBotShutDown (or a cancelled context while
// waiting for a slot) are returned. Once dispatch is attempted the update is
// acknowledged: handler and send failures are logged and counted, never
// returned, so Telegram does not redeliver them.
func (b *Bot) HandleUpdate(ctx context.Context, payload []byte) error {
	var update telegram.Update
	if err := json.Unmarshal(payload, &update); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	if update.UpdateID == 0 {
		return fmt.Errorf("%w: missing update_id", ErrInvalidUpdate)
	}
	return b.Dispatch(ctx, &update)
}

// Dispatch routes a decoded update, bounded by the optional update semaphore.
func (b *Bot) Dispatch(ctx context.Context, update *telegram.Update) error {
	if update == nil {
		return ErrInvalidUpdate
	}

	b.lifecycleMu.RLock()
	if b.shutdown {
		b.lifecycleMu.RUnlock()
		return ErrBotShutDown
	}
	b.wg.Add(1)
	b.lifecycleMu.RUnlock()
	defer b.wg.Done()

	if b.updateSem != nil {
		select {
		case b.updateSem <- struct{}{}:
			defer func() { <-b.updateSem }()
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	b.stats.mu.Lock()
	b.stats.UpdatesReceived++
	b.stats.mu.Unlock()

	startTime := time.Now()
	attrs := []any{logger.UpdateID(update.UpdateID)}
	if user := update.EffectiveUser(); user != nil {
		attrs = append(attrs, logger.TelegramID(user.ID))
	}
	if update.Message != nil && update.Message.Chat != nil {
		attrs = append(attrs, logger.ChatID(update.Message.Chat.ID))
	}

	route, err := b.router.Route(ctx, update)
	attrs = append(attrs, "route", route.String(), logger.Latency(time.Since(startTime)))

	switch {
	case route.Kind == RouteIgnored:
		b.stats.mu.Lock()
		b.stats.UpdatesIgnored++
		b.stats.mu.Unlock()
		b.logger.Debug("update ignored", attrs...)
	case err != nil:
		b.stats.mu.Lock()
		b.stats.ErrorsCount++
		b.stats.mu.Unlock()
		b.logger.Error("failed to handle update", append(attrs, logger.Err(err))...)
	default:
		b.stats.mu.Lock()
		b.stats.UpdatesHandled++
		b.stats.mu.Unlock()
		b.logger.Debug("update handled", attrs...)
	}
	return nil
}

// countCommands records every matched command, whether or not its handler succeeds.
func (b *Bot) countCommands(_ context.Context, _ *telegram.Update, route Route, next func() error) error {
	if route.Kind == RouteCommand {
		b.stats.mu.Lock()
		b.stats.CommandsCount[route.Command]++
		b.stats.mu.Unlock()
	}
	return next()
}

// recoverPanics turns a handler panic into a *middleware.PanicError.
func (b *Bot) recoverPanics(ctx context.Context, update *telegram.Update, route Route, next func() error) error {
	return b.recovery.Run(ctx, update.UpdateID, route.String(), next)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// Stats returns current bot statistics.
func (b *Bot) Stats() StatsSnapshot {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()

	return StatsSnapshot{
		StartedAt:       b.stats.StartedAt,
		Uptime:          time.Since(b.stats.StartedAt).Round(time.Second).String(),
		UpdatesReceived: b.stats.UpdatesReceived,
		UpdatesHandled:  b.stats.UpdatesHandled,
		UpdatesIgnored:  b.stats.UpdatesIgnored,
		ErrorsCount:     b.stats.ErrorsCount,
		CommandsCount:   lo.Assign(b.stats.CommandsCount),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER ACCESS
// ══════════════════════════════════════════════════════════════════════════════

// Router returns the router for handler registration.
func (b *Bot) Router() *Router {
	return b.router
}
