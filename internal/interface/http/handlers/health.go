package handlers

import (
	"time"

	"github.com/echohub/telegram-echo-bot/config"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// ServiceName is reported by GET /health.
const ServiceName = "telegram-echo-bot"

// HealthSource supplies the configuration flags reported by GET /health.
type HealthSource interface {
	Environment() string
	WebhookConfigured() bool
	BotTokenConfigured() bool
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status             string `json:"status"`
	Service            string `json:"service"`
	Environment        string `json:"environment"`
	WebhookConfigured  bool   `json:"webhook_configured"`
	BotTokenConfigured bool   `json:"bot_token_configured"`
}

// BuildHealthStatus reads src once and returns the report.
func BuildHealthStatus(src HealthSource) HealthStatus {
	return HealthStatus{
		Status:             "healthy",
		Service:            ServiceName,
		Environment:        src.Environment(),
		WebhookConfigured:  src.WebhookConfigured(),
		BotTokenConfigured: src.BotTokenConfigured(),
	}
}

// ConfigHealthSource reads health flags from the application configuration.
// Flags are recomputed on each call.
type ConfigHealthSource struct {
	cfg *config.Config
}

// NewConfigHealthSource creates a HealthSource backed by cfg.
func NewConfigHealthSource(cfg *config.Config) *ConfigHealthSource {
	return &ConfigHealthSource{cfg: cfg}
}

// Environment returns the deployment environment name.
func (c *ConfigHealthSource) Environment() string { return string(c.cfg.App.Environment) }

// WebhookConfigured reports whether WEBHOOK_URL is usable.
func (c *ConfigHealthSource) WebhookConfigured() bool { return c.cfg.HasValidWebhookURL() }

// BotTokenConfigured reports whether TELEGRAM_BOT_TOKEN is usable.
func (c *ConfigHealthSource) BotTokenConfigured() bool { return c.cfg.HasValidBotToken() }

// ══════════════════════════════════════════════════════════════════════════════
// STATIC SOURCE (for testing/default)
// ══════════════════════════════════════════════════════════════════════════════

// StaticHealthSource reports fixed values.
type StaticHealthSource struct {
	Env      string
	Webhook  bool
	BotToken bool
}

// Environment returns Env.
func (s StaticHealthSource) Environment() string { return s.Env }

// WebhookConfigured returns Webhook.
func (s StaticHealthSource) WebhookConfigured() bool { return s.Webhook }

// BotTokenConfigured returns BotToken.
func (s StaticHealthSource) BotTokenConfigured() bool { return s.BotToken }

// ══════════════════════════════════════════════════════════════════════════════
// STATS
// ══════════════════════════════════════════════════════════════════════════════

// StatsProvider exposes runtime counters for GET /stats.
type StatsProvider interface {
	StatsReport() any
}

// StatsProviderFunc adapts a function to StatsProvider.
type StatsProviderFunc func() any

// StatsReport calls f.
func (f StatsProviderFunc) StatsReport() any { return f() }

// Uptime formats the time since start rounded to seconds.
func Uptime(start time.Time) string {
	return time.Since(start).Round(time.Second).String()
}
