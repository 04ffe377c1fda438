package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/samber/lo"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

var knownEnvironments = []Environment{EnvDevelopment, EnvStaging, EnvProduction}

// Is compares environment names case-insensitively.
func (e Environment) Is(other Environment) bool {
	return strings.EqualFold(string(e), string(other))
}

// Known reports whether e names one of the recognised environments.
func (e Environment) Known() bool {
	return lo.ContainsBy(knownEnvironments, e.Is)
}

// Flag is a boolean that is true only for the literal "true", in any case.
// Any other value, including "1" or "yes", is false.
type Flag bool

// Decode implements envconfig.Decoder.
func (f *Flag) Decode(value string) error {
	*f = Flag(strings.EqualFold(value, "true"))
	return nil
}

// Placeholder values shipped in .env.example. They count as "not configured".
const (
	PlaceholderBotToken   = "your_bot_token_here"
	PlaceholderWebhookURL = "https://your-domain.com/webhook"

	// DummyBotToken is used to build a client when no valid token is configured,
	// so the process can start in development without Telegram access.
	DummyBotToken = "dummy_token"

	// WebhookPath is the path Telegram posts updates to.
	WebhookPath = "/webhook"
)

// minBotTokenLength is the shortest token we accept as plausibly real.
const minBotTokenLength = 11

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// HTTP server
	Server ServerConfig

	// Telegram Bot
	Telegram TelegramConfig

	// Observability
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string      `envconfig:"APP_NAME" default:"telegram-echo-bot"`
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	Debug       Flag        `envconfig:"DEBUG" default:"false"`
	Version     string      `envconfig:"APP_VERSION" default:"1.0.0"`

	// Workers is the number of server processes the deployment runs. It is
	// reported, not enforced in-process.
	Workers int `envconfig:"WORKERS" default:"1" validate:"min=1"`

	// MaxConcurrentUpdates caps in-flight updates per process; 0 means unbounded.
	MaxConcurrentUpdates int `envconfig:"MAX_CONCURRENT_UPDATES" default:"0" validate:"min=0"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string        `envconfig:"HOST" default:"0.0.0.0"`
	Port         int           `envconfig:"PORT" default:"8000" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
}

// TelegramConfig holds Telegram Bot settings.
type TelegramConfig struct {
	// Bot token from @BotFather
	Token string `envconfig:"TELEGRAM_BOT_TOKEN"`

	// Public base URL; the webhook endpoint is WebhookURL + WebhookPath.
	WebhookURL string `envconfig:"WEBHOOK_URL"`

	// Shared secret Telegram echoes back in X-Telegram-Bot-Api-Secret-Token.
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`

	// Bot API base URL (overridable for tests and local proxies)
	APIBaseURL string `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org" validate:"url"`

	// Per-request timeout for Bot API calls
	RequestTimeout time.Duration `envconfig:"TELEGRAM_TIMEOUT" default:"10s" validate:"gt=0"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
}

var validate = validator.New()

// Load loads configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. A missing file is not an error.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}

	if err := envconfig.Process("", &cfg.App); err != nil {
		return nil, fmt.Errorf("app config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Telegram); err != nil {
		return nil, fmt.Errorf("telegram config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Observability); err != nil {
		return nil, fmt.Errorf("observability config: %w", err)
	}
	cfg.Observability.LogFormat = strings.ToLower(cfg.Observability.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks structural rules. Token and webhook problems are reported by
// Warnings instead, because the bot is allowed to start without them.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
			return fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		})
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(msgs, "\n  - "))
	}
	return nil
}

// Warnings returns non-fatal configuration problems.
func (c *Config) Warnings() []string {
	var warnings []string

	if !c.HasValidBotToken() {
		warnings = append(warnings, "TELEGRAM_BOT_TOKEN is not set or invalid")
	}

	if !c.App.Environment.Known() {
		warnings = append(warnings, fmt.Sprintf("ENVIRONMENT %q is not one of development, staging, production", c.App.Environment))
	}

	if c.IsProduction() && !c.HasValidWebhookURL() {
		warnings = append(warnings, "a valid WEBHOOK_URL is required in production")
	}

	return warnings
}

// HasValidBotToken reports whether the token looks like a real BotFather token.
func (c *Config) HasValidBotToken() bool {
	token := c.Telegram.Token
	return token != "" &&
		!lo.Contains([]string{PlaceholderBotToken}, token) &&
		len(token) >= minBotTokenLength
}

// HasValidWebhookURL reports whether the webhook URL is set and uses https.
func (c *Config) HasValidWebhookURL() bool {
	url := c.Telegram.WebhookURL
	return url != "" &&
		url != PlaceholderWebhookURL &&
		strings.HasPrefix(url, "https://")
}

// ShouldSetWebhook reports whether the webhook should be registered on startup.
func (c *Config) ShouldSetWebhook() bool {
	return c.HasValidBotToken() && c.HasValidWebhookURL()
}

// EffectiveBotToken returns the configured token, or DummyBotToken when it is invalid.
func (c *Config) EffectiveBotToken() string {
	if c.HasValidBotToken() {
		return c.Telegram.Token
	}
	return DummyBotToken
}

// WebhookEndpoint returns the full URL Telegram should post updates to.
func (c *Config) WebhookEndpoint() string {
	return c.Telegram.WebhookURL + WebhookPath
}

// Address returns the HTTP listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment.Is(EnvDevelopment)
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment.Is(EnvProduction)
}
