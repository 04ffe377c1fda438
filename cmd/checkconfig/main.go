// Command checkconfig validates the echo bot configuration and, when a real
// token is configured, checks it against the Telegram Bot API.
//
// Usage:
//
//	checkconfig [-env-file .env] [-set-webhook | -delete-webhook] [-no-color]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/echohub/telegram-echo-bot/config"
	"github.com/echohub/telegram-echo-bot/internal/infrastructure/external/telegram"
	"github.com/echohub/telegram-echo-bot/pkg/logger"
)

type options struct {
	setWebhook    bool
	deleteWebhook bool
	timeout       time.Duration
}

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file to load before reading the environment")
	setWebhook := flag.Bool("set-webhook", false, "register WEBHOOK_URL/webhook with Telegram")
	deleteWebhook := flag.Bool("delete-webhook", false, "remove the registered webhook")
	noColor := flag.Bool("no-color", false, "disable coloured output")
	timeout := flag.Duration("timeout", 15*time.Second, "overall timeout for Telegram calls")
	flag.Parse()

	if *noColor {
		color.Disable()
	}

	if *setWebhook && *deleteWebhook {
		fmt.Fprintln(os.Stderr, color.Red.Sprint("-set-webhook and -delete-webhook are mutually exclusive"))
		os.Exit(2)
	}

	cfg, err := config.LoadFrom(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("❌ %v", err))
		os.Exit(1)
	}

	opts := options{
		setWebhook:    *setWebhook,
		deleteWebhook: *deleteWebhook,
		timeout:       *timeout,
	}
	if err := check(context.Background(), os.Stdout, cfg, opts); err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("❌ check failed: %v", err))
		os.Exit(1)
	}
}

// check prints the configuration report and runs the Telegram checks.
func check(ctx context.Context, out io.Writer, cfg *config.Config, opts options) error {
	fmt.Fprintln(out, "📋 Configuration")
	renderConfig(out, cfg)
	fmt.Fprintln(out)

	if warnings := cfg.Warnings(); len(warnings) > 0 {
		fmt.Fprintln(out, color.Yellow.Sprint("⚠️  Configuration warnings:"))
		for _, w := range warnings {
			fmt.Fprintln(out, color.Yellow.Sprintf("   - %s", w))
		}
	} else {
		fmt.Fprintln(out, color.Green.Sprint("✅ Configuration is valid"))
	}

	if !cfg.HasValidBotToken() {
		fmt.Fprintln(out, color.Yellow.Sprint("⚠️  Skipping Telegram checks: TELEGRAM_BOT_TOKEN is not set or invalid"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  1. Put the token from @BotFather into TELEGRAM_BOT_TOKEN")
		fmt.Fprintln(out, "  2. Set WEBHOOK_URL (required in production)")
		fmt.Fprintln(out, "  3. Run: go run ./cmd/bot")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	clientConfig := telegram.DefaultClientConfig(cfg.Telegram.Token)
	clientConfig.BaseURL = cfg.Telegram.APIBaseURL
	clientConfig.Timeout = cfg.Telegram.RequestTimeout
	clientConfig.Logger = logger.Discard()
	client := telegram.NewClient(clientConfig)
	defer client.Close()

	me, err := client.GetMe(ctx)
	if err != nil {
		if telegram.IsUnauthorized(err) {
			return fmt.Errorf("telegram rejected the bot token: %w", err)
		}
		return fmt.Errorf("getMe: %w", err)
	}
	fmt.Fprintln(out, color.Green.Sprintf("✅ Bot: @%s (%s)", me.Username, me.FirstName))

	switch {
	case opts.setWebhook:
		if !cfg.ShouldSetWebhook() {
			return errors.New("cannot set webhook: WEBHOOK_URL is not a valid https URL")
		}
		err := client.SetWebhook(ctx, telegram.WebhookParams{
			URL:         cfg.WebhookEndpoint(),
			SecretToken: cfg.Telegram.WebhookSecret,
		})
		if err != nil {
			return fmt.Errorf("setWebhook: %w", err)
		}
		fmt.Fprintln(out, color.Green.Sprintf("✅ Webhook set: %s", cfg.WebhookEndpoint()))
	case opts.deleteWebhook:
		if err := client.DeleteWebhook(ctx, false); err != nil {
			return fmt.Errorf("deleteWebhook: %w", err)
		}
		fmt.Fprintln(out, color.Green.Sprint("✅ Webhook deleted"))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "🚀 Ready to start: go run ./cmd/bot")
	return nil
}

// renderConfig writes the configuration table.
func renderConfig(out io.Writer, cfg *config.Config) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Setting", "Value"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.Append([]string{"Environment", string(cfg.App.Environment)})
	table.Append([]string{"Debug", strconv.FormatBool(bool(cfg.App.Debug))})
	table.Append([]string{"Server", cfg.Address()})
	table.Append([]string{"Workers", strconv.Itoa(cfg.App.Workers)})
	table.Append([]string{"Max concurrent updates", concurrencyValue(cfg.App.MaxConcurrentUpdates)})
	table.Append([]string{"Log format", cfg.Observability.LogFormat})
	table.Append([]string{"Bot token", mark(cfg.HasValidBotToken())})
	table.Append([]string{"Webhook URL", webhookValue(cfg)})
	table.Append([]string{"Webhook secret", mark(cfg.Telegram.WebhookSecret != "")})

	table.Render()
}

func webhookValue(cfg *config.Config) string {
	if !cfg.HasValidWebhookURL() {
		return mark(false)
	}
	return mark(true) + " " + cfg.WebhookEndpoint()
}

func concurrencyValue(n int) string {
	if n <= 0 {
		return "unbounded"
	}
	return strconv.Itoa(n)
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
