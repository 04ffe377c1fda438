package handlers

import (
	"context"
	"crypto/subtle"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK HANDLER INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// SecretTokenHeader carries the secret Telegram was given in setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler processes the raw body of a Telegram webhook call. An error
// means the update was rejected before dispatch; handler failures are
// acknowledged.
type WebhookHandler interface {
	HandleUpdate(ctx context.Context, payload []byte) error
}

// WebhookHandlerFunc adapts a function to WebhookHandler.
type WebhookHandlerFunc func(ctx context.Context, payload []byte) error

// HandleUpdate calls f.
func (f WebhookHandlerFunc) HandleUpdate(ctx context.Context, payload []byte) error {
	return f(ctx, payload)
}

// VerifySecret reports whether a webhook call may proceed. With no secret
// configured every call is accepted.
func VerifySecret(expected, got string) bool {
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// ══════════════════════════════════════════════════════════════════════════════
// NOOP IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// NoopWebhookHandler discards all webhooks.
type NoopWebhookHandler struct{}

// NewNoopWebhookHandler creates a new noop webhook handler.
func NewNoopWebhookHandler() *NoopWebhookHandler {
	return &NoopWebhookHandler{}
}

// HandleUpdate is a no-op.
func (n *NoopWebhookHandler) HandleUpdate(ctx context.Context, payload []byte) error {
	return nil
}
