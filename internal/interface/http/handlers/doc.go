// Package handlers contains the HTTP-facing contracts of the echo bot and the
// reusable middleware the server is assembled from.
//
// # Webhook
//
// WebhookHandler is what POST /webhook hands the raw update body to. The bot
// implements it:
//
//	var wh handlers.WebhookHandler = bot
//	err := wh.HandleUpdate(ctx, body)
//
// VerifySecret compares the X-Telegram-Bot-Api-Secret-Token header against
// the configured secret in constant time.
//
// # Health
//
// HealthSource reports the flags shown by GET /health. ConfigHealthSource
// derives them from the loaded configuration on every call.
//
// # Middleware
//
// Chain composes MiddlewareFunc values outermost first:
//
//	h := handlers.ChainHandler(mux,
//		handlers.SecurityHeadersMiddleware,
//		handlers.RequestSizeLimitMiddleware(1<<20),
//	)
package handlers
