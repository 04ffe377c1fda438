package http

import (
	"io"
	"net/http"

	"github.com/echohub/telegram-echo-bot/internal/interface/http/handlers"
	"github.com/echohub/telegram-echo-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// rootInfo is the fixed body of GET /.
var rootInfo = map[string]string{
	"message":  "Telegram Echo Bot is running!",
	"status":   "healthy",
	"bot_info": "Echo bot using the Telegram Bot API",
}

// handleRoot serves the root banner.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootInfo)
}

// handleHealth reports configuration flags, read fresh on every request.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, handlers.BuildHealthStatus(s.deps.Health))
}

// handleStats serves runtime counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	startedAt := s.startedAt
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"server_uptime": handlers.Uptime(startedAt),
		"bot":           s.deps.Stats.StatsReport(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleWebhook accepts a Telegram update. Nothing is dispatched unless the
// secret check passes and the body reads cleanly.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if s.deps.Webhook == nil {
		log.Error("webhook called before the bot was initialized")
		writeJSONError(w, http.StatusInternalServerError, detailNotReady)
		return
	}

	if !handlers.VerifySecret(s.config.WebhookSecret, r.Header.Get(handlers.SecretTokenHeader)) {
		log.Warn("webhook secret token mismatch")
		writeJSONError(w, http.StatusForbidden, detailForbidden)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		writeJSONError(w, http.StatusInternalServerError, detailInternalError)
		return
	}

	if err := s.deps.Webhook.HandleUpdate(r.Context(), body); err != nil {
		log.Error("failed to process webhook", "error", err)
		writeJSONError(w, http.StatusInternalServerError, detailInternalError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
