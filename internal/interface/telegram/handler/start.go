package handler

import (
	"context"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// START HANDLER
// Handles /start: greets the user and explains what the bot does.
// ══════════════════════════════════════════════════════════════════════════════

// StartHandler handles the /start command.
type StartHandler struct {
	replier Replier
}

// NewStartHandler creates a new StartHandler.
func NewStartHandler(replier Replier) *StartHandler {
	return &StartHandler{replier: replier}
}

// Handle processes the /start command. Arguments (deep-link payloads) are ignored.
func (h *StartHandler) Handle(ctx context.Context, req Request) error {
	return reply(ctx, h.replier, req, StartText(req.FirstName()))
}

// StartText returns the greeting sent in response to /start.
func StartText(firstName string) string {
	return fmt.Sprintf(
		"Hello %s! 👋\n"+
			"I am a simple echo bot.\n"+
			"Send me any message and I will repeat what you said!",
		firstName,
	)
}
