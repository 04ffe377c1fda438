package handler

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// HELP HANDLER
// Handles /help: lists the commands and the echo feature.
// ══════════════════════════════════════════════════════════════════════════════

// HelpText is the fixed reply to /help.
const HelpText = "🤖 Echo Bot Help\n\n" +
	"Available commands:\n" +
	"/start - Start using the bot\n" +
	"/help - Show this help message\n\n" +
	"Features:\n" +
	"• Send any text message and I will repeat it back to you\n" +
	"• Emoji and special characters are supported\n" +
	"• Simple and easy to use"

// HelpHandler handles the /help command.
type HelpHandler struct {
	replier Replier
}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler(replier Replier) *HelpHandler {
	return &HelpHandler{replier: replier}
}

// Handle processes the /help command.
func (h *HelpHandler) Handle(ctx context.Context, req Request) error {
	return reply(ctx, h.replier, req, HelpText)
}
