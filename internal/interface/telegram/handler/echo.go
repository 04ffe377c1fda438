package handler

import (
	"context"
	"fmt"
)

// EchoIcon prefixes every echoed message.
const EchoIcon = "🔄"

// EchoHandler repeats plain text messages back to the sender.
type EchoHandler struct {
	replier Replier
}

// NewEchoHandler creates a new EchoHandler.
func NewEchoHandler(replier Replier) *EchoHandler {
	return &EchoHandler{replier: replier}
}

// Handle replies with the sender's name and their original text.
func (h *EchoHandler) Handle(ctx context.Context, req Request) error {
	return reply(ctx, h.replier, req, EchoText(req.FirstName(), req.Text()))
}

// EchoText formats an echo reply: "🔄 Ann said: hi".
func EchoText(name, text string) string {
	return fmt.Sprintf("%s %s said: %s", EchoIcon, name, text)
}
