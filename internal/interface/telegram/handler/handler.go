// Package handler contains Telegram command handlers.
// Each handler follows the pattern: receive message → format response → reply.
package handler

import (
	"context"
	"errors"

	"github.com/echohub/telegram-echo-bot/internal/infrastructure/external/telegram"
)

// ErrNoMessage is returned when a handler is invoked without a message to answer.
var ErrNoMessage = errors.New("handler: request has no message")

// Replier sends a plain-text reply to the chat a message came from.
// *telegram.Client satisfies it.
type Replier interface {
	ReplyText(ctx context.Context, msg *telegram.Message, text string) error
}

// Request contains the parsed message data handed to a handler.
type Request struct {
	// Message is the original Telegram message.
	Message *telegram.Message

	// Args is the text after the command, empty for plain messages.
	Args string
}

// FirstName returns the sender's first name, or an empty string for
// anonymous messages (channel posts, anonymous group admins).
func (r Request) FirstName() string {
	if r.Message == nil || r.Message.From == nil {
		return ""
	}
	return r.Message.From.FirstName
}

// Text returns the message text.
func (r Request) Text() string {
	if r.Message == nil {
		return ""
	}
	return r.Message.Text
}

// Handler is implemented by every command and text handler.
type Handler interface {
	Handle(ctx context.Context, req Request) error
}

// reply sends text back through r, refusing requests that carry no message.
func reply(ctx context.Context, r Replier, req Request, text string) error {
	if req.Message == nil {
		return ErrNoMessage
	}
	return r.ReplyText(ctx, req.Message, text)
}
