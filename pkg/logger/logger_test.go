package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Format: FormatJSON, Service: "telegram-echo-bot"})

	l.Info("webhook received", UpdateID(42), ChatID(7))
	l.Debug("hidden at info level")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "webhook received", record["msg"])
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "telegram-echo-bot", record["service"])
	assert.EqualValues(t, 42, record["update_id"])
	assert.EqualValues(t, 7, record["chat_id"])
}

func TestNew_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Format: FormatText, Debug: true})

	l.Debug("routing", Command("start"))

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "command=start")
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard()
	ctx := WithContext(context.Background(), l)

	assert.Same(t, l, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
