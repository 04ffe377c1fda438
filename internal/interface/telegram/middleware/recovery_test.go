package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echohub/telegram-echo-bot/pkg/logger"
)

func newTestRecovery(onPanic func(context.Context, *PanicInfo)) *RecoveryMiddleware {
	cfg := DefaultRecoveryConfig()
	cfg.Logger = logger.Discard()
	cfg.OnPanic = onPanic
	return NewRecoveryMiddleware(cfg)
}

func TestRecovery_PassesThroughResult(t *testing.T) {
	m := newTestRecovery(nil)

	assert.NoError(t, m.Run(context.Background(), 1, "text", func() error { return nil }))

	sentinel := errors.New("boom")
	assert.Same(t, sentinel, m.Run(context.Background(), 1, "text", func() error { return sentinel }))
}

func TestRecovery_ConvertsPanic(t *testing.T) {
	var seen *PanicInfo
	m := newTestRecovery(func(_ context.Context, info *PanicInfo) { seen = info })

	err := m.Run(context.Background(), 42, "command:start", func() error {
		panic("nil map")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHandlerPanic)

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, int64(42), pe.Info.UpdateID)
	assert.Equal(t, "command:start", pe.Info.Route)
	assert.NotEmpty(t, pe.Info.StackTrace)

	require.NotNil(t, seen)
	assert.Equal(t, "nil map", seen.PanicValue)
}

func TestPanicRateLimiter(t *testing.T) {
	p := newPanicRateLimiter(2)
	assert.True(t, p.allow())
	assert.True(t, p.allow())
	assert.False(t, p.allow())

	assert.True(t, newPanicRateLimiter(0).allow())
}
