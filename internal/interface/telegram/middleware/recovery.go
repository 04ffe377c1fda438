// Package middleware contains Telegram bot middlewares for update processing.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/echohub/telegram-echo-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in handlers and turns them into errors, so one bad update
// is logged and counted instead of taking the whole process down.
// ══════════════════════════════════════════════════════════════════════════════

// ErrHandlerPanic is wrapped by every error produced from a recovered panic.
var ErrHandlerPanic = errors.New("handler panicked")

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// EnableStackTrace enables capturing stack traces.
	EnableStackTrace bool

	// MaxPanicsPerMinute caps how many panics per minute are logged with
	// full detail. Panics past the cap are still recovered.
	MaxPanicsPerMinute int

	// OnPanic is called when a panic is recovered.
	OnPanic func(ctx context.Context, info *PanicInfo)

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultRecoveryConfig returns sensible defaults for recovery middleware.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		EnableStackTrace:   true,
		MaxPanicsPerMinute: 100,
		Logger:             slog.Default(),
	}
}

// PanicInfo contains information about a recovered panic.
type PanicInfo struct {
	// PanicValue is the raw panic value.
	PanicValue any

	// StackTrace is the formatted stack trace.
	StackTrace string

	// UpdateID is the Telegram update being processed.
	UpdateID int64

	// Route names the handler that panicked ("command:start", "text").
	Route string

	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

// PanicError is returned by Run when the wrapped function panicked.
type PanicError struct {
	Info *PanicInfo
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrHandlerPanic, e.Info.Route, e.Info.PanicValue)
}

// Unwrap makes errors.Is(err, ErrHandlerPanic) work.
func (e *PanicError) Unwrap() error {
	return ErrHandlerPanic
}

// RecoveryMiddleware recovers from panics in update handlers.
type RecoveryMiddleware struct {
	config       RecoveryConfig
	logger       *slog.Logger
	panicCounter *panicRateLimiter
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(config RecoveryConfig) *RecoveryMiddleware {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RecoveryMiddleware{
		config:       config,
		logger:       config.Logger,
		panicCounter: newPanicRateLimiter(config.MaxPanicsPerMinute),
	}
}

// Run executes fn and converts a panic into a *PanicError.
// Errors returned by fn pass through unchanged.
func (m *RecoveryMiddleware) Run(ctx context.Context, updateID int64, route string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = m.handlePanic(ctx, r, updateID, route)
		}
	}()
	return fn()
}

func (m *RecoveryMiddleware) handlePanic(ctx context.Context, panicValue any, updateID int64, route string) error {
	info := &PanicInfo{
		PanicValue: panicValue,
		UpdateID:   updateID,
		Route:      route,
		Timestamp:  time.Now(),
	}

	if m.panicCounter.allow() {
		if m.config.EnableStackTrace {
			info.StackTrace = string(debug.Stack())
		}
		m.logger.ErrorContext(ctx, "panic recovered in update handler",
			logger.UpdateID(updateID),
			"route", route,
			"panic", fmt.Sprint(panicValue),
			"stack", info.StackTrace,
		)
	}

	if m.config.OnPanic != nil {
		m.config.OnPanic(ctx, info)
	}

	return &PanicError{Info: info}
}

// ══════════════════════════════════════════════════════════════════════════════
// PANIC RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

type panicRateLimiter struct {
	mu        sync.Mutex
	count     int
	maxPerMin int
	window    time.Time
}

func newPanicRateLimiter(maxPerMin int) *panicRateLimiter {
	return &panicRateLimiter{
		maxPerMin: maxPerMin,
		window:    time.Now(),
	}
}

func (p *panicRateLimiter) allow() bool {
	if p.maxPerMin <= 0 {
		return true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if now.Sub(p.window) > time.Minute {
		p.count = 0
		p.window = now
	}

	if p.count >= p.maxPerMin {
		return false
	}
	p.count++
	return true
}
