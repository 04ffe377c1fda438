package telegram

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/echohub/telegram-echo-bot/internal/infrastructure/external/telegram"
	"github.com/echohub/telegram-echo-bot/internal/interface/telegram/handler"
	"github.com/echohub/telegram-echo-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables debug logging for routing decisions.
	Debug bool
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTES
// ══════════════════════════════════════════════════════════════════════════════

// RouteKind says which branch of the router an update took.
type RouteKind int

const (
	// RouteIgnored means no handler ran (no text, unknown command, no text handler).
	RouteIgnored RouteKind = iota
	// RouteCommand means a registered command handler ran.
	RouteCommand
	// RouteText means the plain-text handler ran.
	RouteText
)

// Route describes how an update was dispatched.
type Route struct {
	Kind    RouteKind
	Command string
}

// String returns a short label used in logs: "command:start", "text", "ignored".
func (r Route) String() string {
	switch r.Kind {
	case RouteCommand:
		return "command:" + r.Command
	case RouteText:
		return "text"
	default:
		return "ignored"
	}
}

// RouteMiddleware wraps the execution of a matched handler. next runs the
// handler (and any inner middleware); ignored updates never reach it.
type RouteMiddleware func(ctx context.Context, update *telegram.Update, route Route, next func() error) error

// resolved pairs a route with the handler that serves it.
type resolved struct {
	route   Route
	handler handler.Handler
	req     handler.Request
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Routes incoming updates to appropriate handlers.
// ══════════════════════════════════════════════════════════════════════════════

// Router routes Telegram updates to appropriate handlers.
type Router struct {
	config RouterConfig
	logger *slog.Logger

	mu              sync.RWMutex
	commandHandlers map[string]handler.Handler
	textHandler     handler.Handler
	middlewares     []RouteMiddleware
}

// NewRouter creates a new router.
func NewRouter(config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Router{
		config:          config,
		logger:          config.Logger,
		commandHandlers: make(map[string]handler.Handler),
	}
}

// RegisterCommand registers a handler for a specific command.
// The command should be without the leading "/". Matching is case-insensitive.
func (r *Router) RegisterCommand(command string, h handler.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commandHandlers[strings.ToLower(command)] = h

	if r.config.Debug {
		r.logger.Debug("registered command handler", logger.Command(command))
	}
}

// SetTextHandler sets the handler for text messages that are not commands.
func (r *Router) SetTextHandler(h handler.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textHandler = h
}

// Use appends middleware around matched handlers. The first registered is outermost.
func (r *Router) Use(m RouteMiddleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, m)
}

// Route dispatches update and reports which branch it took.
func (r *Router) Route(ctx context.Context, update *telegram.Update) (Route, error) {
	res := r.resolve(update)
	if res.handler == nil {
		return res.route, nil
	}

	r.mu.RLock()
	middlewares := r.middlewares
	r.mu.RUnlock()

	next := func() error { return res.handler.Handle(ctx, res.req) }
	for i := len(middlewares) - 1; i >= 0; i-- {
		m, inner := middlewares[i], next
		next = func() error { return m(ctx, update, res.route, inner) }
	}
	return res.route, next()
}

// resolve picks the handler for update without running it.
func (r *Router) resolve(update *telegram.Update) resolved {
	if update == nil || update.Message == nil || update.Message.Text == "" {
		return resolved{route: Route{Kind: RouteIgnored}}
	}
	msg := update.Message

	r.mu.RLock()
	defer r.mu.RUnlock()

	if command := strings.ToLower(telegram.ExtractCommand(msg)); command != "" {
		h, ok := r.commandHandlers[command]
		if !ok {
			r.logger.Debug("ignoring unknown command",
				logger.Command(command),
				logger.UpdateID(update.UpdateID),
			)
			return resolved{route: Route{Kind: RouteIgnored, Command: command}}
		}
		return resolved{
			route:   Route{Kind: RouteCommand, Command: command},
			handler: h,
			req:     handler.Request{Message: msg, Args: telegram.ExtractCommandArgs(msg)},
		}
	}

	if r.textHandler == nil {
		return resolved{route: Route{Kind: RouteIgnored}}
	}
	return resolved{
		route:   Route{Kind: RouteText},
		handler: r.textHandler,
		req:     handler.Request{Message: msg},
	}
}

// GetRegisteredCommands returns all registered command names, sorted.
func (r *Router) GetRegisteredCommands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands := lo.Keys(r.commandHandlers)
	sort.Strings(commands)
	return commands
}
