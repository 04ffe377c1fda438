package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echohub/telegram-echo-bot/config"
	"github.com/echohub/telegram-echo-bot/internal/interface/http/handlers"
	tgbot "github.com/echohub/telegram-echo-bot/internal/interface/telegram"
	"github.com/echohub/telegram-echo-bot/pkg/logger"
)

// fakeBotAPI counts sendMessage calls made by a real bot.
type fakeBotAPI struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeBotAPI) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func newFakeBotAPI(t *testing.T) (*fakeBotAPI, *httptest.Server) {
	t.Helper()
	f := &fakeBotAPI{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			f.mu.Lock()
			f.texts = append(f.texts, body.Text)
			f.mu.Unlock()
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":7,"type":"private"}}}`))
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestServer(t *testing.T, secret string) (*Server, *fakeBotAPI) {
	t.Helper()
	api, apiSrv := newFakeBotAPI(t)

	botCfg := tgbot.DefaultBotConfig("123456:TEST-TOKEN")
	botCfg.APIBaseURL = apiSrv.URL
	botCfg.Logger = logger.Discard()
	bot := tgbot.NewBot(botCfg)

	cfg := DefaultConfig()
	cfg.WebhookSecret = secret
	srv := NewServer(cfg, Dependencies{
		Webhook: bot,
		Health:  handlers.StaticHealthSource{Env: "development"},
		Stats:   handlers.StatsProviderFunc(func() any { return bot.Stats() }),
		Logger:  logger.Discard(),
	})
	return srv, api
}

const echoUpdate = `{"update_id":1,"message":{"message_id":1,"date":1700000000,` +
	`"from":{"id":7,"is_bot":false,"first_name":"Ann"},"chat":{"id":7,"type":"private"},"text":"hi"}}`

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRoot(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := do(t, srv.Handler(), http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"message":  "Telegram Echo Bot is running!",
		"status":   "healthy",
		"bot_info": "Echo bot using the Telegram Bot API",
	}, decode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUnknownPathIs404(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := do(t, srv.Handler(), http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth_ReflectsLiveConfig(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Environment: config.EnvDevelopment}}
	srv := NewServer(DefaultConfig(), Dependencies{
		Webhook: handlers.NewNoopWebhookHandler(),
		Health:  handlers.NewConfigHealthSource(cfg),
		Logger:  logger.Discard(),
	})

	rec := do(t, srv.Handler(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"status":               "healthy",
		"service":              "telegram-echo-bot",
		"environment":          "development",
		"webhook_configured":   false,
		"bot_token_configured": false,
	}, decode(t, rec))

	cfg.Telegram.Token = "123456:ABCDEF-real-token"
	cfg.Telegram.WebhookURL = "https://bot.example.com"

	body := decode(t, do(t, srv.Handler(), http.MethodGet, "/health", "", nil))
	assert.Equal(t, true, body["webhook_configured"])
	assert.Equal(t, true, body["bot_token_configured"])
}

func TestWebhook_Echo(t *testing.T) {
	srv, api := newTestServer(t, "")

	rec := do(t, srv.Handler(), http.MethodPost, "/webhook", echoUpdate, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok"}, decode(t, rec))
	assert.Equal(t, []string{"🔄 Ann said: hi"}, api.sent())
}

func TestWebhook_Secret(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		wantCode int
		wantSent int
	}{
		{"missing header", nil, http.StatusForbidden, 0},
		{"wrong header", map[string]string{handlers.SecretTokenHeader: "nope"}, http.StatusForbidden, 0},
		{"matching header", map[string]string{handlers.SecretTokenHeader: "s3cret"}, http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, api := newTestServer(t, "s3cret")

			rec := do(t, srv.Handler(), http.MethodPost, "/webhook", echoUpdate, tt.headers)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Len(t, api.sent(), tt.wantSent)
			if tt.wantCode == http.StatusForbidden {
				assert.Equal(t, map[string]any{"detail": "Forbidden"}, decode(t, rec))
			}
		})
	}
}

func TestWebhook_MalformedJSON(t *testing.T) {
	srv, api := newTestServer(t, "")

	rec := do(t, srv.Handler(), http.MethodPost, "/webhook", `{"update_id":`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"detail": "Internal server error"}, decode(t, rec))
	assert.Empty(t, api.sent())
}

func TestWebhook_BodyTooLarge(t *testing.T) {
	srv, api := newTestServer(t, "")
	huge := `{"update_id":1,"message":{"text":"` + strings.Repeat("a", 2<<20) + `"}}`

	rec := do(t, srv.Handler(), http.MethodPost, "/webhook", huge, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, api.sent())
}

func TestWebhook_MissingUpdateID(t *testing.T) {
	srv, api := newTestServer(t, "")

	for _, body := range []string{`{}`, `null`} {
		rec := do(t, srv.Handler(), http.MethodPost, "/webhook", body, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, body)
	}
	assert.Empty(t, api.sent())
}

func TestWebhook_SendFailureIsAcknowledged(t *testing.T) {
	var (
		mu    sync.Mutex
		sends int
	)
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		sends++
		mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	t.Cleanup(apiSrv.Close)

	botCfg := tgbot.DefaultBotConfig("123456:TEST-TOKEN")
	botCfg.APIBaseURL = apiSrv.URL
	botCfg.Logger = logger.Discard()
	bot := tgbot.NewBot(botCfg)
	srv := NewServer(DefaultConfig(), Dependencies{Webhook: bot, Logger: logger.Discard()})

	for range 3 {
		rec := do(t, srv.Handler(), http.MethodPost, "/webhook", echoUpdate, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"status": "ok"}, decode(t, rec))
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, sends)
	assert.EqualValues(t, 3, bot.Stats().ErrorsCount)
}

func TestWebhook_RejectedUpdate(t *testing.T) {
	srv := NewServer(DefaultConfig(), Dependencies{
		Webhook: handlers.WebhookHandlerFunc(func(context.Context, []byte) error {
			return tgbot.ErrInvalidUpdate
		}),
		Logger: logger.Discard(),
	})

	rec := do(t, srv.Handler(), http.MethodPost, "/webhook", echoUpdate, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhook_NotInitialized(t *testing.T) {
	srv := NewServer(DefaultConfig(), Dependencies{Logger: logger.Discard()})

	rec := do(t, srv.Handler(), http.MethodPost, "/webhook", echoUpdate, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhook_WrongMethod(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := do(t, srv.Handler(), http.MethodGet, "/webhook", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := NewServer(DefaultConfig(), Dependencies{
		Webhook: handlers.WebhookHandlerFunc(func(context.Context, []byte) error {
			panic("boom")
		}),
		Logger: logger.Discard(),
	})

	rec := do(t, srv.Handler(), http.MethodPost, "/webhook", echoUpdate, map[string]string{"X-Request-ID": "req-1"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.Handler()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/webhook", echoUpdate, nil).Code)

	body := decode(t, do(t, h, http.MethodGet, "/stats", "", nil))
	bot, ok := body["bot"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, bot["updates_handled"])
}

func TestConfigFrom(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 9000},
		Telegram: config.TelegramConfig{WebhookSecret: "s3cret"},
	}

	c := ConfigFrom(cfg)
	assert.Equal(t, "127.0.0.1:9000", c.Address())
	assert.Equal(t, "s3cret", c.WebhookSecret)
	assert.Equal(t, "/webhook", c.WebhookPath)
}
