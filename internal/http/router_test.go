package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/meet-eat-backend/internal/callback"
	"github.com/tbourn/meet-eat-backend/internal/config"
	"github.com/tbourn/meet-eat-backend/internal/domain"
	"github.com/tbourn/meet-eat-backend/internal/http/handlers"
	"github.com/tbourn/meet-eat-backend/internal/http/middleware"
	"github.com/tbourn/meet-eat-backend/internal/render"
	"github.com/tbourn/meet-eat-backend/internal/repo"
	"github.com/tbourn/meet-eat-backend/internal/services"
	"github.com/tbourn/meet-eat-backend/internal/telegram"
)

type nopCallbacks struct{ n int }

func (c *nopCallbacks) Handle(context.Context, telegram.CallbackQuery) callback.Outcome {
	c.n++
	return callback.Outcome{}
}

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newHandlers(t *testing.T, db *gorm.DB, cb handlers.CallbackRouter, secret string) *handlers.Handlers {
	t.Helper()
	rnd, err := render.New("UTC", "ru")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return handlers.New(handlers.Deps{
		Invites:       &services.InviteService{DB: db, Render: rnd, IdempotencyTTL: time.Hour},
		Surveys:       &services.SurveyService{DB: db, Render: rnd},
		Reviews:       &services.ReviewService{DB: db},
		Notifications: &services.NotificationService{DB: db},
		Callbacks:     cb,
		WebhookSecret: secret,
	})
}

func baseConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		CORS:        config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:    config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newEngine(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB, *nopCallbacks) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	cb := &nopCallbacks{}
	RegisterRoutes(r, db, newHandlers(t, db, cb, cfg.Telegram.WebhookSecret), cfg)
	return r, db, cb
}

func serve(r *gin.Engine, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _, _ := newEngine(t, baseConfig())

	w := serve(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	w = serve(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	if w := serve(r, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/health", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	// Swagger is off by default.
	if w := serve(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := baseConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r, _, _ := newEngine(t, cfg)

	w := serve(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	if w := serve(r, http.MethodGet, "/api/v2/invites?tg_id=1", "", nil); w.Code != http.StatusOK {
		t.Fatalf("API should be mounted under the configured base, got %d", w.Code)
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := baseConfig()
	cfg.SwaggerEnabled = true
	r, _, _ := newEngine(t, cfg)

	w := serve(r, http.MethodGet, "/swagger/doc.json", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /swagger/doc.json = %d", w.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not JSON: %v", err)
	}
	if _, ok := doc["paths"].(map[string]any)["/invites"]; !ok {
		t.Fatalf("expected /invites in the document")
	}
}

// An idempotent replay is served even when the caller's bucket is empty,
// because the validator marks it for rate-limit bypass.
func TestRegisterRoutes_IdempotentReplayBypassesRateLimit(t *testing.T) {
	cfg := baseConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r, _, _ := newEngine(t, cfg)

	body := `{"initiator_tg_id": 1001, "responder_tg_id": 1002}`
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "k-replay"}

	first := serve(r, http.MethodPost, "/api/v1/invites", body, hdr)
	if first.Code != http.StatusCreated {
		t.Fatalf("first create = %d %s", first.Code, first.Body.String())
	}
	second := serve(r, http.MethodPost, "/api/v1/invites", body, hdr)
	if second.Code != http.StatusCreated || second.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay = %d replayed=%q", second.Code, second.Header().Get("Idempotency-Replayed"))
	}
	third := serve(r, http.MethodPost, "/api/v1/invites", body, map[string]string{middleware.HeaderIdempotencyKey: "k-new"})
	if third.Code != http.StatusTooManyRequests {
		t.Fatalf("fresh key should be limited, got %d", third.Code)
	}

	if w := serve(r, http.MethodPost, "/api/v1/invites", body, map[string]string{middleware.HeaderIdempotencyKey: "bad key!"}); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed key should be rejected, got %d", w.Code)
	}
}

func TestRegisterRoutes_ListsAreGzipped(t *testing.T) {
	r, _, _ := newEngine(t, baseConfig())

	w := serve(r, http.MethodGet, "/api/v1/notifications?tg_id=5", "", map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET notifications = %d", w.Code)
	}
	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", got)
	}

	// Mutations are not compressed.
	w = serve(r, http.MethodPost, "/api/v1/reviews/toggle", `{}`, map[string]string{"Accept-Encoding": "gzip"})
	if w.Header().Get("Content-Encoding") == "gzip" {
		t.Fatalf("mutation responses should not be compressed")
	}
}

func TestRegisterRoutes_Webhook_RootMounted_SecretChecked_NotLimited(t *testing.T) {
	cfg := baseConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	cfg.Telegram.WebhookSecret = "s3cret"
	r, _, cb := newEngine(t, cfg)

	update := `{"update_id": 1, "callback_query": {"id": "q", "from": {"id": 1}, "data": "invite:1:accept"}}`
	if w := serve(r, http.MethodPost, WebhookPath, update, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing secret = %d", w.Code)
	}
	for i := 0; i < 3; i++ {
		w := serve(r, http.MethodPost, WebhookPath, update, map[string]string{handlers.HeaderWebhookSecret: "s3cret"})
		if w.Code != http.StatusOK {
			t.Fatalf("webhook call %d = %d", i, w.Code)
		}
	}
	if cb.n != 3 {
		t.Fatalf("callback router called %d times, want 3", cb.n)
	}
}

func TestIdempotencyLookup_ScopesByRouteAndSubject(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if _, err := repo.CreateIdempotency(ctx, db, services.IdempotencyScopeCreateInvite, "1", "k1", 9, 201, time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}

	lookup := idempotencyLookup(db, prefixedIdempotentRoutes("/api/v1"))
	if ok, err := lookup(ctx, "/api/v1/invites", "1", "k1", time.Now()); !ok || err != nil {
		t.Fatalf("expected hit, got (%v, %v)", ok, err)
	}
	if ok, err := lookup(ctx, "/api/v1/invites", "2", "k1", time.Now()); ok || err != nil {
		t.Fatalf("key of another initiator must miss, got (%v, %v)", ok, err)
	}
	if ok, _ := lookup(ctx, "/api/v1/invites", "", "k1", time.Now()); ok {
		t.Fatalf("unresolved subject must miss")
	}
	if ok, _ := lookup(ctx, "/api/v1/invites", "1", "k2", time.Now()); ok {
		t.Fatalf("unknown key must miss")
	}
	if ok, _ := lookup(ctx, "/api/v1/reviews/toggle", "1", "k1", time.Now()); ok {
		t.Fatalf("routes without a scope never replay")
	}

	root := idempotencyLookup(db, prefixedIdempotentRoutes("/"))
	if ok, _ := root(ctx, "/invites", "1", "k1", time.Now()); !ok {
		t.Fatalf("root base path should resolve /invites")
	}
}

// Reusing a known key under another initiator is a fresh create, so it must
// not slip past the rate limiter.
func TestRegisterRoutes_ForeignKeyReuseIsRateLimited(t *testing.T) {
	cfg := baseConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r, db, _ := newEngine(t, cfg)
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "shared-key"}

	first := serve(r, http.MethodPost, "/api/v1/invites", `{"initiator_tg_id": 100, "responder_tg_id": 200}`, hdr)
	if first.Code != http.StatusCreated {
		t.Fatalf("first create = %d %s", first.Code, first.Body.String())
	}
	for i := int64(101); i <= 105; i++ {
		body := `{"initiator_tg_id": ` + strconv.FormatInt(i, 10) + `, "responder_tg_id": 200}`
		w := serve(r, http.MethodPost, "/api/v1/invites", body, hdr)
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("initiator %d reusing the key = %d, want 429", i, w.Code)
		}
	}

	var n int64
	if err := db.Model(&domain.Invite{}).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("invites = %d (%v), want 1", n, err)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for target, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", target, rec.Code, rec.Body.String())
		}
	}
}

