// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, rate limiting and compression.
//
// The platform webhook is mounted at the root, outside the versioned API,
// so its URL stays stable across API revisions.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/meet-eat-backend/docs" // registers the OpenAPI document
	"github.com/tbourn/meet-eat-backend/internal/config"
	"github.com/tbourn/meet-eat-backend/internal/http/handlers"
	"github.com/tbourn/meet-eat-backend/internal/http/middleware"
	"github.com/tbourn/meet-eat-backend/internal/repo"
	"github.com/tbourn/meet-eat-backend/internal/services"
)

// WebhookPath is where the messaging platform posts updates.
const WebhookPath = "/telegram/webhook"

// idempotentRoute names the scope a handler records keys under and the body
// field holding the platform id the keys belong to.
type idempotentRoute struct {
	scope        string
	subjectField string
}

var idempotentRoutes = map[string]idempotentRoute{
	"/invites": {scope: services.IdempotencyScopeCreateInvite, subjectField: "initiator_tg_id"},
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per client IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, h *handlers.Handlers, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{handlers.HeaderWebhookSecret},
		MaskQuery:   []string{"tg_id", "viewer_tg_id"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	apiBase := cfg.APIBasePath
	routes := prefixedIdempotentRoutes(apiBase)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200, Subject: idempotencySubject(routes)},
		idempotencyLookup(db, routes),
	))

	// 8) Token-bucket rate limiter per client IP. The webhook is exempt: the
	// platform retries on errors and a 429 would only add load.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	rl.Skip(WebhookPath)
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		cc := corsConfig()
		cc.AllowAllOrigins = true
		r.Use(cors.New(cc))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		cc := corsConfig()
		cc.AllowOrigins = cfg.CORS.AllowedOrigins
		r.Use(cors.New(cc))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Platform webhook
	r.POST(WebhookPath, h.TelegramWebhook)

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Invites
		api.POST("/invites", h.CreateInvite)
		api.POST("/invites/:id/respond", h.RespondInvite)

		// Surveys
		api.POST("/surveys/:id/respond", h.RespondSurvey)

		// Reviews
		api.POST("/reviews/toggle", h.ToggleReview)

		// Notifications
		api.POST("/notifications/:id/read", h.MarkNotificationRead)
	}

	// List endpoints return bodies worth compressing.
	lists := api.Group("", gzip.Gzip(gzip.DefaultCompression))
	{
		lists.GET("/invites", h.ListInvites)
		lists.GET("/reviews", h.GetReviews)
		lists.GET("/notifications", h.ListNotifications)
	}
}

// corsConfig returns the shared CORS settings; callers pick the origin mode.
func corsConfig() cors.Config {
	return cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
		AllowCredentials: false, // must remain false with AllowAllOrigins
		MaxAge:           12 * time.Hour,
	}
}

// prefixedIdempotentRoutes keys idempotentRoutes by full route template.
func prefixedIdempotentRoutes(apiBase string) map[string]idempotentRoute {
	prefix := apiBase
	if prefix == "/" {
		prefix = ""
	}
	out := make(map[string]idempotentRoute, len(idempotentRoutes))
	for route, ir := range idempotentRoutes {
		out[prefix+route] = ir
	}
	return out
}

// idempotencySubject reads the caller's platform id from the body of
// idempotent routes.
func idempotencySubject(routes map[string]idempotentRoute) func(*gin.Context) string {
	return func(c *gin.Context) string {
		ir, ok := routes[c.FullPath()]
		if !ok {
			return ""
		}
		return middleware.JSONBodyID(c, ir.subjectField)
	}
}

// idempotencyLookup reports whether subject already used key on route,
// matching the record the service replays. Routes without a scope and
// requests without a subject never replay.
func idempotencyLookup(db *gorm.DB, routes map[string]idempotentRoute) middleware.IdempotencyLookup {
	return func(ctx context.Context, route, subject, key string, now time.Time) (bool, error) {
		ir, ok := routes[route]
		if !ok || subject == "" {
			return false, nil
		}
		_, err := repo.GetIdempotency(ctx, db, ir.scope, subject, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
