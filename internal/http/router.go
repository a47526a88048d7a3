// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/jmartel/go-convo-backend/internal/config"
	"github.com/jmartel/go-convo-backend/internal/domain"
	"github.com/jmartel/go-convo-backend/internal/http/handlers"
	"github.com/jmartel/go-convo-backend/internal/http/middleware"
	"github.com/jmartel/go-convo-backend/internal/repo"
	"github.com/jmartel/go-convo-backend/internal/services"
)

// conversationRepoShim adapts the repository free functions to the
// services.ConversationRepo interface expected by ConversationService. This
// keeps services decoupled from the concrete repo package while reusing the
// existing functions.
type conversationRepoShim struct{}

func (conversationRepoShim) CreateConversation(ctx context.Context, db *gorm.DB, userID *string, title string) (*domain.Conversation, error) {
	return repo.CreateConversation(ctx, db, userID, title)
}

func (conversationRepoShim) GetConversation(ctx context.Context, db *gorm.DB, id int64) (*domain.Conversation, error) {
	return repo.GetConversation(ctx, db, id)
}

func (conversationRepoShim) ListConversations(ctx context.Context, db *gorm.DB, userID *string, limit, offset int) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, db, userID, limit, offset)
}

func (conversationRepoShim) CountConversations(ctx context.Context, db *gorm.DB, userID *string) (int64, error) {
	return repo.CountConversations(ctx, db, userID)
}

func (conversationRepoShim) UpdateConversationTitle(ctx context.Context, db *gorm.DB, id int64, title string) (bool, error) {
	return repo.UpdateConversationTitle(ctx, db, id, title)
}

func (conversationRepoShim) DeleteConversation(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return repo.DeleteConversation(ctx, db, id)
}

func (conversationRepoShim) SearchConversations(ctx context.Context, db *gorm.DB, query string, userID *string, limit int) ([]domain.Conversation, error) {
	return repo.SearchConversations(ctx, db, query, userID, limit)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given
// Gin engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics and /metrics endpoint
//  7. CORS and security headers
//
// The rate limiter is attached per-route to the write endpoints only, so
// read traffic is never throttled.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Response compression for JSON payloads
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) CORS posture (allow all when none configured; the browser client
	// is served from a separate static origin)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	// Fallbacks: undefined routes get the standard envelope
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Dependency injection: services ← repo/db
	convSvc := services.NewConversationService(db, conversationRepoShim{})
	msgSvc := services.NewMessageService(db)
	statsSvc := services.NewStatsService(db)
	h := handlers.New(convSvc, msgSvc, statsSvc)

	// Token-bucket limiter for the write endpoints, keyed by client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	write := rl.Handler()

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/health", handlers.Health(db))

		// Conversations
		api.POST("/conversations", write, h.CreateConversation)
		api.GET("/conversations", h.ListConversations)
		api.GET("/conversations/:id", h.GetConversation)
		api.PUT("/conversations/:id", write, h.UpdateConversation)
		api.DELETE("/conversations/:id", write, h.DeleteConversation)
		api.GET("/conversations/search/:query", h.SearchConversations)

		// Messages (nested)
		api.POST("/conversations/:id/messages", write, h.AppendMessage)
		api.GET("/conversations/:id/messages", h.ListMessages)
		api.GET("/conversations/:id/messages/recent", h.RecentMessages)

		// Stats
		api.GET("/conversations/:id/stats", h.ConversationStats)
		api.GET("/stats", h.GlobalStats)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader. Requests exceeding the cap error on body read.
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
