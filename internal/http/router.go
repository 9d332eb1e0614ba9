// Package httpapi wires the HTTP transport (Gin) to the circulation services,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, identity, idempotency and rate
// limiting.
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

	"github.com/tbourn/go-library-circulation/docs"
	"github.com/tbourn/go-library-circulation/internal/config"
	"github.com/tbourn/go-library-circulation/internal/http/handlers"
	"github.com/tbourn/go-library-circulation/internal/http/middleware"
	"github.com/tbourn/go-library-circulation/internal/repo"
	"github.com/tbourn/go-library-circulation/internal/services"
)

// Services are the application services served over HTTP.
type Services struct {
	Catalog       *services.Catalog
	Notifications *services.SubscriptionNotifier
	Circulation   *services.Circulation
}

// NewServices wires the circulation services over db using the lending rules
// in rules. Back-in-stock notifications go to subscribers' inboxes.
func NewServices(db *gorm.DB, rules config.CirculationConfig) Services {
	catalog := services.NewCatalog(db)
	notes := &services.SubscriptionNotifier{DB: db}
	circ := services.NewCirculation(db, catalog, notes, services.CirculationOptions{
		LoanPeriod:       rules.LoanPeriod,
		UnitPenalty:      rules.FinePerDay,
		MaxClaimAttempts: rules.MaxClaimAttempts,
		NotifyTimeout:    rules.NotifyTimeout,
	})
	return Services{Catalog: catalog, Notifications: notes, Circulation: circ}
}

// idempotencyStore persists Idempotency-Key outcomes through repo.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Remember stores the outcome. A concurrent duplicate is not an error: the
// first writer's record wins.
func (s idempotencyStore) Remember(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resourceID, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

func (s idempotencyStore) lookup(ctx context.Context, userID, scope, key string, now time.Time) (*middleware.IdempotencyRecord, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &middleware.IdempotencyRecord{ResourceID: rec.ResourceID, Status: rec.Status}, nil
}

// statsSource feeds the handlers' weak ETags.
type statsSource struct{ db *gorm.DB }

func (s statsSource) RequestsStats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.RequestsStats(ctx, s.db, userID)
}

func (s statsSource) LoansStats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.LoansStats(ctx, s.db, userID)
}

func (s statsSource) FinesStats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.FinesStats(ctx, s.db, userID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to r and mounts
// the versioned API under cfg.APIBasePath, with staff endpoints under
// /admin.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Recovery: JSON 500 on panic
//  4. Body size limiter
//  5. Metrics
//  6. Gzip (optional), CORS and security headers
//
// and on the API group:
//  7. Identity (header or bearer token)
//  8. Access log with redaction, scoped to the caller
//  9. Idempotency validator (before rate limiting to allow bypass on replay)
//  10. Rate limiter (per user/IP)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))
	r.Use(middleware.Metrics())
	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	useCORS(r, cfg.CORS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	idem := idempotencyStore{db: db, ttl: cfg.IdempotencyTTL}
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	h := handlers.New(handlers.Deps{
		Catalog:       svc.Catalog,
		Copies:        svc.Circulation.Copies,
		Requests:      svc.Circulation.Requests,
		Loans:         svc.Circulation.Loans,
		Fines:         svc.Circulation.Fines,
		Circulation:   svc.Circulation,
		Notifications: svc.Notifications,
		Idempotency:   idem,
		Stats:         statsSource{db: db},
	})

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(
		middleware.Identity(middleware.IdentityOptions{JWTSecret: cfg.Auth.JWTSecret}),
		middleware.AccessLog(middleware.NewRedactor(middleware.RedactOptions{})),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.lookup),
		rl.Handler(),
	)
	h.Register(api, api.Group("/admin", middleware.RequireStaff()))
}

// useCORS installs gin-contrib/cors. Without an allowlist every origin is
// accepted (credentials stay disabled); otherwise allowed origins are echoed.
func useCORS(r *gin.Engine, c config.CORSConfig) {
	base := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-User-ID", "X-User-Role", "If-None-Match",
			middleware.HeaderIdempotencyKey,
		},
		ExposeHeaders: []string{
			"X-Request-ID", "Content-Length", "ETag", "Retry-After",
			middleware.HeaderIdempotencyReplayed,
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 {
		// Set ACAO even without an Origin header (simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		base.AllowAllOrigins = true
		r.Use(cors.New(base))
		return
	}

	allowed := make(map[string]struct{}, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
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
	base.AllowOrigins = c.AllowedOrigins
	r.Use(cors.New(base))
}

// health reports liveness plus database reachability.
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// limitBody caps the request body at maxBytes; larger bodies fail to read.
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
