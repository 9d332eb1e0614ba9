package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-library-circulation/internal/config"
	"github.com/tbourn/go-library-circulation/internal/domain"
	"github.com/tbourn/go-library-circulation/internal/http/middleware"
	"github.com/tbourn/go-library-circulation/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api/v1",
		RateRPS:        100,
		RateBurst:      50,
		IdempotencyTTL: time.Hour,
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
		Circulation: config.CirculationConfig{
			LoanPeriod:       14 * 24 * time.Hour,
			FinePerDay:       5000,
			MaxClaimAttempts: 3,
			NotifyTimeout:    time.Second,
		},
	}
}

func newRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	svc := NewServices(db, cfg.Circulation)
	t.Cleanup(svc.Circulation.Wait)
	r := gin.New()
	RegisterRoutes(r, db, svc, cfg)
	return r, db
}

func serve(r *gin.Engine, method, path string, body []byte, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatal("expected X-Request-ID header")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}

	w = serve(r, http.MethodGet, "/metrics", nil, nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	w = serve(r, http.MethodGet, "/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	w = serve(r, http.MethodPost, "/health", nil, nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/health", nil, map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_StaffGuard(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api/v1/admin/loans", nil, map[string]string{"X-User-ID": "reader"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("member on staff route = %d, want 403", w.Code)
	}
	w = serve(r, http.MethodGet, "/api/v1/admin/loans", nil, map[string]string{"X-User-ID": "lib", "X-User-Role": "staff"})
	if w.Code != http.StatusOK {
		t.Fatalf("staff on staff route = %d, want 200", w.Code)
	}
}

func TestRegisterRoutes_JWTMode(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "test-secret"
	r, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/api/v1/loans/mine", nil, map[string]string{"X-User-ID": "spoofed"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("headers without token = %d, want 401", w.Code)
	}

	tok, err := middleware.IssueToken([]byte("test-secret"), "reader-7", middleware.RoleMember, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	w = serve(r, http.MethodGet, "/api/v1/loans/mine", nil, map[string]string{"Authorization": "Bearer " + tok})
	if w.Code != http.StatusOK {
		t.Fatalf("with token = %d, want 200 (%s)", w.Code, w.Body.String())
	}

	// Ops endpoints stay open.
	if w = serve(r, http.MethodGet, "/health", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
}

func TestRegisterRoutes_IdempotentBorrowPersists(t *testing.T) {
	r, db := newRouter(t, testConfig())
	ctx := context.Background()

	title, err := repo.CreateTitle(ctx, db, "Kindred", "")
	if err != nil {
		t.Fatalf("CreateTitle: %v", err)
	}
	body, _ := json.Marshal(map[string]string{"title_id": title.ID})
	hdr := map[string]string{"X-User-ID": "reader-1", middleware.HeaderIdempotencyKey: "k-1"}

	w1 := serve(r, http.MethodPost, "/api/v1/requests/borrow", body, hdr)
	if w1.Code != http.StatusCreated {
		t.Fatalf("first submit = %d (%s)", w1.Code, w1.Body.String())
	}
	w2 := serve(r, http.MethodPost, "/api/v1/requests/borrow", body, hdr)
	if w2.Code != http.StatusCreated || w2.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay = %d replayed=%q", w2.Code, w2.Header().Get(middleware.HeaderIdempotencyReplayed))
	}

	var a, b domain.Request
	_ = json.Unmarshal(w1.Body.Bytes(), &a)
	_ = json.Unmarshal(w2.Body.Bytes(), &b)
	if a.ID == "" || a.ID != b.ID {
		t.Fatalf("replay id %q != %q", b.ID, a.ID)
	}

	rec, err := repo.GetIdempotency(ctx, db, "reader-1", "POST /api/v1/requests/borrow", "k-1", time.Now().UTC())
	if err != nil || rec.ResourceID != a.ID {
		t.Fatalf("stored record = %+v, %v", rec, err)
	}
}

func TestIdempotencyStore_DuplicateIsNotAnError(t *testing.T) {
	db := newTestDB(t)
	s := idempotencyStore{db: db, ttl: time.Hour}
	ctx := context.Background()

	if err := s.Remember(ctx, "u1", "POST /x", "k", "r1", http.StatusCreated); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if err := s.Remember(ctx, "u1", "POST /x", "k", "r2", http.StatusCreated); err != nil {
		t.Fatalf("duplicate Remember: %v", err)
	}
	rec, err := s.lookup(ctx, "u1", "POST /x", "k", time.Now().UTC())
	if err != nil || rec == nil || rec.ResourceID != "r1" {
		t.Fatalf("lookup = %+v, %v", rec, err)
	}
	miss, err := s.lookup(ctx, "u1", "POST /x", "other", time.Now().UTC())
	if err != nil || miss != nil {
		t.Fatalf("miss lookup = %+v, %v", miss, err)
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	sqlDB, _ := db.DB()
	_ = sqlDB.Close()

	r := gin.New()
	r.GET("/health", health(db))
	w := serve(r, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /health with closed db = %d, want 503", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := serve(r, http.MethodPost, "/echo", []byte("0123456789AB"), nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := serve(r, http.MethodGet, path, nil, nil)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}
