package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("bad log line %q: %v", lines[len(lines)-1], err)
	}
	return m
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/rid", func(c *gin.Context) {
		if c.GetString(requestIDKey) == "" {
			t.Fatalf("request id not in context")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rid", nil))
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/rid", nil)
	req.Header.Set("x-request-id", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("propagated id = %q", got)
	}
}

func TestAccessLog_LevelsAndFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Identity(IdentityOptions{}), AccessLog(NewRedactor(RedactOptions{MaskHeaders: []string{"X-Library-Card"}})))
	r.GET("/loans/:id", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("inside handler")
		c.Status(http.StatusOK)
	})
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/loans/l1?email=jane@example.com", nil)
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("X-User-Role", "staff")
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Library-Card", "1234")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"message":"inside handler"`) || !strings.Contains(buf.String(), `"user_id":"alice"`) {
		t.Fatalf("scoped logger lacks request fields: %s", buf.String())
	}
	m := lastLine(t, buf)
	if m["level"] != "info" || m["path"] != "/loans/:id" || m["role"] != "staff" || m["status"] != float64(200) {
		t.Fatalf("unexpected access line: %v", m)
	}
	if q := m["query"].(string); strings.Contains(q, "jane@example.com") {
		t.Fatalf("email leaked: %q", q)
	}
	headers := m["headers"].(map[string]any)
	if headers["Authorization"] != "[REDACTED]" || headers["X-Library-Card"] != "[REDACTED]" {
		t.Fatalf("headers not masked: %v", headers)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))
	if lvl := lastLine(t, buf)["level"]; lvl != "warn" {
		t.Fatalf("4xx level = %v", lvl)
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	if lvl := lastLine(t, buf)["level"]; lvl != "error" {
		t.Fatalf("5xx level = %v", lvl)
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing/route", nil))
	if p := lastLine(t, buf)["path"]; p != "/missing/route" {
		t.Fatalf("unmatched path = %v", p)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	r.GET("/panic-after-write", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(requestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "internal_error" || body["request_id"] != "rid-1" {
		t.Fatalf("body = %v", body)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("panic not logged")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic-after-write", nil))
	if w.Code != http.StatusOK || w.Body.String() != "partial" {
		t.Fatalf("written response must be left alone: %d %q", w.Code, w.Body.String())
	}
}

func TestLoggerFrom_Fallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatalf("fallback logger must not be nil")
	}
	c.Set(loggerKey, "not a logger")
	if LoggerFrom(c) == nil {
		t.Fatalf("wrong type must fall back")
	}
}

func TestTruncate(t *testing.T) {
	if truncate("abcdef", 3) != "abc…" || truncate("abc", 3) != "abc" || truncate("abc", 0) != "abc" {
		t.Fatalf("truncate mismatch")
	}
}
