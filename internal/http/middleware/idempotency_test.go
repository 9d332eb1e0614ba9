package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type lookupCall struct {
	user, scope, key string
}

func idemRouter(t *testing.T, opts IdempotencyOptions, lookup IdempotencyLookup) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(IdentityOptions{}), IdempotencyValidator(opts, lookup))
	h := func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		if rec, ok := ReplayRecord(c); ok {
			c.JSON(rec.Status, gin.H{"replayed": rec.ResourceID, "key": key})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"key": key, "bypass": IsRateBypass(c)})
	}
	r.POST("/requests/borrow", h)
	r.GET("/requests/mine", h)
	return r
}

func TestIdempotency_NoHeaderSkipsLookup(t *testing.T) {
	called := false
	r := idemRouter(t, IdempotencyOptions{}, func(context.Context, string, string, string, time.Time) (*IdempotencyRecord, error) {
		called = true
		return nil, nil
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/requests/borrow", nil))
	if w.Code != http.StatusCreated || called {
		t.Fatalf("code=%d lookupCalled=%v", w.Code, called)
	}
}

func TestIdempotency_SafeMethodIgnoresKey(t *testing.T) {
	called := false
	r := idemRouter(t, IdempotencyOptions{}, func(context.Context, string, string, string, time.Time) (*IdempotencyRecord, error) {
		called = true
		return nil, nil
	})
	req := httptest.NewRequest(http.MethodGet, "/requests/mine", nil)
	req.Header.Set(HeaderIdempotencyKey, "!!! not even valid !!!")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated || called {
		t.Fatalf("GET must ignore idempotency: code=%d called=%v", w.Code, called)
	}
}

func TestIdempotency_InvalidKey(t *testing.T) {
	r := idemRouter(t, IdempotencyOptions{MaxLen: 8, Pattern: regexp.MustCompile(`^[a-z]+$`)}, nil)

	for _, key := range []string{"UPPER", "waytoolongkey", "sp ace"} {
		req := httptest.NewRequest(http.MethodPost, "/requests/borrow", nil)
		req.Header.Set(HeaderIdempotencyKey, key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("key %q: %d %s", key, w.Code, w.Body.String())
		}
	}
}

func TestIdempotency_FirstSubmissionThenReplay(t *testing.T) {
	var calls []lookupCall
	stored := map[string]*IdempotencyRecord{}
	lookup := func(_ context.Context, user, scope, key string, _ time.Time) (*IdempotencyRecord, error) {
		calls = append(calls, lookupCall{user, scope, key})
		return stored[user+"|"+scope+"|"+key], nil
	}
	r := idemRouter(t, IdempotencyOptions{}, lookup)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/requests/borrow", nil)
		req.Header.Set("X-User-ID", "alice")
		req.Header.Set(HeaderIdempotencyKey, "k-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send()
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"key":"k-1"`) || !strings.Contains(w.Body.String(), `"bypass":false`) {
		t.Fatalf("first: %d %s", w.Code, w.Body.String())
	}
	want := lookupCall{"alice", "POST /requests/borrow", "k-1"}
	if len(calls) != 1 || calls[0] != want {
		t.Fatalf("lookup args = %+v, want %+v", calls, want)
	}

	stored["alice|POST /requests/borrow|k-1"] = &IdempotencyRecord{ResourceID: "req-42", Status: http.StatusCreated}
	w = send()
	if !strings.Contains(w.Body.String(), `"replayed":"req-42"`) {
		t.Fatalf("replay: %s", w.Body.String())
	}
}

func TestIdempotency_LookupErrorIsIgnored(t *testing.T) {
	r := idemRouter(t, IdempotencyOptions{}, func(context.Context, string, string, string, time.Time) (*IdempotencyRecord, error) {
		return nil, errors.New("db down")
	})
	req := httptest.NewRequest(http.MethodPost, "/requests/borrow", nil)
	req.Header.Set(HeaderIdempotencyKey, "k")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("got %d", w.Code)
	}
}

func TestIdempotencyScope_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/nowhere", nil)
	if got := IdempotencyScope(c); got != "POST /nowhere" {
		t.Fatalf("scope = %q", got)
	}
	if IsReplay(c) {
		t.Fatalf("fresh context is not a replay")
	}
}
