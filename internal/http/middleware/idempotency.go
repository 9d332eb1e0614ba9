// Package middleware contains the Gin middleware shared by the circulation
// API: identity, request ids and logging, metrics, rate limiting, security
// headers and idempotency keys.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's key for a retry-safe submission.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set on responses served from a stored result.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemRecord = "idem.record"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyRecord is the stored outcome of an earlier submission.
type IdempotencyRecord struct {
	ResourceID string
	Status     int
}

// IdempotencyLookup returns the live record for (userID, scope, key), or nil
// when there is none. scope is the matched route template, so the same key
// may be reused on different endpoints.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (*IdempotencyRecord, error)

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length; <= 0 means 200.
	MaxLen int
	// Pattern restricts the key alphabet; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyValidator validates the Idempotency-Key header on unsafe
// methods and looks up a prior result. A hit is stashed for the handler (see
// ReplayRecord) and exempts the request from rate limiting. Lookup failures
// are ignored so the request is processed normally.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			rec, err := lookup(c.Request.Context(), UserID(c), IdempotencyScope(c), key, time.Now().UTC())
			if err == nil && rec != nil {
				c.Set(ctxKeyIdemRecord, rec)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

// IdempotencyScope names the operation a key belongs to.
func IdempotencyScope(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return c.Request.Method + " " + p
	}
	return c.Request.Method + " " + c.Request.URL.Path
}

// GetIdempotencyKey returns the validated key, if any.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// ReplayRecord returns the stored result when this request repeats a
// completed submission.
func ReplayRecord(c *gin.Context) (*IdempotencyRecord, bool) {
	v, ok := c.Get(ctxKeyIdemRecord)
	if !ok {
		return nil, false
	}
	rec, ok := v.(*IdempotencyRecord)
	return rec, ok && rec != nil
}

// IsReplay reports whether ReplayRecord would return a record.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayRecord(c)
	return ok
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
