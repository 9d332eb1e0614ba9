package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

func TestGetIdempotency_BlankScopeOrKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	rec, err := GetIdempotency(context.Background(), db, "u1", "   ", "k1", now)
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for empty scope, got (%v, %v)", rec, err)
	}
	rec, err = GetIdempotency(context.Background(), db, "u1", "requests.borrow", "", now)
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for empty key, got (%v, %v)", rec, err)
	}
}

func TestGetIdempotency_ExpiredOrMissing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	exp := &domain.Idempotency{
		ID:         "expired",
		UserID:     "u1",
		Scope:      "requests.borrow",
		Key:        "k1",
		ResourceID: "r1",
		Status:     201,
		CreatedAt:  now.Add(-2 * time.Hour),
		ExpiresAt:  now.Add(-time.Hour),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	rec, err := GetIdempotency(context.Background(), db, "u1", "requests.borrow", "k1", now)
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for expired, got (%v, %v)", rec, err)
	}

	rec2, err2 := GetIdempotency(context.Background(), db, "u1", "requests.borrow", "missing", now)
	if rec2 != nil || err2 != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for missing, got (%v, %v)", rec2, err2)
	}
}

func TestGetIdempotency_Success_ScopedPerEndpoint(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	ok := &domain.Idempotency{
		ID:         "ok",
		UserID:     "u1",
		Scope:      "requests.return",
		Key:        "k2",
		ResourceID: "r9",
		Status:     201,
		CreatedAt:  now.Add(-time.Minute),
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := db.Create(ok).Error; err != nil {
		t.Fatalf("seed ok: %v", err)
	}

	rec, err := GetIdempotency(context.Background(), db, "u1", "requests.return", "k2", now)
	if err != nil {
		t.Fatalf("GetIdempotency success err: %v", err)
	}
	if rec == nil || rec.ResourceID != "r9" || rec.Status != 201 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// Same key under another scope is a different record.
	if _, err := GetIdempotency(context.Background(), db, "u1", "requests.borrow", "k2", now); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for other scope, got %v", err)
	}
}

func TestCreateIdempotency_SuccessAndDuplicate(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})

	ttl := 90 * time.Minute
	start := time.Now().UTC()

	rec, err := CreateIdempotency(context.Background(), db, "u9", "requests.borrow", "k9", "r9", 201, ttl)
	if err != nil {
		t.Fatalf("CreateIdempotency error: %v", err)
	}
	if rec == nil || rec.ID == "" || rec.UserID != "u9" || rec.Scope != "requests.borrow" || rec.Key != "k9" || rec.ResourceID != "r9" || rec.Status != 201 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	// Loose bound to avoid timing flakes.
	if !(rec.ExpiresAt.After(start) && rec.ExpiresAt.Before(start.Add(2*time.Hour))) {
		t.Fatalf("unexpected ExpiresAt: %v", rec.ExpiresAt)
	}

	_, err2 := CreateIdempotency(context.Background(), db, "u9", "requests.borrow", "k9", "rX", 200, ttl)
	if err2 != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err2)
	}
}

// Generic DB error path: attempt insert without migrating the table.
func TestCreateIdempotency_Error_NoTable(t *testing.T) {
	db := newTestDB(t)
	_, err := CreateIdempotency(context.Background(), db, "uX", "s", "kX", "rX", 200, time.Minute)
	if err == nil {
		t.Fatalf("expected error when table is missing")
	}
	if err == ErrDuplicate {
		t.Fatalf("expected non-duplicate error, got ErrDuplicate")
	}
}

func TestPurgeExpiredIdempotency(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "s", "live", "r1", 201, time.Hour); err != nil {
		t.Fatalf("seed live: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "u1", "s", "dead", "r2", 201, time.Millisecond); err != nil {
		t.Fatalf("seed dead: %v", err)
	}

	n, err := PurgeExpiredIdempotency(ctx, db, time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("PurgeExpiredIdempotency: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged row, got %d", n)
	}
}
