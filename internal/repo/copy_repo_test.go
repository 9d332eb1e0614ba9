package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

// seedCopies creates a title with one AVAILABLE copy per given creation time.
func seedCopies(t *testing.T, db *gorm.DB, created ...time.Time) (*domain.Title, []domain.Copy) {
	t.Helper()
	ctx := context.Background()
	title, err := CreateTitle(ctx, db, "Dune", "")
	if err != nil {
		t.Fatalf("CreateTitle: %v", err)
	}
	out := make([]domain.Copy, 0, len(created))
	for _, at := range created {
		c := domain.Copy{ID: "c-" + at.Format("150405"), TitleID: title.ID, Condition: "Good",
			Status: domain.CopyAvailable, CreatedAt: at, UpdatedAt: at}
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed copy: %v", err)
		}
		out = append(out, c)
	}
	return title, out
}

func TestCreateCopy_StartsAvailable(t *testing.T) {
	db := newCirculationDB(t)
	title, err := CreateTitle(context.Background(), db, "Dune", "")
	if err != nil {
		t.Fatalf("CreateTitle: %v", err)
	}
	c, err := CreateCopy(context.Background(), db, title.ID, "New")
	if err != nil {
		t.Fatalf("CreateCopy: %v", err)
	}
	if c.ID == "" || c.Status != domain.CopyAvailable || c.Version != 0 || c.TitleID != title.ID {
		t.Fatalf("unexpected copy: %+v", c)
	}
}

func TestFindAvailableCopy_OldestFirstAndSkipsBorrowed(t *testing.T) {
	db := newCirculationDB(t)
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	title, copies := seedCopies(t, db, base.Add(2*time.Hour), base, base.Add(time.Hour))

	got, err := FindAvailableCopy(context.Background(), db, title.ID)
	if err != nil {
		t.Fatalf("FindAvailableCopy: %v", err)
	}
	if got.ID != copies[1].ID {
		t.Fatalf("expected oldest copy %s, got %s", copies[1].ID, got.ID)
	}

	if err := TransitionCopy(context.Background(), db, got.ID, domain.CopyAvailable, domain.CopyBorrowed, got.Version); err != nil {
		t.Fatalf("TransitionCopy: %v", err)
	}
	next, err := FindAvailableCopy(context.Background(), db, title.ID)
	if err != nil {
		t.Fatalf("FindAvailableCopy second: %v", err)
	}
	if next.ID != copies[2].ID {
		t.Fatalf("expected next-oldest copy %s, got %s", copies[2].ID, next.ID)
	}
}

func TestFindAvailableCopy_NoneReturnsNotFound(t *testing.T) {
	db := newCirculationDB(t)
	_, err := FindAvailableCopy(context.Background(), db, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransitionCopy_CompareAndSwap(t *testing.T) {
	db := newCirculationDB(t)
	ctx := context.Background()
	_, copies := seedCopies(t, db, time.Now().UTC())
	id := copies[0].ID

	if err := TransitionCopy(ctx, db, id, domain.CopyAvailable, domain.CopyBorrowed, 0); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	// Same expected version again loses the race.
	if err := TransitionCopy(ctx, db, id, domain.CopyAvailable, domain.CopyBorrowed, 0); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	got, err := GetCopy(ctx, db, id)
	if err != nil {
		t.Fatalf("GetCopy: %v", err)
	}
	if got.Status != domain.CopyBorrowed || got.Version != 1 {
		t.Fatalf("unexpected copy after CAS: %+v", got)
	}
}

func TestCountCopiesByStatus(t *testing.T) {
	db := newCirculationDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	title, copies := seedCopies(t, db, now, now.Add(time.Second), now.Add(2*time.Second))
	if err := TransitionCopy(ctx, db, copies[0].ID, domain.CopyAvailable, domain.CopyLost, 0); err != nil {
		t.Fatalf("TransitionCopy: %v", err)
	}

	counts, err := CountCopiesByStatus(ctx, db, title.ID)
	if err != nil {
		t.Fatalf("CountCopiesByStatus: %v", err)
	}
	if counts[domain.CopyAvailable] != 2 || counts[domain.CopyLost] != 1 || counts[domain.CopyBorrowed] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	all, err := ListCopiesByTitle(ctx, db, title.ID)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListCopiesByTitle: len=%d err=%v", len(all), err)
	}
}
