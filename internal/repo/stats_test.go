package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// newCirculationDB migrates every circulation table.
func newCirculationDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newTestDB(t,
		&domain.Title{}, &domain.Copy{}, &domain.Loan{}, &domain.Request{},
		&domain.Fine{}, &domain.Subscription{}, &domain.Notification{},
	)
}

func TestLoansStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := LoansStats(context.Background(), db, "u1")
	if err == nil {
		t.Fatalf("expected error due to missing loans table")
	}
}

func TestLoansStats_ZeroRows(t *testing.T) {
	db := newCirculationDB(t)
	count, maxAt, err := LoansStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("LoansStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestLoansStats_Success_FilterAndMax(t *testing.T) {
	db := newCirculationDB(t)

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for u1
	t3 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)   // other user, later

	rows := []domain.Loan{
		{ID: "l1", UserID: "u1", CopyID: "c1", TitleID: "t1", TitleName: "A", LoanDate: t1, DueDate: t1, Status: domain.LoanBorrowed, CreatedAt: t1, UpdatedAt: t1},
		{ID: "l2", UserID: "u1", CopyID: "c2", TitleID: "t1", TitleName: "A", LoanDate: t1, DueDate: t1, Status: domain.LoanReturned, CreatedAt: t1, UpdatedAt: t2},
		{ID: "l3", UserID: "u2", CopyID: "c3", TitleID: "t1", TitleName: "A", LoanDate: t1, DueDate: t1, Status: domain.LoanBorrowed, CreatedAt: t1, UpdatedAt: t3},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed loan %d: %v", i, err)
		}
	}

	count, maxAt, err := LoansStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("LoansStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count=2, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected maxUpdatedAt=%v, got %v", t2, maxAt)
	}
}

func TestFinesStats_IgnoresSettled(t *testing.T) {
	db := newCirculationDB(t)
	ctx := context.Background()

	f1, err := CreateFine(ctx, db, "u1", nil, 100, "a")
	if err != nil {
		t.Fatalf("CreateFine: %v", err)
	}
	if _, err := CreateFine(ctx, db, "u1", nil, 200, "b"); err != nil {
		t.Fatalf("CreateFine: %v", err)
	}
	if err := SettleFine(ctx, db, f1.ID); err != nil {
		t.Fatalf("SettleFine: %v", err)
	}

	count, maxAt, err := FinesStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("FinesStats error: %v", err)
	}
	if count != 1 || maxAt == nil {
		t.Fatalf("expected one outstanding fine, got (%d, %v)", count, maxAt)
	}
}

func TestRequestsStats_CountsOnlyOwner(t *testing.T) {
	db := newCirculationDB(t)
	ctx := context.Background()

	for _, u := range []string{"u1", "u1", "u2"} {
		r := &domain.Request{UserID: u, TitleID: "t1", TitleName: "A", Type: domain.RequestBorrowing}
		if err := CreateRequest(ctx, db, r); err != nil {
			t.Fatalf("CreateRequest: %v", err)
		}
	}
	count, _, err := RequestsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("RequestsStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2, got %d", count)
	}
}
