// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Title model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - When a compare-and-swap update matches no row, functions return ErrStale.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Usage:
//
//	// Within a service layer
//	t, err := repo.GetTitle(ctx, tx, titleID)
//	if errors.Is(err, repo.ErrNotFound) {
//	    // handle missing
//	} else if err != nil {
//	    // handle DB failure
//	}
//
// The repository is wrapped by the circulation services (see
// services.Circulation) which enforce state transitions and atomicity.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrStale is returned by conditional updates when the row no longer holds
// the expected status or version (another writer got there first).
var ErrStale = errors.New("stale record")

// CreateTitle inserts a catalog title with a random UUID and UTC timestamps.
func CreateTitle(ctx context.Context, db *gorm.DB, name, coverURL string) (*domain.Title, error) {
	now := time.Now().UTC()
	t := &domain.Title{
		ID:        uuid.NewString(),
		Name:      name,
		CoverURL:  coverURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// GetTitle fetches a title by ID, or ErrNotFound if missing.
func GetTitle(ctx context.Context, db *gorm.DB, id string) (*domain.Title, error) {
	var t domain.Title
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTitlesPage returns titles ordered by name, then id.
func ListTitlesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Title, error) {
	var out []domain.Title
	err := db.WithContext(ctx).
		Order("name ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountTitles returns the number of catalog titles.
func CountTitles(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Title{}).Count(&total).Error
	return total, err
}
