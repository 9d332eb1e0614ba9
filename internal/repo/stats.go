// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) on the per-user list endpoints.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

// LoansStats returns the number of userID's loans and the greatest
// UpdatedAt among them. When the user has no loans, the count is 0 and
// maxUpdatedAt is nil.
func LoansStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return latestStats(db.WithContext(ctx).Model(&domain.Loan{}).Where("user_id = ?", userID))
}

// FinesStats returns the number of userID's outstanding fines and the
// greatest UpdatedAt among them. Settled fines are not counted.
func FinesStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return latestStats(db.WithContext(ctx).Model(&domain.Fine{}).Where("user_id = ?", userID))
}

// RequestsStats returns the number of userID's requests and the greatest
// UpdatedAt among them.
func RequestsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return latestStats(db.WithContext(ctx).Model(&domain.Request{}).Where("user_id = ?", userID))
}

func latestStats(q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
