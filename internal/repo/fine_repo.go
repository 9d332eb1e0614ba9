package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

// CreateFine inserts a fine owed by userID, optionally tied to loanID.
func CreateFine(ctx context.Context, db *gorm.DB, userID string, loanID *string, amount int64, description string) (*domain.Fine, error) {
	now := time.Now().UTC()
	f := &domain.Fine{
		ID:          uuid.NewString(),
		UserID:      userID,
		LoanID:      loanID,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		return nil, err
	}
	return f, nil
}

// ListFinesByUser returns userID's outstanding fines, newest first.
func ListFinesByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Fine, error) {
	var out []domain.Fine
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Find(&out).Error
	return out, err
}

// ListFinesPage returns a page of all outstanding fines, newest first.
func ListFinesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Fine, error) {
	var out []domain.Fine
	err := db.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountFines returns the number of outstanding fines.
func CountFines(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Fine{}).Count(&total).Error
	return total, err
}

// SumOutstanding returns the total amount userID currently owes.
func SumOutstanding(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Fine{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}

// SettleFine removes an outstanding fine. The row is soft-deleted, so it
// disappears from every query above. It returns ErrNotFound when the fine
// does not exist or was already settled.
func SettleFine(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Fine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
