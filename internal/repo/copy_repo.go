package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

// CreateCopy inserts a new AVAILABLE copy of titleID.
func CreateCopy(ctx context.Context, db *gorm.DB, titleID, condition string) (*domain.Copy, error) {
	now := time.Now().UTC()
	c := &domain.Copy{
		ID:        uuid.NewString(),
		TitleID:   titleID,
		Condition: condition,
		Status:    domain.CopyAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetCopy fetches a single copy by ID, or ErrNotFound if missing.
func GetCopy(ctx context.Context, db *gorm.DB, id string) (*domain.Copy, error) {
	var c domain.Copy
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindAvailableCopy returns the oldest AVAILABLE copy of titleID (ties broken
// by id), or ErrNotFound when the title has none on the shelf.
func FindAvailableCopy(ctx context.Context, db *gorm.DB, titleID string) (*domain.Copy, error) {
	var c domain.Copy
	err := db.WithContext(ctx).
		Where("title_id = ? AND status = ?", titleID, domain.CopyAvailable).
		Order("created_at ASC, id ASC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCopiesByTitle returns every copy of titleID in acquisition order.
func ListCopiesByTitle(ctx context.Context, db *gorm.DB, titleID string) ([]domain.Copy, error) {
	var out []domain.Copy
	err := db.WithContext(ctx).
		Where("title_id = ?", titleID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountCopiesByStatus returns the number of copies of titleID per status.
// Statuses with no copies are absent from the map.
func CountCopiesByStatus(ctx context.Context, db *gorm.DB, titleID string) (map[domain.CopyStatus]int64, error) {
	var rows []struct {
		Status domain.CopyStatus
		N      int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Copy{}).
		Select("status, COUNT(*) AS n").
		Where("title_id = ?", titleID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.CopyStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// TransitionCopy moves a copy from one status to another if, and only if, the
// row still holds the expected status and version. The version is bumped on
// success. It returns ErrStale when no row matched.
func TransitionCopy(ctx context.Context, db *gorm.DB, id string, from, to domain.CopyStatus, version int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Copy{}).
		Where("id = ? AND status = ? AND version = ?", id, from, version).
		Updates(map[string]any{
			"status":     to,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
