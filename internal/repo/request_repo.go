package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

// pendingFirst orders requests PENDING, ACCEPTED, DENIED, CANCELLED.
const pendingFirst = "CASE status WHEN 'PENDING' THEN 0 WHEN 'ACCEPTED' THEN 1 WHEN 'DENIED' THEN 2 ELSE 3 END"

// CreateRequest inserts r as a PENDING request, assigning an ID and
// timestamps when unset.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.Request) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	r.Status = domain.RequestPending
	return db.WithContext(ctx).Create(r).Error
}

// GetRequest fetches a single request by ID, or ErrNotFound if missing.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.Request, error) {
	var r domain.Request
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// HasPendingBorrow reports whether userID already has a PENDING borrow
// request for titleID.
func HasPendingBorrow(ctx context.Context, db *gorm.DB, userID, titleID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("user_id = ? AND title_id = ? AND type = ? AND status = ?",
			userID, titleID, domain.RequestBorrowing, domain.RequestPending).
		Count(&n).Error
	return n > 0, err
}

// ListPendingReturnsForLoan returns PENDING RETURNING requests that reference
// loanID, oldest first.
func ListPendingReturnsForLoan(ctx context.Context, db *gorm.DB, loanID string) ([]domain.Request, error) {
	var out []domain.Request
	err := db.WithContext(ctx).
		Where("loan_id = ? AND type = ? AND status = ?", loanID, domain.RequestReturning, domain.RequestPending).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListRequestsByUser returns userID's requests, newest first.
func ListRequestsByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Request, error) {
	var out []domain.Request
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Find(&out).Error
	return out, err
}

// ListRequestsPage returns a page of all requests with PENDING ones first,
// then newest first within each status.
func ListRequestsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Request, error) {
	var out []domain.Request
	err := db.WithContext(ctx).
		Order(pendingFirst).
		Order("created_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountRequests returns the total number of requests.
func CountRequests(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Request{}).Count(&total).Error
	return total, err
}

// TransitionRequest moves a request out of from into to when it still holds
// from. A non-nil loanID is linked in the same statement. It returns ErrStale
// when no row matched.
func TransitionRequest(ctx context.Context, db *gorm.DB, id string, from, to domain.RequestStatus, loanID *string) error {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if loanID != nil {
		updates["loan_id"] = *loanID
	}
	res := db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
