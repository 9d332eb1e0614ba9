package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

// CreateLoan inserts l, assigning an ID and timestamps when unset.
func CreateLoan(ctx context.Context, db *gorm.DB, l *domain.Loan) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	return db.WithContext(ctx).Create(l).Error
}

// GetLoan fetches a single loan by ID, or ErrNotFound if missing.
func GetLoan(ctx context.Context, db *gorm.DB, id string) (*domain.Loan, error) {
	var l domain.Loan
	if err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLoansByUser returns userID's loans, most recent loan date first.
// A nil status returns loans in every state.
func ListLoansByUser(ctx context.Context, db *gorm.DB, userID string, status *domain.LoanStatus) ([]domain.Loan, error) {
	var out []domain.Loan
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	err := q.Order("loan_date DESC, id ASC").Find(&out).Error
	return out, err
}

// ListLoansPage returns a page of all loans, most recent loan date first.
func ListLoansPage(ctx context.Context, db *gorm.DB, status *domain.LoanStatus, offset, limit int) ([]domain.Loan, error) {
	var out []domain.Loan
	q := db.WithContext(ctx)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	err := q.Order("loan_date DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountLoans returns the number of loans, optionally restricted to status.
func CountLoans(ctx context.Context, db *gorm.DB, status *domain.LoanStatus) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Loan{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	err := q.Count(&total).Error
	return total, err
}

// ListOverdueLoans returns BORROWED loans whose due date is before asOf,
// oldest due date first.
func ListOverdueLoans(ctx context.Context, db *gorm.DB, asOf time.Time) ([]domain.Loan, error) {
	var out []domain.Loan
	err := db.WithContext(ctx).
		Where("status = ? AND due_date < ?", domain.LoanBorrowed, asOf).
		Order("due_date ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountOpenLoansForCopy returns how many BORROWED loans reference copyID.
func CountOpenLoansForCopy(ctx context.Context, db *gorm.DB, copyID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Loan{}).
		Where("copy_id = ? AND status = ?", copyID, domain.LoanBorrowed).
		Count(&total).Error
	return total, err
}

// TransitionLoan moves a loan from one status to another when the row still
// holds the expected status and version. returnDate is written as given, so
// pass nil for transitions that do not return the copy. It returns ErrStale
// when no row matched.
func TransitionLoan(ctx context.Context, db *gorm.DB, id string, from, to domain.LoanStatus, version int64, returnDate *time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Loan{}).
		Where("id = ? AND status = ? AND version = ?", id, from, version).
		Updates(map[string]any{
			"status":      to,
			"return_date": returnDate,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
