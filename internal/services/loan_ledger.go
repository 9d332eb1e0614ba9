package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
	"github.com/tbourn/go-library-circulation/internal/repo"
)

// DefaultLoanPeriod is the borrowing period applied when none is configured.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// LoanLedger keeps the lending history. Loans are never deleted; the due
// date is fixed when the loan is opened.
type LoanLedger struct {
	// DB is the database handle; it may be transaction-bound (see WithTx).
	DB *gorm.DB

	// Period is added to the loan date to obtain the due date.
	Period time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// WithTx returns a copy of the ledger bound to tx.
func (s *LoanLedger) WithTx(tx *gorm.DB) *LoanLedger {
	cp := *s
	cp.DB = tx
	return &cp
}

func (s *LoanLedger) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *LoanLedger) period() time.Duration {
	if s.Period > 0 {
		return s.Period
	}
	return DefaultLoanPeriod
}

// Open creates a BORROWED loan of c for userID, due one period from now.
// The caller must have marked c BORROWED beforehand.
func (s *LoanLedger) Open(ctx context.Context, userID string, c *domain.Copy, titleName string) (*domain.Loan, error) {
	ctx, span := otel.Tracer("services/LoanLedger").Start(ctx, "Open",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("copy.id", c.ID),
		),
	)
	defer span.End()

	if userID == "" {
		return nil, ErrMissingUser
	}
	if c.Status != domain.CopyBorrowed {
		return nil, ErrCopyNotClaimed
	}
	now := s.now()
	l := &domain.Loan{
		UserID:    userID,
		CopyID:    c.ID,
		TitleID:   c.TitleID,
		TitleName: titleName,
		LoanDate:  now,
		DueDate:   now.Add(s.period()),
		Status:    domain.LoanBorrowed,
	}
	if err := repo.CreateLoan(ctx, s.DB, l); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("loan.id", l.ID))
	return l, nil
}

// Close marks a BORROWED loan RETURNED with return date now. Any other
// status yields ErrLoanNotBorrowed.
func (s *LoanLedger) Close(ctx context.Context, loanID string) (*domain.Loan, error) {
	now := s.now()
	return s.finish(ctx, loanID, domain.LoanReturned, &now)
}

// MarkNonReturnable closes a BORROWED loan whose copy will not come back.
func (s *LoanLedger) MarkNonReturnable(ctx context.Context, loanID string) (*domain.Loan, error) {
	return s.finish(ctx, loanID, domain.LoanNonReturnable, nil)
}

func (s *LoanLedger) finish(ctx context.Context, loanID string, to domain.LoanStatus, returnDate *time.Time) (*domain.Loan, error) {
	ctx, span := otel.Tracer("services/LoanLedger").Start(ctx, "finish",
		trace.WithAttributes(
			attribute.String("loan.id", loanID),
			attribute.String("loan.status", string(to)),
		),
	)
	defer span.End()

	l, err := s.Get(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.Status != domain.LoanBorrowed {
		return nil, ErrLoanNotBorrowed
	}
	err = repo.TransitionLoan(ctx, s.DB, l.ID, domain.LoanBorrowed, to, l.Version, returnDate)
	if errors.Is(err, repo.ErrStale) {
		return nil, ErrLoanNotBorrowed
	}
	if err != nil {
		return nil, err
	}
	l.Status = to
	l.ReturnDate = returnDate
	l.Version++
	return l, nil
}

// Get returns a loan by id or ErrLoanNotFound.
func (s *LoanLedger) Get(ctx context.Context, loanID string) (*domain.Loan, error) {
	l, err := repo.GetLoan(ctx, s.DB, loanID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return l, nil
}

// ListByUser returns the user's loans, most recent loan date first. filter
// is a loan status name; empty, "ALL" and unrecognized values list every loan.
func (s *LoanLedger) ListByUser(ctx context.Context, userID, filter string) ([]domain.Loan, error) {
	var st *domain.LoanStatus
	if v, ok := domain.ParseLoanStatus(filter); ok {
		st = &v
	}
	return repo.ListLoansByUser(ctx, s.DB, userID, st)
}

// ListPage returns a page of all loans, most recent loan date first, with the
// same filter rules as ListByUser, plus the total count.
func (s *LoanLedger) ListPage(ctx context.Context, filter string, page, pageSize int) ([]domain.Loan, int64, error) {
	var st *domain.LoanStatus
	if v, ok := domain.ParseLoanStatus(filter); ok {
		st = &v
	}
	offset, limit := pageWindow(page, pageSize)
	total, err := repo.CountLoans(ctx, s.DB, st)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Loan{}, 0, nil
	}
	items, err := repo.ListLoansPage(ctx, s.DB, st, offset, limit)
	return items, total, err
}

// ListOverdue returns the loans that are overdue as of asOf.
func (s *LoanLedger) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Loan, error) {
	return repo.ListOverdueLoans(ctx, s.DB, asOf.UTC())
}

// IsOverdue reports whether l is still BORROWED after its due date.
func IsOverdue(l *domain.Loan, asOf time.Time) bool {
	return l.Status == domain.LoanBorrowed && asOf.After(l.DueDate)
}
