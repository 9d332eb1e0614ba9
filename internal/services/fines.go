package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
	"github.com/tbourn/go-library-circulation/internal/observability"
	"github.com/tbourn/go-library-circulation/internal/repo"
)

// DefaultUnitPenalty is the fine per day late, in currency units.
const DefaultUnitPenalty int64 = 5000

const day = 24 * time.Hour

// FineCalculator derives overdue penalties. It is pure and safe to copy.
type FineCalculator struct {
	// UnitPenalty is charged per started day late.
	UnitPenalty int64
}

// DaysLate returns the number of started days between due and returnedAt,
// or 0 when returnedAt is on or before due. One hour late is one day.
func DaysLate(due, returnedAt time.Time) int64 {
	late := returnedAt.Sub(due)
	if late <= 0 {
		return 0
	}
	days := int64(late / day)
	if late%day != 0 {
		days++
	}
	return days
}

// ComputeOverdueFine returns the fine owed for returning l at returnedAt.
func (c FineCalculator) ComputeOverdueFine(l *domain.Loan, returnedAt time.Time) int64 {
	return DaysLate(l.DueDate, returnedAt) * c.UnitPenalty
}

// FineService manages outstanding fines. Settling a fine removes it.
type FineService struct {
	// DB is the database handle; it may be transaction-bound (see WithTx).
	DB *gorm.DB

	// Calc computes overdue amounts.
	Calc FineCalculator

	// Locale formats amounts and dates in generated descriptions.
	Locale language.Tag

	// DescriptionMaxLen caps manual descriptions by rune length.
	DescriptionMaxLen int
}

// NewFineService returns a FineService charging unitPenalty per day late.
func NewFineService(db *gorm.DB, unitPenalty int64) *FineService {
	return &FineService{
		DB:                db,
		Calc:              FineCalculator{UnitPenalty: unitPenalty},
		Locale:            language.English,
		DescriptionMaxLen: 500,
	}
}

// WithTx returns a copy of the service bound to tx.
func (s *FineService) WithTx(tx *gorm.DB) *FineService {
	cp := *s
	cp.DB = tx
	return &cp
}

// CreateManual records a staff-entered fine. A non-nil loanID must reference
// an existing loan.
func (s *FineService) CreateManual(ctx context.Context, userID string, amount int64, description string, loanID *string) (*domain.Fine, error) {
	ctx, span := otel.Tracer("services/FineService").Start(ctx, "CreateManual",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int64("fine.amount", amount),
		),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if amount < 0 {
		return nil, ErrNegativeAmount
	}
	description = strings.TrimSpace(description)
	if s.DescriptionMaxLen > 0 && utf8.RuneCountInString(description) > s.DescriptionMaxLen {
		return nil, ErrDescriptionLong
	}
	if loanID != nil {
		if _, err := repo.GetLoan(ctx, s.DB, *loanID); err != nil {
			if isNotFound(err) {
				return nil, ErrLoanNotFound
			}
			return nil, err
		}
	}
	f, err := repo.CreateFine(ctx, s.DB, userID, loanID, amount, description)
	if err != nil {
		return nil, err
	}
	observability.FinesAssessed.WithLabelValues("manual").Inc()
	observability.FineAmount.WithLabelValues("manual").Add(float64(amount))
	return f, nil
}

// Settle removes an outstanding fine. Settling an unknown or already settled
// fine yields ErrFineNotFound.
func (s *FineService) Settle(ctx context.Context, fineID string) error {
	ctx, span := otel.Tracer("services/FineService").Start(ctx, "Settle",
		trace.WithAttributes(attribute.String("fine.id", fineID)),
	)
	defer span.End()

	if err := repo.SettleFine(ctx, s.DB, fineID); err != nil {
		if isNotFound(err) {
			return ErrFineNotFound
		}
		return err
	}
	return nil
}

// ListByUser returns the user's outstanding fines, newest first.
func (s *FineService) ListByUser(ctx context.Context, userID string) ([]domain.Fine, error) {
	return repo.ListFinesByUser(ctx, s.DB, userID)
}

// Outstanding returns the total the user currently owes.
func (s *FineService) Outstanding(ctx context.Context, userID string) (int64, error) {
	return repo.SumOutstanding(ctx, s.DB, userID)
}

// ListPage returns a page of all outstanding fines plus the total count.
func (s *FineService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Fine, int64, error) {
	offset, limit := pageWindow(page, pageSize)
	total, err := repo.CountFines(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Fine{}, 0, nil
	}
	items, err := repo.ListFinesPage(ctx, s.DB, offset, limit)
	return items, total, err
}

// assessOverdue creates the overdue fine for l returned at returnedAt and
// returns it, or returns nil when the loan was on time.
func (s *FineService) assessOverdue(ctx context.Context, l *domain.Loan, returnedAt time.Time) (*domain.Fine, error) {
	amount := s.Calc.ComputeOverdueFine(l, returnedAt)
	if amount <= 0 {
		return nil, nil
	}
	days := DaysLate(l.DueDate, returnedAt)
	id := l.ID
	return repo.CreateFine(ctx, s.DB, l.UserID, &id, amount, s.overdueDescription(l, days))
}

func (s *FineService) overdueDescription(l *domain.Loan, days int64) string {
	p := message.NewPrinter(s.Locale)
	unit := "days"
	if days == 1 {
		unit = "day"
	}
	return p.Sprintf("Overdue by %d %s: %q was due on %s (%d per day)",
		days, unit, l.TitleName, l.DueDate.Format("2006-01-02"), s.Calc.UnitPenalty)
}
