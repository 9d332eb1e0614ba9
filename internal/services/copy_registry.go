package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
	"github.com/tbourn/go-library-circulation/internal/repo"
)

const defaultCondition = "Good"

// CopyRegistry tracks each physical copy of a title and its availability.
// Every status change is a compare-and-swap on (status, version), so two
// writers can never both move the same copy out of a state.
type CopyRegistry struct {
	// DB is the database handle; it may be transaction-bound (see WithTx).
	DB *gorm.DB

	// MaxClaimAttempts bounds how often Claim retries after losing a race
	// for a copy to a concurrent writer.
	MaxClaimAttempts int

	// ConditionLocale drives title-casing of condition descriptors.
	ConditionLocale language.Tag
}

// NewCopyRegistry returns a CopyRegistry with default settings.
func NewCopyRegistry(db *gorm.DB) *CopyRegistry {
	return &CopyRegistry{DB: db, MaxClaimAttempts: 3, ConditionLocale: language.English}
}

// WithTx returns a copy of the registry bound to tx.
func (s *CopyRegistry) WithTx(tx *gorm.DB) *CopyRegistry {
	cp := *s
	cp.DB = tx
	return &cp
}

// Add registers a new AVAILABLE copy of titleID. A blank condition is
// recorded as "Good"; others are title-cased ("very worn" -> "Very Worn").
func (s *CopyRegistry) Add(ctx context.Context, titleID, condition string) (*domain.Copy, error) {
	ctx, span := otel.Tracer("services/CopyRegistry").Start(ctx, "Add",
		trace.WithAttributes(attribute.String("title.id", titleID)),
	)
	defer span.End()

	if strings.TrimSpace(titleID) == "" {
		return nil, ErrMissingReference
	}
	if _, err := repo.GetTitle(ctx, s.DB, titleID); err != nil {
		if isNotFound(err) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	return repo.CreateCopy(ctx, s.DB, titleID, s.normalizeCondition(condition))
}

// Get returns a copy by id or ErrCopyNotFound.
func (s *CopyRegistry) Get(ctx context.Context, copyID string) (*domain.Copy, error) {
	c, err := repo.GetCopy(ctx, s.DB, copyID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCopyNotFound
		}
		return nil, err
	}
	return c, nil
}

// FindAvailable returns the oldest AVAILABLE copy of titleID (ties broken by
// id), or nil with no error when the title has none.
func (s *CopyRegistry) FindAvailable(ctx context.Context, titleID string) (*domain.Copy, error) {
	c, err := repo.FindAvailableCopy(ctx, s.DB, titleID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// ListByTitle returns every copy of titleID in acquisition order.
func (s *CopyRegistry) ListByTitle(ctx context.Context, titleID string) ([]domain.Copy, error) {
	return repo.ListCopiesByTitle(ctx, s.DB, titleID)
}

// Availability returns the number of copies of titleID in each status.
// Every status is present in the result, possibly with zero.
func (s *CopyRegistry) Availability(ctx context.Context, titleID string) (map[domain.CopyStatus]int64, error) {
	counts, err := repo.CountCopiesByStatus(ctx, s.DB, titleID)
	if err != nil {
		return nil, err
	}
	for _, st := range []domain.CopyStatus{domain.CopyAvailable, domain.CopyBorrowed, domain.CopyLost} {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}

// MarkBorrowed moves an AVAILABLE copy to BORROWED.
func (s *CopyRegistry) MarkBorrowed(ctx context.Context, copyID string) (*domain.Copy, error) {
	return s.move(ctx, copyID, domain.CopyBorrowed, func(from domain.CopyStatus) error {
		if from != domain.CopyAvailable {
			return ErrCopyNotAvailable
		}
		return nil
	})
}

// MarkAvailable returns a copy to the shelf. A copy that is already
// AVAILABLE is left unchanged; a LOST copy cannot come back.
func (s *CopyRegistry) MarkAvailable(ctx context.Context, copyID string) (*domain.Copy, error) {
	return s.move(ctx, copyID, domain.CopyAvailable, func(from domain.CopyStatus) error {
		if from == domain.CopyLost {
			return ErrCopyLost
		}
		return nil
	})
}

// MarkLost writes off a copy that is on the shelf. Copies out on loan are
// written off through the loan instead (Circulation.DeclareLost).
func (s *CopyRegistry) MarkLost(ctx context.Context, copyID string) (*domain.Copy, error) {
	return s.move(ctx, copyID, domain.CopyLost, func(from domain.CopyStatus) error {
		switch from {
		case domain.CopyAvailable:
			return nil
		case domain.CopyLost:
			return ErrCopyLost
		default:
			return ErrCopyNotAvailable
		}
	})
}

// markLostOnLoan writes off a BORROWED copy whose loan is being declared
// non-returnable.
func (s *CopyRegistry) markLostOnLoan(ctx context.Context, copyID string) (*domain.Copy, error) {
	return s.move(ctx, copyID, domain.CopyLost, func(from domain.CopyStatus) error {
		if from != domain.CopyBorrowed {
			return ErrCopyNotAvailable
		}
		return nil
	})
}

// Claim atomically finds an AVAILABLE copy of titleID and marks it BORROWED.
// When a concurrent writer takes the chosen copy first, the next candidate is
// tried, up to MaxClaimAttempts times. It returns ErrNoCopyAvailable when
// nothing could be claimed.
func (s *CopyRegistry) Claim(ctx context.Context, titleID string) (*domain.Copy, error) {
	ctx, span := otel.Tracer("services/CopyRegistry").Start(ctx, "Claim",
		trace.WithAttributes(attribute.String("title.id", titleID)),
	)
	defer span.End()

	attempts := s.MaxClaimAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		c, err := s.FindAvailable(ctx, titleID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, ErrNoCopyAvailable
		}
		err = repo.TransitionCopy(ctx, s.DB, c.ID, domain.CopyAvailable, domain.CopyBorrowed, c.Version)
		if errors.Is(err, repo.ErrStale) {
			span.AddEvent("claim lost race", trace.WithAttributes(attribute.String("copy.id", c.ID)))
			continue
		}
		if err != nil {
			return nil, err
		}
		c.Status = domain.CopyBorrowed
		c.Version++
		span.SetAttributes(attribute.String("copy.id", c.ID), attribute.Int("attempts", i+1))
		return c, nil
	}
	return nil, ErrNoCopyAvailable
}

// move applies a guarded status change. check validates the current status;
// a stale write re-reads the copy and re-checks, so the caller always sees
// the error for the state that actually won.
func (s *CopyRegistry) move(ctx context.Context, copyID string, to domain.CopyStatus, check func(domain.CopyStatus) error) (*domain.Copy, error) {
	attempts := s.MaxClaimAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		c, err := s.Get(ctx, copyID)
		if err != nil {
			return nil, err
		}
		if err := check(c.Status); err != nil {
			return nil, err
		}
		if c.Status == to {
			return c, nil
		}
		err = repo.TransitionCopy(ctx, s.DB, c.ID, c.Status, to, c.Version)
		if errors.Is(err, repo.ErrStale) {
			continue
		}
		if err != nil {
			return nil, err
		}
		c.Status = to
		c.Version++
		return c, nil
	}
	return nil, ErrConflict
}

func (s *CopyRegistry) normalizeCondition(condition string) string {
	condition = normalizeName(condition)
	if condition == "" {
		return defaultCondition
	}
	return cases.Title(s.ConditionLocale).String(strings.ToLower(condition))
}
