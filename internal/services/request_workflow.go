package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
	"github.com/tbourn/go-library-circulation/internal/observability"
	"github.com/tbourn/go-library-circulation/internal/repo"
)

// RequestWorkflow records users' intents to borrow a title or return a loan.
// Requests start PENDING and leave it exactly once; they are never deleted.
// Staff decisions go through Circulation.Decide because accepting a request
// mutates copies and loans.
type RequestWorkflow struct {
	// DB is the database handle; it may be transaction-bound (see WithTx).
	DB *gorm.DB

	// Titles resolves the title snapshot stored on borrow requests.
	Titles TitleResolver
}

// WithTx returns a copy of the workflow bound to tx.
func (s *RequestWorkflow) WithTx(tx *gorm.DB) *RequestWorkflow {
	cp := *s
	cp.DB = tx
	return &cp
}

// SubmitBorrow creates a PENDING BORROWING request for titleID. Availability
// is not checked here; it is verified when staff approve the request. A user
// may hold only one pending borrow request per title.
func (s *RequestWorkflow) SubmitBorrow(ctx context.Context, userID, titleID string) (*domain.Request, error) {
	ctx, span := otel.Tracer("services/RequestWorkflow").Start(ctx, "SubmitBorrow",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("title.id", titleID),
		),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if strings.TrimSpace(titleID) == "" {
		return nil, ErrMissingReference
	}
	title, err := s.Titles.GetTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}

	var out *domain.Request
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := repo.HasPendingBorrow(ctx, tx, userID, titleID)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicateRequest
		}
		r := &domain.Request{
			UserID:    userID,
			TitleID:   title.ID,
			TitleName: title.Name,
			Type:      domain.RequestBorrowing,
		}
		if err := repo.CreateRequest(ctx, tx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitReturn creates a PENDING RETURNING request for a BORROWED loan owned
// by userID. The loan itself is left untouched until staff decide. Unknown,
// foreign and closed loans all yield ErrActiveLoan.
func (s *RequestWorkflow) SubmitReturn(ctx context.Context, userID, loanID string) (*domain.Request, error) {
	ctx, span := otel.Tracer("services/RequestWorkflow").Start(ctx, "SubmitReturn",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("loan.id", loanID),
		),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if strings.TrimSpace(loanID) == "" {
		return nil, ErrMissingReference
	}

	var out *domain.Request
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loan, err := repo.GetLoan(ctx, tx, loanID)
		if err != nil {
			if isNotFound(err) {
				return ErrActiveLoan
			}
			return err
		}
		if loan.UserID != userID || loan.Status != domain.LoanBorrowed {
			return ErrActiveLoan
		}
		pending, err := repo.ListPendingReturnsForLoan(ctx, tx, loan.ID)
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			return ErrDuplicateRequest
		}
		id := loan.ID
		r := &domain.Request{
			UserID:    userID,
			TitleID:   loan.TitleID,
			TitleName: loan.TitleName,
			LoanID:    &id,
			Type:      domain.RequestReturning,
		}
		if err := repo.CreateRequest(ctx, tx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel withdraws a PENDING request on behalf of its requester. The request
// is kept with status CANCELLED. Someone else's request yields
// ErrNotRequester; a decided one yields ErrRequestDecided.
func (s *RequestWorkflow) Cancel(ctx context.Context, requestID, byUserID string) (*domain.Request, error) {
	ctx, span := otel.Tracer("services/RequestWorkflow").Start(ctx, "Cancel",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("user.id", byUserID),
		),
	)
	defer span.End()

	r, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.UserID != byUserID {
		return nil, ErrNotRequester
	}
	if r.Status != domain.RequestPending {
		return nil, ErrRequestDecided
	}
	if err := s.transition(ctx, r, domain.RequestCancelled, nil); err != nil {
		return nil, err
	}
	observability.RequestDecisions.WithLabelValues(string(r.Type), string(r.Status)).Inc()
	return r, nil
}

// Get returns a request by id or ErrRequestNotFound.
func (s *RequestWorkflow) Get(ctx context.Context, requestID string) (*domain.Request, error) {
	r, err := repo.GetRequest(ctx, s.DB, requestID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return r, nil
}

// ListByUser returns the user's requests, newest first.
func (s *RequestWorkflow) ListByUser(ctx context.Context, userID string) ([]domain.Request, error) {
	return repo.ListRequestsByUser(ctx, s.DB, userID)
}

// ListPage returns a page of all requests, PENDING first and newest first
// within each status, plus the total count.
func (s *RequestWorkflow) ListPage(ctx context.Context, page, pageSize int) ([]domain.Request, int64, error) {
	ctx, span := otel.Tracer("services/RequestWorkflow").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	offset, limit := pageWindow(page, pageSize)
	total, err := repo.CountRequests(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Request{}, 0, nil
	}
	items, err := repo.ListRequestsPage(ctx, s.DB, offset, limit)
	return items, total, err
}

// transition moves r out of PENDING into to, optionally linking loanID, and
// updates r in place. Losing the race to another decision yields
// ErrRequestDecided.
func (s *RequestWorkflow) transition(ctx context.Context, r *domain.Request, to domain.RequestStatus, loanID *string) error {
	if !r.Status.CanTransition(to) {
		return ErrRequestDecided
	}
	err := repo.TransitionRequest(ctx, s.DB, r.ID, domain.RequestPending, to, loanID)
	if errors.Is(err, repo.ErrStale) {
		return ErrRequestDecided
	}
	if err != nil {
		return err
	}
	r.Status = to
	if loanID != nil {
		r.LoanID = loanID
	}
	return nil
}
