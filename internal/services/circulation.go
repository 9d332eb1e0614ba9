// Package services – Circulation
//
// This file implements Circulation, the orchestrator that coordinates the
// copy registry, request workflow, loan ledger and fine service. Approving a
// borrow request claims a copy, opens a loan and accepts the request; a
// return closes the loan, assesses any overdue fine and frees the copy.
// Each of these runs in one database transaction: a failure at any step
// rolls back every step.
//
// Side effects that must not influence the outcome (metrics and the
// back-in-stock notification) run only after commit. The notification is
// fire-and-forget on its own goroutine with a bounded, detached context.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
	"github.com/tbourn/go-library-circulation/internal/observability"
	"github.com/tbourn/go-library-circulation/internal/repo"
)

// CirculationOptions configures NewCirculation. Zero values select defaults.
type CirculationOptions struct {
	LoanPeriod       time.Duration
	UnitPenalty      int64
	MaxClaimAttempts int
	NotifyTimeout    time.Duration
	Now              func() time.Time
}

// Circulation coordinates approvals and returns across the circulation
// components.
type Circulation struct {
	DB       *gorm.DB
	Copies   *CopyRegistry
	Requests *RequestWorkflow
	Loans    *LoanLedger
	Fines    *FineService

	// Notifier is told when a returned copy is back on the shelf. May be nil.
	Notifier      Notifier
	NotifyTimeout time.Duration

	wg sync.WaitGroup
}

// DecisionOutcome reports what a staff decision changed.
type DecisionOutcome struct {
	Request *domain.Request
	// Loan is the loan opened by an accepted borrow request, or the loan
	// closed by an accepted return request.
	Loan *domain.Loan
	// Fine is the overdue fine assessed by an accepted return, if any.
	Fine *domain.Fine
}

// ReturnOutcome reports what a return changed.
type ReturnOutcome struct {
	Loan *domain.Loan
	Copy *domain.Copy
	// Fine is nil when the loan was returned on time.
	Fine *domain.Fine
	// AcceptedRequests lists PENDING return requests for the loan that were
	// accepted as a side effect of a direct return.
	AcceptedRequests []string
}

// NewCirculation wires the circulation components over db.
func NewCirculation(db *gorm.DB, titles TitleResolver, notifier Notifier, opts CirculationOptions) *Circulation {
	unit := opts.UnitPenalty
	if unit <= 0 {
		unit = DefaultUnitPenalty
	}
	copies := NewCopyRegistry(db)
	if opts.MaxClaimAttempts > 0 {
		copies.MaxClaimAttempts = opts.MaxClaimAttempts
	}
	timeout := opts.NotifyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Circulation{
		DB:            db,
		Copies:        copies,
		Requests:      &RequestWorkflow{DB: db, Titles: titles},
		Loans:         &LoanLedger{DB: db, Period: opts.LoanPeriod, Now: opts.Now},
		Fines:         NewFineService(db, unit),
		Notifier:      notifier,
		NotifyTimeout: timeout,
	}
}

// Decide applies a staff decision ("ACCEPTED" or "DENIED", any case) to a
// PENDING request.
//
// Accepting a borrow request claims the oldest AVAILABLE copy of the title,
// opens a loan and links it to the request. When no copy is available it
// returns ErrNoCopyAvailable and the request stays PENDING.
//
// Accepting a return request runs the return algorithm for its loan.
func (c *Circulation) Decide(ctx context.Context, requestID, decision string) (*DecisionOutcome, error) {
	ctx, span := otel.Tracer("services/Circulation").Start(ctx, "Decide",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("decision", decision),
		),
	)
	defer span.End()

	to, ok := domain.ParseDecision(decision)
	if !ok {
		return nil, ErrInvalidDecision
	}

	var (
		out      DecisionOutcome
		returned *ReturnOutcome
	)
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := c.Requests.WithTx(tx)
		req, err := requests.Get(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestPending {
			return ErrRequestDecided
		}
		out.Request = req

		if to == domain.RequestDenied {
			return requests.transition(ctx, req, domain.RequestDenied, nil)
		}

		switch req.Type {
		case domain.RequestBorrowing:
			cp, err := c.Copies.WithTx(tx).Claim(ctx, req.TitleID)
			if err != nil {
				return err
			}
			loan, err := c.Loans.WithTx(tx).Open(ctx, req.UserID, cp, req.TitleName)
			if err != nil {
				return err
			}
			out.Loan = loan
			return requests.transition(ctx, req, domain.RequestAccepted, &loan.ID)

		case domain.RequestReturning:
			if req.LoanID == nil {
				return ErrRequestNoLoan
			}
			if err := requests.transition(ctx, req, domain.RequestAccepted, nil); err != nil {
				return err
			}
			r, err := c.returnInTx(ctx, tx, *req.LoanID, false)
			if err != nil {
				return err
			}
			returned = r
			out.Loan, out.Fine = r.Loan, r.Fine
			return nil
		}
		return ErrInvalidState
	})
	if err != nil {
		if errors.Is(err, ErrNoCopyAvailable) {
			observability.BorrowConflicts.Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	observability.RequestDecisions.WithLabelValues(string(out.Request.Type), string(out.Request.Status)).Inc()
	if out.Request.Type == domain.RequestBorrowing && out.Loan != nil {
		observability.LoansOpened.Inc()
	}
	if returned != nil {
		c.afterReturn(ctx, returned)
	}
	return &out, nil
}

// ReturnLoan closes a BORROWED loan outside the request flow (staff "return
// this book"). Any PENDING return request for the same loan is accepted in
// the same transaction; no other request is touched.
func (c *Circulation) ReturnLoan(ctx context.Context, loanID string) (*ReturnOutcome, error) {
	ctx, span := otel.Tracer("services/Circulation").Start(ctx, "ReturnLoan",
		trace.WithAttributes(attribute.String("loan.id", loanID)),
	)
	defer span.End()

	var out *ReturnOutcome
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := c.returnInTx(ctx, tx, loanID, true)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for range out.AcceptedRequests {
		observability.RequestDecisions.WithLabelValues(string(domain.RequestReturning), string(domain.RequestAccepted)).Inc()
	}
	c.afterReturn(ctx, out)
	return out, nil
}

// DeclareLost closes a BORROWED loan as NONRETURNABLE and writes off its copy
// as LOST. Pending return requests for the loan are denied.
func (c *Circulation) DeclareLost(ctx context.Context, loanID string) (*domain.Loan, error) {
	ctx, span := otel.Tracer("services/Circulation").Start(ctx, "DeclareLost",
		trace.WithAttributes(attribute.String("loan.id", loanID)),
	)
	defer span.End()

	var loan *domain.Loan
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := c.Loans.WithTx(tx).MarkNonReturnable(ctx, loanID)
		if err != nil {
			return err
		}
		if _, err := c.Copies.WithTx(tx).markLostOnLoan(ctx, l.CopyID); err != nil {
			return err
		}
		pending, err := repo.ListPendingReturnsForLoan(ctx, tx, l.ID)
		if err != nil {
			return err
		}
		requests := c.Requests.WithTx(tx)
		for i := range pending {
			if err := requests.transition(ctx, &pending[i], domain.RequestDenied, nil); err != nil {
				return err
			}
		}
		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.LoansClosed.WithLabelValues("nonreturnable").Inc()
	return loan, nil
}

// Wait blocks until in-flight notifications have finished.
func (c *Circulation) Wait() {
	c.wg.Wait()
}

// returnInTx closes the loan, assesses the overdue fine and frees the copy
// using tx. With autoAccept, PENDING return requests for the loan are
// accepted too.
func (c *Circulation) returnInTx(ctx context.Context, tx *gorm.DB, loanID string, autoAccept bool) (*ReturnOutcome, error) {
	loan, err := c.Loans.WithTx(tx).Close(ctx, loanID)
	if err != nil {
		return nil, err
	}
	fine, err := c.Fines.WithTx(tx).assessOverdue(ctx, loan, *loan.ReturnDate)
	if err != nil {
		return nil, err
	}
	cp, err := c.Copies.WithTx(tx).MarkAvailable(ctx, loan.CopyID)
	if err != nil {
		return nil, err
	}
	out := &ReturnOutcome{Loan: loan, Copy: cp, Fine: fine}

	if autoAccept {
		pending, err := repo.ListPendingReturnsForLoan(ctx, tx, loan.ID)
		if err != nil {
			return nil, err
		}
		requests := c.Requests.WithTx(tx)
		for i := range pending {
			if err := requests.transition(ctx, &pending[i], domain.RequestAccepted, nil); err != nil {
				return nil, err
			}
			out.AcceptedRequests = append(out.AcceptedRequests, pending[i].ID)
		}
	}
	return out, nil
}

// afterReturn records metrics and announces the copy once the return has
// committed.
func (c *Circulation) afterReturn(ctx context.Context, r *ReturnOutcome) {
	observability.LoansClosed.WithLabelValues("returned").Inc()
	if r.Fine != nil {
		observability.FinesAssessed.WithLabelValues("overdue").Inc()
		observability.FineAmount.WithLabelValues("overdue").Add(float64(r.Fine.Amount))
	}
	c.notifyAvailable(ctx, r.Loan.TitleID, r.Loan.TitleName)
}

func (c *Circulation) notifyAvailable(parent context.Context, titleID, titleName string) {
	if c.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.NotifyTimeout)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("title_id", titleID).Msg("notifier panicked")
			}
		}()
		if err := c.Notifier.TitleAvailable(ctx, titleID, titleName); err != nil {
			log.Warn().Err(err).Str("title_id", titleID).Msg("back-in-stock notification failed")
		}
	}()
}
