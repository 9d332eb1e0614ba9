// Package services implements the circulation core: the copy registry, the
// request workflow, the loan ledger, the fine calculator and the orchestrator
// that coordinates them. This file centralizes the service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// Every specific error wraps exactly one kind (ErrValidation, ErrNotFound,
// ErrInvalidState, ErrForbidden, ErrConflict). Callers match on the kind with
// errors.Is; translation into HTTP status codes happens in the handler layer.
package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/repo"
)

// Error kinds.
var (
	// ErrValidation marks malformed input, e.g. a negative fine amount.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference to a copy, loan, request, fine or title
	// that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an operation attempted from a state that forbids
	// it, e.g. deciding an already-decided request.
	ErrInvalidState = errors.New("invalid state")

	// ErrForbidden marks an actor without rights over the record.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict marks a retryable contention failure. It is the only kind
	// that leaves the triggering request PENDING.
	ErrConflict = errors.New("conflict")
)

// kindError is a specific error that reports its own message and unwraps to
// its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error { return &kindError{kind: kind, msg: msg} }

// Validation errors.
var (
	ErrMissingUser      = newError(ErrValidation, "user id is required")
	ErrNegativeAmount   = newError(ErrValidation, "fine amount must be a non-negative integer")
	ErrInvalidDecision  = newError(ErrValidation, "decision must be ACCEPTED or DENIED")
	ErrEmptyTitleName   = newError(ErrValidation, "title name is required")
	ErrDescriptionLong  = newError(ErrValidation, "description too long")
	ErrMissingReference = newError(ErrValidation, "identifier is required")
)

// Not-found errors.
var (
	ErrTitleNotFound   = newError(ErrNotFound, "title not found")
	ErrCopyNotFound    = newError(ErrNotFound, "copy not found")
	ErrLoanNotFound    = newError(ErrNotFound, "loan not found")
	ErrActiveLoan      = newError(ErrNotFound, "no active loan for this user")
	ErrRequestNotFound = newError(ErrNotFound, "request not found")
	ErrFineNotFound    = newError(ErrNotFound, "fine not found")
)

// Invalid-state errors.
var (
	ErrCopyNotAvailable = newError(ErrInvalidState, "copy is not available")
	ErrCopyLost         = newError(ErrInvalidState, "copy is lost")
	ErrCopyNotClaimed   = newError(ErrInvalidState, "copy must be marked borrowed before a loan is opened")
	ErrLoanNotBorrowed  = newError(ErrInvalidState, "loan is not borrowed")
	ErrRequestDecided   = newError(ErrInvalidState, "request is not pending")
	ErrRequestNoLoan    = newError(ErrInvalidState, "return request has no loan")
)

// Forbidden errors.
var (
	ErrNotRequester = newError(ErrForbidden, "only the requester may cancel this request")
)

// Conflict errors.
var (
	// ErrNoCopyAvailable is returned when a borrow approval finds no AVAILABLE
	// copy of the title. The request stays PENDING and may be retried.
	ErrNoCopyAvailable = newError(ErrConflict, "no copy of this title is available")

	// ErrDuplicateRequest is returned when an equivalent PENDING request
	// already exists.
	ErrDuplicateRequest = newError(ErrConflict, "an identical request is already pending")
)

func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}
