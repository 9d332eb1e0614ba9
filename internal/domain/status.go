package domain

import "strings"

// CopyStatus is the availability state of a physical copy.
type CopyStatus string

const (
	CopyAvailable CopyStatus = "AVAILABLE"
	CopyBorrowed  CopyStatus = "BORROWED"
	CopyLost      CopyStatus = "LOST"
)

// Valid reports whether s is one of the known copy states.
func (s CopyStatus) Valid() bool {
	switch s {
	case CopyAvailable, CopyBorrowed, CopyLost:
		return true
	}
	return false
}

// LoanStatus is the lifecycle state of a loan. Only BORROWED, RETURNED and
// NONRETURNABLE are produced by the circulation core; the remaining values
// are accepted when reading older rows and as list filters.
type LoanStatus string

const (
	LoanBorrowed         LoanStatus = "BORROWED"
	LoanReturned         LoanStatus = "RETURNED"
	LoanRejected         LoanStatus = "REJECTED"
	LoanNonReturnable    LoanStatus = "NONRETURNABLE"
	LoanRequestBorrowing LoanStatus = "REQUEST_BORROWING"
	LoanRequestReturning LoanStatus = "REQUEST_RETURNING"
)

// Valid reports whether s is one of the known loan states.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanBorrowed, LoanReturned, LoanRejected, LoanNonReturnable,
		LoanRequestBorrowing, LoanRequestReturning:
		return true
	}
	return false
}

// ParseLoanStatus converts a case-insensitive filter value into a LoanStatus.
// The second result is false for empty, "ALL" or unknown values.
func ParseLoanStatus(v string) (LoanStatus, bool) {
	s := LoanStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", false
	}
	return s, true
}

// RequestType distinguishes borrow requests from return requests.
type RequestType string

const (
	RequestBorrowing RequestType = "BORROWING"
	RequestReturning RequestType = "RETURNING"
)

// RequestStatus is the decision state of a request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestAccepted  RequestStatus = "ACCEPTED"
	RequestDenied    RequestStatus = "DENIED"
	RequestCancelled RequestStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s RequestStatus) Terminal() bool {
	return s != RequestPending
}

// CanTransition reports whether a request may move from s to next.
// Every transition leaves PENDING; terminal states are final.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case RequestAccepted, RequestDenied, RequestCancelled:
		return true
	}
	return false
}

// ParseDecision converts a staff decision ("accepted"/"denied", any case).
func ParseDecision(v string) (RequestStatus, bool) {
	switch s := RequestStatus(strings.ToUpper(strings.TrimSpace(v))); s {
	case RequestAccepted, RequestDenied:
		return s, true
	}
	return "", false
}
