package observability

import "github.com/prometheus/client_golang/prometheus"

// Circulation counters. They are incremented by the services after a
// transaction commits, so a rolled-back approval or return is never counted.
var (
	// LoansOpened counts loans created by approving a borrow request.
	LoansOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loans_opened_total",
		Help: "Total number of loans opened.",
	})

	// LoansClosed counts loans leaving BORROWED, by outcome
	// ("returned" or "nonreturnable").
	LoansClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loans_closed_total",
		Help: "Total number of loans closed, by outcome.",
	}, []string{"outcome"})

	// FinesAssessed counts fines created, by source ("overdue" or "manual").
	FinesAssessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fines_assessed_total",
		Help: "Total number of fines created, by source.",
	}, []string{"source"})

	// FineAmount accumulates the currency units of every fine created.
	FineAmount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fine_amount_total",
		Help: "Sum of fine amounts created, in currency units, by source.",
	}, []string{"source"})

	// BorrowConflicts counts approvals that found no AVAILABLE copy.
	BorrowConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "borrow_conflicts_total",
		Help: "Total number of borrow approvals rejected for lack of stock.",
	})

	// RequestDecisions counts request transitions out of PENDING, by type and
	// resulting status.
	RequestDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "request_decisions_total",
		Help: "Total number of requests leaving PENDING, by type and status.",
	}, []string{"type", "status"})
)

func init() {
	prometheus.MustRegister(LoansOpened, LoansClosed, FinesAssessed, FineAmount, BorrowConflicts, RequestDecisions)
}
