package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

func TestLoanLedger_OpenRequiresClaimedCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.addTitle(t, "Dune", 1)

	cp, err := f.circ.Copies.FindAvailable(ctx, title.ID)
	if err != nil || cp == nil {
		t.Fatalf("FindAvailable: %v %v", cp, err)
	}
	if _, err := f.circ.Loans.Open(ctx, "alice", cp, title.Name); !errors.Is(err, ErrCopyNotClaimed) {
		t.Fatalf("want ErrCopyNotClaimed, got %v", err)
	}
}

func TestLoanLedger_DefaultPeriod(t *testing.T) {
	l := &LoanLedger{}
	if l.period() != 14*24*time.Hour {
		t.Fatalf("default period = %v", l.period())
	}
}

func TestLoanLedger_ListByUser_Filter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.addTitle(t, "Dune", 2)

	first := f.borrow(t, "alice", title.ID)
	f.clock.Advance(time.Hour)
	second := f.borrow(t, "alice", title.ID)
	if _, err := f.circ.ReturnLoan(ctx, first.ID); err != nil {
		t.Fatalf("ReturnLoan: %v", err)
	}
	f.circ.Wait()

	all, err := f.circ.Loans.ListByUser(ctx, "alice", "")
	if err != nil || len(all) != 2 {
		t.Fatalf("all: %v %v", all, err)
	}
	if all[0].ID != second.ID {
		t.Fatalf("most recent loan must be first")
	}

	borrowed, err := f.circ.Loans.ListByUser(ctx, "alice", "borrowed")
	if err != nil || len(borrowed) != 1 || borrowed[0].ID != second.ID {
		t.Fatalf("borrowed: %v %v", borrowed, err)
	}
	returned, err := f.circ.Loans.ListByUser(ctx, "alice", "RETURNED")
	if err != nil || len(returned) != 1 || returned[0].ID != first.ID {
		t.Fatalf("returned: %v %v", returned, err)
	}
	if returned[0].ReturnDate == nil {
		t.Fatalf("returned loan must carry a return date")
	}

	bogus, err := f.circ.Loans.ListByUser(ctx, "alice", "SHELVED")
	if err != nil || len(bogus) != 2 {
		t.Fatalf("unknown filter lists everything: %v %v", bogus, err)
	}
	none, err := f.circ.Loans.ListByUser(ctx, "bob", "")
	if err != nil || len(none) != 0 {
		t.Fatalf("bob: %v %v", none, err)
	}

	items, total, err := f.circ.Loans.ListPage(ctx, "RETURNED", 1, 10)
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("ListPage: %d %d %v", len(items), total, err)
	}
}

func TestLoanLedger_Overdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.addTitle(t, "Dune", 1)
	loan := f.borrow(t, "alice", title.ID)

	if IsOverdue(loan, loan.DueDate) {
		t.Fatalf("a loan is not overdue on its due date")
	}
	later := loan.DueDate.Add(time.Minute)
	if !IsOverdue(loan, later) {
		t.Fatalf("loan must be overdue after its due date")
	}

	overdue, err := f.circ.Loans.ListOverdue(ctx, later)
	if err != nil || len(overdue) != 1 {
		t.Fatalf("ListOverdue: %v %v", overdue, err)
	}

	closed := *loan
	closed.Status = domain.LoanReturned
	if IsOverdue(&closed, later) {
		t.Fatalf("a returned loan is never overdue")
	}
}

func TestLoanLedger_UnknownLoan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.circ.Loans.Close(ctx, "missing"); !errors.Is(err, ErrLoanNotFound) {
		t.Fatalf("want ErrLoanNotFound, got %v", err)
	}
	if _, err := f.circ.Loans.MarkNonReturnable(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
