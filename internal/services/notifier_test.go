package services

import (
	"context"
	"errors"
	"testing"
)

func TestSubscriptionNotifier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.addTitle(t, "Dune", 0)
	n := f.notes

	if _, err := n.Subscribe(ctx, "alice", "missing"); !errors.Is(err, ErrTitleNotFound) {
		t.Fatalf("unknown title: want ErrTitleNotFound, got %v", err)
	}
	if _, err := n.Subscribe(ctx, "", title.ID); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("blank user: want ErrMissingUser, got %v", err)
	}
	for _, u := range []string{"alice", "bob", "alice"} {
		if _, err := n.Subscribe(ctx, u, title.ID); err != nil {
			t.Fatalf("Subscribe(%s): %v", u, err)
		}
	}

	if err := n.TitleAvailable(ctx, title.ID, title.Name); err != nil {
		t.Fatalf("TitleAvailable: %v", err)
	}
	inbox, err := n.ListNotifications(ctx, "alice", 0)
	if err != nil || len(inbox) != 1 {
		t.Fatalf("alice inbox: %v %v", inbox, err)
	}
	if inbox[0].Read {
		t.Fatalf("new notification must be unread")
	}

	// Subscriptions survive delivery.
	if err := n.TitleAvailable(ctx, title.ID, title.Name); err != nil {
		t.Fatalf("TitleAvailable: %v", err)
	}
	if inbox, _ = n.ListNotifications(ctx, "bob", 0); len(inbox) != 2 {
		t.Fatalf("bob inbox = %d, want 2", len(inbox))
	}

	marked, err := n.MarkAllRead(ctx, "bob")
	if err != nil || marked != 2 {
		t.Fatalf("MarkAllRead: %d %v", marked, err)
	}

	if err := n.Unsubscribe(ctx, "bob", title.ID); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if err := n.Unsubscribe(ctx, "bob", title.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unsubscribe twice: want ErrNotFound, got %v", err)
	}
}

func TestNotifierFunc(t *testing.T) {
	var got string
	var n Notifier = NotifierFunc(func(_ context.Context, _ string, name string) error {
		got = name
		return nil
	})
	if err := n.TitleAvailable(context.Background(), "t1", "Dune"); err != nil || got != "Dune" {
		t.Fatalf("got %q, %v", got, err)
	}
}
