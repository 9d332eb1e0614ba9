package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
	"github.com/tbourn/go-library-circulation/internal/repo"
)

// Notifier is told when a copy of a title returns to the shelf. The
// circulation core calls it after commit and never depends on its outcome.
type Notifier interface {
	TitleAvailable(ctx context.Context, titleID, titleName string) error
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, titleID, titleName string) error

// TitleAvailable calls f.
func (f NotifierFunc) TitleAvailable(ctx context.Context, titleID, titleName string) error {
	return f(ctx, titleID, titleName)
}

// SubscriptionNotifier delivers back-in-stock messages to the inbox of every
// user subscribed to the title. Subscriptions persist after delivery.
type SubscriptionNotifier struct {
	DB *gorm.DB
}

// TitleAvailable writes one notification per subscriber of titleID.
func (s *SubscriptionNotifier) TitleAvailable(ctx context.Context, titleID, titleName string) error {
	ctx, span := otel.Tracer("services/SubscriptionNotifier").Start(ctx, "TitleAvailable",
		trace.WithAttributes(attribute.String("title.id", titleID)),
	)
	defer span.End()

	users, err := repo.ListSubscribers(ctx, s.DB, titleID)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("subscribers", len(users)))
	return repo.CreateNotifications(ctx, s.DB, users, backInStockMessage(titleName))
}

// Subscribe registers userID for back-in-stock messages about titleID. The
// title must exist.
func (s *SubscriptionNotifier) Subscribe(ctx context.Context, userID, titleID string) (*domain.Subscription, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if _, err := repo.GetTitle(ctx, s.DB, titleID); err != nil {
		if isNotFound(err) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	return repo.Subscribe(ctx, s.DB, userID, titleID)
}

// Unsubscribe removes the subscription, or returns ErrNotFound.
func (s *SubscriptionNotifier) Unsubscribe(ctx context.Context, userID, titleID string) error {
	if err := repo.Unsubscribe(ctx, s.DB, userID, titleID); err != nil {
		if isNotFound(err) {
			return newError(ErrNotFound, "subscription not found")
		}
		return err
	}
	return nil
}

// ListNotifications returns the user's inbox, newest first.
func (s *SubscriptionNotifier) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	return repo.ListNotifications(ctx, s.DB, userID, limit)
}

// MarkAllRead flags the user's inbox as read.
func (s *SubscriptionNotifier) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return repo.MarkNotificationsRead(ctx, s.DB, userID)
}

func backInStockMessage(titleName string) string {
	return fmt.Sprintf("%q is back in stock. Borrow it now!", titleName)
}
