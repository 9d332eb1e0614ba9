package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

// Subscribe records that userID wants to hear about titleID. Subscribing
// twice returns the existing row.
func Subscribe(ctx context.Context, db *gorm.DB, userID, titleID string) (*domain.Subscription, error) {
	var s domain.Subscription
	err := db.WithContext(ctx).
		Where(domain.Subscription{UserID: userID, TitleID: titleID}).
		Attrs(domain.Subscription{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}).
		FirstOrCreate(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Unsubscribe removes userID's subscription to titleID, returning
// ErrNotFound if there was none.
func Unsubscribe(ctx context.Context, db *gorm.DB, userID, titleID string) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND title_id = ?", userID, titleID).
		Delete(&domain.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSubscribers returns the user IDs subscribed to titleID.
func ListSubscribers(ctx context.Context, db *gorm.DB, titleID string) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("title_id = ?", titleID).
		Order("created_at ASC").
		Pluck("user_id", &out).Error
	return out, err
}

// CreateNotifications writes one unread notification per user in a single
// batch insert. An empty user list is a no-op.
func CreateNotifications(ctx context.Context, db *gorm.DB, userIDs []string, message string) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]domain.Notification, 0, len(userIDs))
	for _, u := range userIDs {
		rows = append(rows, domain.Notification{
			ID:        uuid.NewString(),
			UserID:    u,
			Message:   message,
			CreatedAt: now,
		})
	}
	return db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

// ListNotifications returns userID's notifications, newest first. A limit of
// zero or less returns all of them.
func ListNotifications(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// MarkNotificationsRead flags every unread notification of userID as read
// and returns how many rows changed.
func MarkNotificationsRead(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}
