package notifications

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

type Repo interface {
	// Upsert inserts the notification, or refreshes the existing row when one
	// already exists for the same (user, couple, type) key.
	Upsert(ctx context.Context, n Notification) (Notification, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string, readAt time.Time) error
	// DeleteReadOlderThan removes read notifications whose read timestamp is
	// before the cutoff and returns how many were deleted.
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
