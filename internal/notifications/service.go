package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"blueprint-backend/internal/shared/metrics"
	"blueprint-backend/internal/shared/telemetry"
)

// RetentionPeriod is how long a read notification is kept before the sweeper
// removes it.
const RetentionPeriod = 30 * 24 * time.Hour

// Service contains business logic for durable in-app notifications.
type Service struct {
	Repo Repo
}

// AnalysisReady records an analysis-ready notification for a user. Calling it
// again for the same couple refreshes the existing notification rather than
// creating a duplicate, so repeated generation runs stay invisible to the
// user.
func (s *Service) AnalysisReady(ctx context.Context, userID, coupleID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(coupleID) == "" {
		return errors.New("userID and coupleID are required")
	}
	_, err := s.Repo.Upsert(ctx, Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		CoupleID:  coupleID,
		Type:      TypeAnalysisReady,
		Message:   "Your couples analysis is ready.",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	metrics.IncNotificationUpserts()
	return nil
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.Repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
}

// SweepRead deletes read notifications older than the retention period.
func (s *Service) SweepRead(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-RetentionPeriod)
	deleted, err := s.Repo.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	telemetry.Info("notifications.sweep", map[string]any{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": deleted,
	})
	return deleted, nil
}
