package notifications

import (
	"context"
	"database/sql"
	"time"
)

// PGRepo implements Repo over Postgres.
type PGRepo struct {
	DB *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

func (r *PGRepo) Upsert(ctx context.Context, n Notification) (Notification, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO notifications (id, user_id, couple_id, type, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		ON CONFLICT (user_id, couple_id, type) DO UPDATE SET
			message    = EXCLUDED.message,
			read       = FALSE,
			read_at    = NULL,
			created_at = EXCLUDED.created_at
		RETURNING id, created_at
	`, n.ID, n.UserID, n.CoupleID, n.Type, n.Message, n.CreatedAt)
	if err := row.Scan(&n.ID, &n.CreatedAt); err != nil {
		return Notification{}, err
	}
	n.Read = false
	n.ReadAt = nil
	return n, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, couple_id, type, message, read, created_at, read_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.UserID, &n.CoupleID, &n.Type, &n.Message, &n.Read, &n.CreatedAt, &readAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PGRepo) MarkRead(ctx context.Context, userID, notificationID string, readAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE notifications
		SET read = TRUE, read_at = $3
		WHERE id = $1 AND user_id = $2
	`, notificationID, userID, readAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM notifications
		WHERE read = TRUE AND read_at IS NOT NULL AND read_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ Repo = (*PGRepo)(nil)
