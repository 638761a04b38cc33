package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repo used when no database is configured and in
// tests.
type MemoryRepo struct {
	mu    sync.Mutex
	items map[string]Notification
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Notification)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, n Notification) (Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.items {
		if existing.UserID == n.UserID && existing.CoupleID == n.CoupleID && existing.Type == n.Type {
			existing.Message = n.Message
			existing.Read = false
			existing.ReadAt = nil
			existing.CreatedAt = n.CreatedAt
			r.items[id] = existing
			return existing, nil
		}
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.Read = false
	n.ReadAt = nil
	r.items[n.ID] = n
	return n, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Notification, 0)
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if offset >= len(out) {
		return []Notification{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) MarkRead(ctx context.Context, userID, notificationID string, readAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[notificationID]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.Read = true
	t := readAt
	n.ReadAt = &t
	r.items[notificationID] = n
	return nil
}

func (r *MemoryRepo) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, n := range r.items {
		if n.Read && n.ReadAt != nil && n.ReadAt.Before(cutoff) {
			delete(r.items, id)
			deleted++
		}
	}
	return deleted, nil
}

var _ Repo = (*MemoryRepo)(nil)
