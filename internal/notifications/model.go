package notifications

import "time"

const TypeAnalysisReady = "analysis_ready"

// Notification is a durable in-app message for one user. At most one
// notification exists per (user, couple, type): re-delivery refreshes the
// existing row instead of stacking duplicates.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"-"`
	CoupleID  string     `json:"coupleId"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
}
