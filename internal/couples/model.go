package couples

import (
	"time"

	"blueprint-backend/internal/quiz"
)

// Analysis lifecycle states for a couple record.
const (
	StateWaitingForPartners = "waiting_for_partners"
	StateInProgress         = "in_progress"
	StateReady              = "ready"
	StateFailed             = "failed"
)

// PartnerSubmission is one partner's completed quiz result as merged into the
// couple record. A retake replaces the whole value.
type PartnerSubmission struct {
	UserID      string         `json:"userId"`
	CompletedAt time.Time      `json:"completedAt"`
	Primary     quiz.Blueprint `json:"primary"`
	Secondary   quiz.Blueprint `json:"secondary,omitempty"`
	Scores      quiz.Scores    `json:"scores"`
}

// CouplesAnalysis is the generated compatibility write-up. It is regenerated
// wholesale, never patched field-by-field.
type CouplesAnalysis struct {
	Summary       string    `json:"summary"`
	Compatibility string    `json:"compatibility"`
	PartnerATips  []string  `json:"partnerATips"`
	PartnerBTips  []string  `json:"partnerBTips"`
	Exercises     []string  `json:"exercises"`
	Practices     []string  `json:"practices"`
	ClosingPrompt string    `json:"closingPrompt"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// Couple pairs two user accounts and tracks their joint analysis state.
// Partner user ids are stored in canonical (lexicographic) order.
type Couple struct {
	ID             string             `json:"id"`
	UserAID        string             `json:"userAId"`
	UserBID        string             `json:"userBId"`
	PartnerA       *PartnerSubmission `json:"partnerA,omitempty"`
	PartnerB       *PartnerSubmission `json:"partnerB,omitempty"`
	AnalysisState  string             `json:"analysisState"`
	Analysis       *CouplesAnalysis   `json:"analysis,omitempty"`
	ErrorCode      string             `json:"errorCode,omitempty"`
	ErrorMessage   string             `json:"errorMessage,omitempty"`
	ErrorRetryable bool               `json:"errorRetryable,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// IsMember reports whether the user belongs to this couple.
func (c Couple) IsMember(userID string) bool {
	return userID != "" && (userID == c.UserAID || userID == c.UserBID)
}

// BothComplete reports whether both partner slots hold a submission.
func (c Couple) BothComplete() bool {
	return c.PartnerA != nil && c.PartnerB != nil
}

// SlotFor returns "a" or "b" for the given member, or "" for non-members.
func (c Couple) SlotFor(userID string) string {
	switch userID {
	case c.UserAID:
		return "a"
	case c.UserBID:
		return "b"
	default:
		return ""
	}
}
