package couples

import (
	"context"
	"time"
)

// Repo defines persistence operations for couple records.
//
// ClaimGeneration, CompleteGeneration, and ReleaseGeneration together form the
// exclusivity protocol: a claim flips the record to in_progress atomically with
// the both-partners check, and completion/release only apply while the record
// is still in_progress, so a concurrent retake invalidates stale results.
type Repo interface {
	Create(ctx context.Context, couple Couple) error
	GetByID(ctx context.Context, coupleID string) (Couple, error)
	GetByUserID(ctx context.Context, userID string) (Couple, error)

	// SetPartnerSubmission replaces the member's submission inside one
	// transaction. When the record already holds an analysis (or a failed
	// attempt), the state resets to waiting_for_partners and the analysis is
	// cleared so the pair is regenerated for the new inputs.
	SetPartnerSubmission(ctx context.Context, coupleID string, sub PartnerSubmission) (Couple, error)

	// ClaimGeneration atomically checks readiness and flips the record to
	// in_progress. claimed is false (with no error) when the record is
	// already in_progress or ready, or when a partner slot is empty.
	ClaimGeneration(ctx context.Context, coupleID string) (couple Couple, claimed bool, err error)

	// CompleteGeneration stores the analysis and moves in_progress to ready.
	// Returns ErrClaimLost when the record left in_progress in the meantime.
	CompleteGeneration(ctx context.Context, coupleID string, analysis CouplesAnalysis, completedAt time.Time) error

	// ReleaseGeneration moves in_progress back to a retryable (or failed)
	// state, recording why. It is a no-op when the claim was already lost.
	ReleaseGeneration(ctx context.Context, coupleID string, toState string, errorCode string, errorMessage string, retryable bool) error
}
