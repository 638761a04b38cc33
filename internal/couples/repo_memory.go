package couples

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores couples in memory and is safe for concurrent use. The
// single mutex gives the same claim serialization the Postgres repo gets from
// row locks.
type MemoryRepo struct {
	mu   sync.Mutex
	byID map[string]Couple
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Couple)}
}

// Create stores the couple.
func (r *MemoryRepo) Create(ctx context.Context, couple Couple) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if couple.AnalysisState == "" {
		couple.AnalysisState = StateWaitingForPartners
	}
	r.byID[couple.ID] = couple
	return nil
}

// GetByID returns a couple by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, coupleID string) (Couple, error) {
	if err := ctx.Err(); err != nil {
		return Couple{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	couple, ok := r.byID[coupleID]
	if !ok {
		return Couple{}, ErrNotFound
	}
	return couple, nil
}

// GetByUserID returns the couple containing the user.
func (r *MemoryRepo) GetByUserID(ctx context.Context, userID string) (Couple, error) {
	if err := ctx.Err(); err != nil {
		return Couple{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, couple := range r.byID {
		if couple.IsMember(userID) {
			return couple, nil
		}
	}
	return Couple{}, ErrNotFound
}

// SetPartnerSubmission replaces the member's submission and resets the
// analysis lifecycle for the new inputs.
func (r *MemoryRepo) SetPartnerSubmission(ctx context.Context, coupleID string, sub PartnerSubmission) (Couple, error) {
	if err := ctx.Err(); err != nil {
		return Couple{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	couple, ok := r.byID[coupleID]
	if !ok {
		return Couple{}, ErrNotFound
	}
	switch couple.SlotFor(sub.UserID) {
	case "a":
		couple.PartnerA = &sub
	case "b":
		couple.PartnerB = &sub
	default:
		return Couple{}, ErrNotMember
	}
	couple.AnalysisState = StateWaitingForPartners
	couple.Analysis = nil
	couple.ErrorCode = ""
	couple.ErrorMessage = ""
	couple.ErrorRetryable = false
	couple.UpdatedAt = time.Now().UTC()
	r.byID[coupleID] = couple
	return couple, nil
}

// ClaimGeneration checks readiness and flips the record to in_progress under
// the lock.
func (r *MemoryRepo) ClaimGeneration(ctx context.Context, coupleID string) (Couple, bool, error) {
	if err := ctx.Err(); err != nil {
		return Couple{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	couple, ok := r.byID[coupleID]
	if !ok {
		return Couple{}, false, ErrNotFound
	}
	if couple.AnalysisState == StateInProgress || couple.AnalysisState == StateReady {
		return couple, false, nil
	}
	if !couple.BothComplete() {
		return couple, false, nil
	}
	couple.AnalysisState = StateInProgress
	couple.ErrorCode = ""
	couple.ErrorMessage = ""
	couple.ErrorRetryable = false
	couple.UpdatedAt = time.Now().UTC()
	r.byID[coupleID] = couple
	return couple, true, nil
}

// CompleteGeneration stores the analysis, guarded on the claim still holding.
func (r *MemoryRepo) CompleteGeneration(ctx context.Context, coupleID string, analysis CouplesAnalysis, completedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	couple, ok := r.byID[coupleID]
	if !ok {
		return ErrNotFound
	}
	if couple.AnalysisState != StateInProgress {
		return ErrClaimLost
	}
	couple.Analysis = &analysis
	couple.AnalysisState = StateReady
	couple.ErrorCode = ""
	couple.ErrorMessage = ""
	couple.ErrorRetryable = false
	couple.UpdatedAt = completedAt
	r.byID[coupleID] = couple
	return nil
}

// ReleaseGeneration moves in_progress back to a retryable (or failed) state.
func (r *MemoryRepo) ReleaseGeneration(ctx context.Context, coupleID string, toState string, errorCode string, errorMessage string, retryable bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	couple, ok := r.byID[coupleID]
	if !ok {
		return ErrNotFound
	}
	if couple.AnalysisState != StateInProgress {
		return nil
	}
	couple.AnalysisState = toState
	couple.ErrorCode = errorCode
	couple.ErrorMessage = errorMessage
	couple.ErrorRetryable = retryable
	couple.UpdatedAt = time.Now().UTC()
	r.byID[coupleID] = couple
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
