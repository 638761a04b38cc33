package couples

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"blueprint-backend/internal/llm"
	"blueprint-backend/internal/queue"
	"blueprint-backend/internal/quiz"
	"blueprint-backend/internal/shared/metrics"
	"blueprint-backend/internal/shared/storage/object"
	"blueprint-backend/internal/shared/telemetry"
	"blueprint-backend/internal/users"
)

const defaultGenerateTimeout = 90 * time.Second

// Notifier records a durable notification for a partner once their analysis
// is ready.
type Notifier interface {
	AnalysisReady(ctx context.Context, userID, coupleID string) error
}

// Service contains business logic for couples: linking two accounts, merging
// quiz submissions, and coordinating the single analysis generation per pair.
type Service struct {
	Repo            Repo
	Accounts        users.Repo
	LLM             llm.Client
	Notifier        Notifier
	Store           object.ObjectStore
	JobQueue        queue.Client
	PromptVersion   string
	GenerateTimeout time.Duration
}

// LinkPartner pairs the caller with the account owning the invite code.
func (s *Service) LinkPartner(ctx context.Context, userID, inviteCode string) (Couple, error) {
	if strings.TrimSpace(userID) == "" {
		return Couple{}, errors.New("userID is required")
	}

	partner, err := s.Accounts.GetByInviteCode(ctx, strings.ToUpper(strings.TrimSpace(inviteCode)))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Couple{}, ErrInviteNotFound
		}
		return Couple{}, err
	}
	if partner.ID == userID {
		return Couple{}, ErrSelfLink
	}

	if _, err := s.Repo.GetByUserID(ctx, userID); err == nil {
		return Couple{}, ErrAlreadyLinked
	} else if !errors.Is(err, ErrNotFound) {
		return Couple{}, err
	}
	if _, err := s.Repo.GetByUserID(ctx, partner.ID); err == nil {
		return Couple{}, ErrAlreadyLinked
	} else if !errors.Is(err, ErrNotFound) {
		return Couple{}, err
	}

	// Canonical slot ordering keeps the pair stable regardless of who linked.
	userAID, userBID := userID, partner.ID
	if userAID > userBID {
		userAID, userBID = userBID, userAID
	}

	couple := Couple{
		ID:            uuid.NewString(),
		UserAID:       userAID,
		UserBID:       userBID,
		AnalysisState: StateWaitingForPartners,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, couple); err != nil {
		return Couple{}, err
	}
	return couple, nil
}

// GetForUser returns the caller's couple.
func (s *Service) GetForUser(ctx context.Context, userID string) (Couple, error) {
	if strings.TrimSpace(userID) == "" {
		return Couple{}, errors.New("userID is required")
	}
	couple, err := s.Repo.GetByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Couple{}, ErrNotLinked
	}
	return couple, err
}

// Get returns a couple by ID, restricted to its members.
func (s *Service) Get(ctx context.Context, coupleID, userID string) (Couple, error) {
	couple, err := s.Repo.GetByID(ctx, coupleID)
	if err != nil {
		return Couple{}, err
	}
	if !couple.IsMember(userID) {
		return Couple{}, ErrNotMember
	}
	return couple, nil
}

// SubmitResult scores the caller's quiz answers, merges the submission into
// their couple record, and triggers the analysis coordinator.
func (s *Service) SubmitResult(ctx context.Context, userID string, answers []quiz.Answer) (Couple, error) {
	couple, err := s.GetForUser(ctx, userID)
	if err != nil {
		return Couple{}, err
	}

	scores, primary, secondary, err := quiz.Score(answers)
	if err != nil {
		return Couple{}, err
	}

	sub := PartnerSubmission{
		UserID:      userID,
		CompletedAt: time.Now().UTC(),
		Primary:     primary,
		Secondary:   secondary,
		Scores:      scores,
	}
	updated, err := s.Repo.SetPartnerSubmission(ctx, couple.ID, sub)
	if err != nil {
		return Couple{}, err
	}

	s.trigger(ctx, updated.ID)
	return updated, nil
}

// Retrigger re-invokes the coordinator for a couple, e.g. after a failed
// generation. Idempotent: a ready or in-flight couple is left alone.
func (s *Service) Retrigger(ctx context.Context, coupleID, userID string) error {
	if _, err := s.Get(ctx, coupleID, userID); err != nil {
		return err
	}
	s.trigger(ctx, coupleID)
	return nil
}

// trigger hands the couple to the coordinator, through the job queue when one
// is configured, otherwise inline.
func (s *Service) trigger(ctx context.Context, coupleID string) {
	requestID := requestIDFromContext(ctx)
	if s.JobQueue != nil {
		msg := queue.Message{
			CoupleID:   coupleID,
			RequestID:  requestID,
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		err := s.JobQueue.Send(ctx, msg)
		if err == nil {
			return
		}
		telemetry.Error("couple.analysis.enqueue_failed", map[string]any{
			"request_id": requestID,
			"couple_id":  coupleID,
			"error":      sanitizeError(err),
		})
	}
	go s.processAsync(backgroundWithRequestID(ctx), coupleID)
}

func (s *Service) processAsync(ctx context.Context, coupleID string) {
	if err := s.ProcessCouple(ctx, coupleID); err != nil {
		telemetry.Error("couple.analysis.process_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"couple_id":  coupleID,
			"error":      sanitizeError(err),
		})
	}
}

// ProcessCouple is the analysis coordinator. It is safe to invoke on every
// couple-record write and any number of times concurrently: the repo claim is
// the only gate, and a claim that is not won is a routine no-op. Only
// infrastructure failures return an error, for the invoking runtime's retry
// policy; domain failures resolve to a well-defined analysis state.
func (s *Service) ProcessCouple(ctx context.Context, coupleID string) error {
	if strings.TrimSpace(coupleID) == "" {
		return errors.New("coupleID is required")
	}

	couple, claimed, err := s.Repo.ClaimGeneration(ctx, coupleID)
	if err != nil {
		return err
	}
	requestID := requestIDFromContext(ctx)
	if !claimed {
		metrics.IncGenerationSkipped()
		telemetry.Info("couple.analysis.skip", map[string]any{
			"request_id":     requestID,
			"couple_id":      coupleID,
			"analysis_state": couple.AnalysisState,
			"both_complete":  couple.BothComplete(),
		})
		return nil
	}

	startedAt := time.Now().UTC()
	metrics.IncGenerationClaimed()
	telemetry.Info("couple.analysis.status", map[string]any{
		"request_id":        requestID,
		"couple_id":         coupleID,
		"status":            StateInProgress,
		"status_transition": "waiting_for_partners->in_progress",
	})

	defer func() {
		if r := recover(); r != nil {
			s.failGeneration(ctx, coupleID, fmt.Errorf("panic: %v", r), startedAt)
		}
	}()

	if s.LLM == nil {
		s.failGeneration(ctx, coupleID, errors.New("missing llm client"), startedAt)
		return nil
	}

	input, err := s.buildGenerateInput(ctx, couple)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.releaseGeneration(ctx, coupleID, StateFailed, ErrorCodeAccountMissing, err, false, startedAt)
			return nil
		}
		s.releaseGeneration(ctx, coupleID, StateWaitingForPartners, ErrorCodeStorage, err, true, startedAt)
		return err
	}

	timeout := s.GenerateTimeout
	if timeout <= 0 {
		timeout = defaultGenerateTimeout
	}
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	raw, genErr := newRetryingLLM(s.LLM, coupleID, requestID).GenerateCouplesAnalysis(genCtx, input)
	cancel()
	if genErr != nil {
		s.failGeneration(ctx, coupleID, genErr, startedAt)
		return nil
	}

	s.archiveRaw(ctx, coupleID, raw)

	analysis, decodeErr := decodeAnalysis(raw)
	if decodeErr != nil {
		// Malformed output is absorbed, not surfaced: the deterministic
		// template always yields a complete analysis.
		metrics.IncGenerationFallback()
		telemetry.Info("couple.analysis.fallback", map[string]any{
			"request_id": requestID,
			"couple_id":  coupleID,
			"error":      sanitizeError(decodeErr),
		})
		analysis = fallbackAnalysis(input.PartnerA, input.PartnerB)
	}
	completedAt := time.Now().UTC()
	analysis.GeneratedAt = completedAt

	if err := s.Repo.CompleteGeneration(ctx, coupleID, analysis, completedAt); err != nil {
		if errors.Is(err, ErrClaimLost) {
			// A retake replaced the inputs while we were generating; the
			// new submission has already re-triggered the coordinator.
			telemetry.Info("couple.analysis.stale", map[string]any{
				"request_id": requestID,
				"couple_id":  coupleID,
			})
			return nil
		}
		s.releaseGeneration(ctx, coupleID, StateWaitingForPartners, ErrorCodeStorage, err, true, startedAt)
		return err
	}

	metrics.IncGenerationReady()
	metrics.ObserveGenerationDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("couple.analysis.status", map[string]any{
		"request_id":        requestID,
		"couple_id":         coupleID,
		"status":            StateReady,
		"status_transition": "in_progress->ready",
		"used_fallback":     decodeErr != nil,
		"duration_ms":       durationMs(startedAt, completedAt),
	})

	// Notification failures never roll back the persisted analysis.
	s.notifyPartners(ctx, couple)
	return nil
}

func (s *Service) buildGenerateInput(ctx context.Context, couple Couple) (llm.GenerateInput, error) {
	if couple.PartnerA == nil || couple.PartnerB == nil {
		return llm.GenerateInput{}, errors.New("couple is missing a submission")
	}
	accountA, err := s.Accounts.GetByID(ctx, couple.PartnerA.UserID)
	if err != nil {
		return llm.GenerateInput{}, fmt.Errorf("account lookup id=%s: %w", couple.PartnerA.UserID, err)
	}
	accountB, err := s.Accounts.GetByID(ctx, couple.PartnerB.UserID)
	if err != nil {
		return llm.GenerateInput{}, fmt.Errorf("account lookup id=%s: %w", couple.PartnerB.UserID, err)
	}
	return llm.GenerateInput{
		CoupleID:      couple.ID,
		PartnerA:      profileFor(accountA, *couple.PartnerA),
		PartnerB:      profileFor(accountB, *couple.PartnerB),
		PromptVersion: s.PromptVersion,
	}, nil
}

func profileFor(account users.User, sub PartnerSubmission) llm.PartnerProfile {
	return llm.PartnerProfile{
		Name:      account.DisplayName(),
		Primary:   string(sub.Primary),
		Secondary: string(sub.Secondary),
		Scores:    sub.Scores,
	}
}

func (s *Service) notifyPartners(ctx context.Context, couple Couple) {
	if s.Notifier == nil {
		return
	}
	for _, userID := range []string{couple.UserAID, couple.UserBID} {
		if err := s.Notifier.AnalysisReady(ctx, userID, couple.ID); err != nil {
			telemetry.Error("couple.notification.failed", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"couple_id":  couple.ID,
				"user_id":    userID,
				"error":      sanitizeError(err),
			})
		}
	}
}

// archiveRaw keeps the raw generator output for diagnostics. Best effort.
func (s *Service) archiveRaw(ctx context.Context, coupleID string, raw json.RawMessage) {
	if s.Store == nil || len(raw) == 0 {
		return
	}
	name := fmt.Sprintf("%d.json", time.Now().UTC().UnixNano())
	if _, _, err := s.Store.Save(ctx, coupleID, name, bytes.NewReader(raw)); err != nil {
		telemetry.Error("couple.analysis.archive_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"couple_id":  coupleID,
			"error":      sanitizeError(err),
		})
	}
}

func (s *Service) failGeneration(ctx context.Context, coupleID string, err error, startedAt time.Time) {
	code, retryable := classifyFailure(err)
	toState := StateFailed
	if retryable {
		toState = StateWaitingForPartners
	}
	s.releaseGeneration(ctx, coupleID, toState, code, err, retryable, startedAt)
}

func (s *Service) releaseGeneration(ctx context.Context, coupleID, toState, code string, cause error, retryable bool, startedAt time.Time) {
	msg := sanitizeError(cause)
	// Release with a fresh context so cancellation of the trigger cannot leave
	// the record stuck at in_progress.
	if err := s.Repo.ReleaseGeneration(context.Background(), coupleID, toState, code, msg, retryable); err != nil {
		telemetry.Error("couple.analysis.release_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"couple_id":  coupleID,
			"error":      sanitizeError(err),
			"cause":      msg,
		})
	}
	completedAt := time.Now().UTC()
	metrics.IncGenerationFailed()
	metrics.ObserveGenerationDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("couple.analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"couple_id":         coupleID,
		"status":            toState,
		"status_transition": "in_progress->" + toState,
		"error_code":        code,
		"error":             msg,
		"retryable":         retryable,
		"duration_ms":       durationMs(startedAt, completedAt),
	})
}

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") {
		return ErrorCodeLLMTimeout, true
	}
	if shouldRetryLLM(err) {
		return ErrorCodeLLMTransport, true
	}
	if strings.Contains(msg, "account lookup") {
		return ErrorCodeAccountMissing, false
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}

func durationMs(startedAt, completedAt time.Time) float64 {
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}
