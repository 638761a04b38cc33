package couples

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres. Partner submissions and the analysis
// payload live in jsonb columns; the analysis state is a plain text column so
// conditional updates can guard on it.
type PGRepo struct {
	DB *sql.DB
}

const coupleColumns = `
id, user_a_id, user_b_id, partner_a, partner_b, analysis_state, analysis,
error_code, error_message, error_retryable, created_at, updated_at`

// Create inserts a new couple record.
func (r *PGRepo) Create(ctx context.Context, couple Couple) error {
	const query = `
INSERT INTO couples (id, user_a_id, user_b_id, partner_a, partner_b, analysis_state, created_at, updated_at)
VALUES ($1, $2, $3, NULL, NULL, $4, $5, $5)`
	_, err := r.DB.ExecContext(ctx, query,
		couple.ID,
		couple.UserAID,
		couple.UserBID,
		StateWaitingForPartners,
		couple.CreatedAt,
	)
	return err
}

// GetByID returns a couple by ID.
func (r *PGRepo) GetByID(ctx context.Context, coupleID string) (Couple, error) {
	query := `SELECT ` + coupleColumns + ` FROM couples WHERE id = $1 LIMIT 1`
	return scanCouple(r.DB.QueryRowContext(ctx, query, coupleID))
}

// GetByUserID returns the couple either slot of which is the given user.
func (r *PGRepo) GetByUserID(ctx context.Context, userID string) (Couple, error) {
	query := `SELECT ` + coupleColumns + ` FROM couples WHERE user_a_id = $1 OR user_b_id = $1 LIMIT 1`
	return scanCouple(r.DB.QueryRowContext(ctx, query, userID))
}

// SetPartnerSubmission replaces the member's submission and resets the
// analysis lifecycle for the new inputs, all inside one transaction.
func (r *PGRepo) SetPartnerSubmission(ctx context.Context, coupleID string, sub PartnerSubmission) (Couple, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Couple{}, err
	}
	defer tx.Rollback()

	// Serialize against concurrent submissions and claims for this couple.
	lockQuery := `SELECT ` + coupleColumns + ` FROM couples WHERE id = $1 FOR UPDATE`
	couple, err := scanCouple(tx.QueryRowContext(ctx, lockQuery, coupleID))
	if err != nil {
		return Couple{}, err
	}

	slot := couple.SlotFor(sub.UserID)
	if slot == "" {
		return Couple{}, ErrNotMember
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return Couple{}, err
	}

	column := "partner_a"
	if slot == "b" {
		column = "partner_b"
	}
	updateQuery := fmt.Sprintf(`
UPDATE couples
SET %s = $1::jsonb,
    analysis_state = $2,
    analysis = NULL,
    error_code = NULL,
    error_message = NULL,
    error_retryable = NULL,
    updated_at = now()
WHERE id = $3`, column)
	if _, err := tx.ExecContext(ctx, updateQuery, payload, StateWaitingForPartners, coupleID); err != nil {
		return Couple{}, err
	}

	updated, err := scanCouple(tx.QueryRowContext(ctx, `SELECT `+coupleColumns+` FROM couples WHERE id = $1`, coupleID))
	if err != nil {
		return Couple{}, err
	}
	if err := tx.Commit(); err != nil {
		return Couple{}, err
	}
	return updated, nil
}

// ClaimGeneration checks readiness and flips the record to in_progress in the
// same transaction, so two concurrent triggers cannot both pass the check.
func (r *PGRepo) ClaimGeneration(ctx context.Context, coupleID string) (Couple, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Couple{}, false, err
	}
	defer tx.Rollback()

	lockQuery := `SELECT ` + coupleColumns + ` FROM couples WHERE id = $1 FOR UPDATE`
	couple, err := scanCouple(tx.QueryRowContext(ctx, lockQuery, coupleID))
	if err != nil {
		return Couple{}, false, err
	}

	if couple.AnalysisState == StateInProgress || couple.AnalysisState == StateReady {
		if err := tx.Commit(); err != nil {
			return Couple{}, false, err
		}
		return couple, false, nil
	}
	if !couple.BothComplete() {
		if err := tx.Commit(); err != nil {
			return Couple{}, false, err
		}
		return couple, false, nil
	}

	const claimQuery = `
UPDATE couples
SET analysis_state = $1,
    error_code = NULL,
    error_message = NULL,
    error_retryable = NULL,
    updated_at = now()
WHERE id = $2`
	if _, err := tx.ExecContext(ctx, claimQuery, StateInProgress, coupleID); err != nil {
		return Couple{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return Couple{}, false, err
	}
	couple.AnalysisState = StateInProgress
	couple.ErrorCode = ""
	couple.ErrorMessage = ""
	couple.ErrorRetryable = false
	return couple, true, nil
}

// CompleteGeneration stores the analysis, guarded on the claim still holding.
func (r *PGRepo) CompleteGeneration(ctx context.Context, coupleID string, analysis CouplesAnalysis, completedAt time.Time) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	const query = `
UPDATE couples
SET analysis = $1::jsonb,
    analysis_state = $2,
    error_code = NULL,
    error_message = NULL,
    error_retryable = NULL,
    updated_at = $3
WHERE id = $4 AND analysis_state = $5`
	res, err := r.DB.ExecContext(ctx, query, payload, StateReady, completedAt, coupleID, StateInProgress)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClaimLost
	}
	return nil
}

// ReleaseGeneration moves in_progress back to a retryable (or failed) state.
func (r *PGRepo) ReleaseGeneration(ctx context.Context, coupleID string, toState string, errorCode string, errorMessage string, retryable bool) error {
	const query = `
UPDATE couples
SET analysis_state = $1,
    error_code = NULLIF($2, ''),
    error_message = NULLIF($3, ''),
    error_retryable = $4,
    updated_at = now()
WHERE id = $5 AND analysis_state = $6`
	_, err := r.DB.ExecContext(ctx, query, toState, errorCode, errorMessage, retryable, coupleID, StateInProgress)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCouple(row rowScanner) (Couple, error) {
	var c Couple
	var partnerA, partnerB, analysis sql.NullString
	var errorCode, errorMessage sql.NullString
	var errorRetryable sql.NullBool
	err := row.Scan(
		&c.ID,
		&c.UserAID,
		&c.UserBID,
		&partnerA,
		&partnerB,
		&c.AnalysisState,
		&analysis,
		&errorCode,
		&errorMessage,
		&errorRetryable,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Couple{}, ErrNotFound
		}
		return Couple{}, err
	}
	if partnerA.Valid {
		var sub PartnerSubmission
		if err := json.Unmarshal([]byte(partnerA.String), &sub); err == nil {
			c.PartnerA = &sub
		}
	}
	if partnerB.Valid {
		var sub PartnerSubmission
		if err := json.Unmarshal([]byte(partnerB.String), &sub); err == nil {
			c.PartnerB = &sub
		}
	}
	if analysis.Valid {
		var payload CouplesAnalysis
		if err := json.Unmarshal([]byte(analysis.String), &payload); err == nil {
			c.Analysis = &payload
		}
	}
	if errorCode.Valid {
		c.ErrorCode = errorCode.String
	}
	if errorMessage.Valid {
		c.ErrorMessage = errorMessage.String
	}
	if errorRetryable.Valid {
		c.ErrorRetryable = errorRetryable.Bool
	}
	return c, nil
}

var _ Repo = (*PGRepo)(nil)
