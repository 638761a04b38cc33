package couples

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var coupleRowColumns = []string{
	"id", "user_a_id", "user_b_id", "partner_a", "partner_b", "analysis_state",
	"analysis", "error_code", "error_message", "error_retryable", "created_at", "updated_at",
}

func readyRow(state string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(coupleRowColumns).AddRow(
		"couple-1", "user-a", "user-b",
		`{"userId":"user-a","completedAt":"2026-08-01T00:00:00Z","primary":"sensual","scores":[0,12,0,0,0]}`,
		`{"userId":"user-b","completedAt":"2026-08-02T00:00:00Z","primary":"kinky","scores":[0,0,0,9,0]}`,
		state, nil, nil, nil, nil, now, now,
	)
}

func TestPGRepoClaimGenerationClaimsReadyCouple(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectQuery("FROM couples WHERE id = .+ FOR UPDATE").
		WithArgs("couple-1").
		WillReturnRows(readyRow(StateWaitingForPartners))
	mock.ExpectExec("UPDATE couples").
		WithArgs(StateInProgress, "couple-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	couple, claimed, err := repo.ClaimGeneration(context.Background(), "couple-1")
	if err != nil {
		t.Fatalf("ClaimGeneration: %v", err)
	}
	if !claimed {
		t.Fatalf("expected claim to be won")
	}
	if couple.AnalysisState != StateInProgress {
		t.Fatalf("expected in_progress, got %s", couple.AnalysisState)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoClaimGenerationSkipsInProgress(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectQuery("FROM couples WHERE id = .+ FOR UPDATE").
		WithArgs("couple-1").
		WillReturnRows(readyRow(StateInProgress))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	_, claimed, err := repo.ClaimGeneration(context.Background(), "couple-1")
	if err != nil {
		t.Fatalf("ClaimGeneration: %v", err)
	}
	if claimed {
		t.Fatalf("expected claim to be skipped for in_progress couple")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCompleteGenerationClaimLost(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	completedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE couples").
		WithArgs(sqlmock.AnyArg(), StateReady, completedAt, "couple-1", StateInProgress).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	err = repo.CompleteGeneration(context.Background(), "couple-1", CouplesAnalysis{Summary: "s"}, completedAt)
	if !errors.Is(err, ErrClaimLost) {
		t.Fatalf("expected ErrClaimLost, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM couples WHERE id = .+ LIMIT 1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(coupleRowColumns))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
