package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoUpsertKeepsExistingInviteCode(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	mock.ExpectExec("INSERT INTO users").
		WithArgs("google:1", "a@example.com", "Alice", "Alice", "Smith", nil, "ABC234").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Upsert(context.Background(), User{
		ID:         "google:1",
		Email:      "a@example.com",
		FullName:   "Alice",
		GivenName:  "Alice",
		FamilyName: "Smith",
		InviteCode: "ABC234",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGRepoGetByInviteCode(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "given_name", "family_name", "picture_url", "invite_code", "created_at", "updated_at"}).
		AddRow("google:1", "a@example.com", "Alice", nil, nil, nil, "ABC234", now, now)
	mock.ExpectQuery("FROM users").WithArgs("ABC234").WillReturnRows(rows)

	user, err := repo.GetByInviteCode(context.Background(), "ABC234")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if user.ID != "google:1" || user.InviteCode != "ABC234" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "given_name", "family_name", "picture_url", "invite_code", "created_at", "updated_at"})
	mock.ExpectQuery("FROM users").WithArgs("missing").WillReturnRows(rows)

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
