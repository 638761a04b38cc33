package users

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewInviteCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code := NewInviteCode()
		if len(code) != inviteCodeLength {
			t.Fatalf("expected %d-character code, got %q", inviteCodeLength, code)
		}
		for _, r := range code {
			if !strings.ContainsRune(inviteCodeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 190 {
		t.Fatalf("expected mostly unique codes, got %d unique out of 200", len(seen))
	}
}

func TestUpsertFromAuthAssignsInviteCode(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	err := svc.UpsertFromAuth(context.Background(), User{ID: "google:1", Email: "a@example.com", FullName: "Alice"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	user, err := svc.GetByID(context.Background(), "google:1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(user.InviteCode) != inviteCodeLength {
		t.Fatalf("expected generated invite code, got %q", user.InviteCode)
	}
}

func TestUpsertFromAuthPreservesInviteCode(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.UpsertFromAuth(context.Background(), User{ID: "google:1", Email: "a@example.com"}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	first, err := svc.GetByID(context.Background(), "google:1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	// A second login must not rotate the code the partner may already have.
	if err := svc.UpsertFromAuth(context.Background(), User{ID: "google:1", Email: "a@example.com", FullName: "Alice B"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	second, err := svc.GetByID(context.Background(), "google:1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if second.InviteCode != first.InviteCode {
		t.Fatalf("invite code changed across logins: %q -> %q", first.InviteCode, second.InviteCode)
	}
	if second.FullName != "Alice B" {
		t.Fatalf("expected profile fields to refresh, got %q", second.FullName)
	}
}

func TestUpsertFromAuthValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.UpsertFromAuth(context.Background(), User{ID: "", Email: "a@example.com"}); err == nil {
		t.Fatal("expected error for missing id")
	}
	if err := svc.UpsertFromAuth(context.Background(), User{ID: "google:1", Email: ""}); err == nil {
		t.Fatal("expected error for missing email")
	}
}

func TestGetByInviteCodeNormalizes(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	if err := repo.Upsert(context.Background(), User{ID: "google:1", Email: "a@example.com", InviteCode: "ABC234"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	user, err := svc.GetByInviteCode(context.Background(), "  abc234 ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if user.ID != "google:1" {
		t.Fatalf("expected google:1, got %q", user.ID)
	}

	if _, err := svc.GetByInviteCode(context.Background(), "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for short code, got %v", err)
	}
	if _, err := svc.GetByInviteCode(context.Background(), "ZZZZZZ"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown code, got %v", err)
	}
}
