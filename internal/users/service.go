package users

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the user identity from OAuth so couples can be
// linked against a stable account record. New accounts get an invite code.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	if user.InviteCode == "" {
		user.InviteCode = NewInviteCode()
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) GetByInviteCode(ctx context.Context, code string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != inviteCodeLength {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByInviteCode(ctx, code)
}

const (
	inviteCodeLength   = 6
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NewInviteCode returns a short code a user shares with their partner to link
// accounts. The alphabet drops easily-confused characters.
func NewInviteCode() string {
	var b [inviteCodeLength]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "AAAAAA"
	}
	for i := range b {
		b[i] = inviteCodeAlphabet[int(b[i])%len(inviteCodeAlphabet)]
	}
	return string(b[:])
}
