package users

import "time"

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	GivenName  string    `json:"givenName"`
	FamilyName string    `json:"familyName"`
	PictureURL string    `json:"pictureUrl"`
	InviteCode string    `json:"inviteCode"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DisplayName returns the name shown to a partner, falling back to email.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.GivenName != "" {
		return u.GivenName
	}
	return u.Email
}
