package model

import (
	"strings"
	"time"
)

// User is a single account record as stored in the users document.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	// PasswordHash is persisted under "password" to stay compatible with
	// existing documents. Never copy a User into an API response.
	PasswordHash string     `json:"password"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"`
	IsActive     bool       `json:"isActive"`
}

// PublicUser is the outward view of a User.
type PublicUser struct {
	ID        string     `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Public returns the id, name and email of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
	}
}

// Profile returns the public fields plus account timestamps.
func (u *User) Profile() PublicUser {
	p := u.Public()
	createdAt := u.CreatedAt
	p.CreatedAt = &createdAt
	if u.LastLogin != nil {
		lastLogin := *u.LastLogin
		p.LastLogin = &lastLogin
	}
	return p
}

// NormalizeEmail lower-cases and trims an email address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
