package domain

import (
	"strings"
	"time"
)

// User is an account of the task board.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
}

// Registration is the body of a sign-up request.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims the username and normalizes the email. The password is
// kept as sent.
func (r Registration) Normalize() Registration {
	return Registration{
		Username: strings.TrimSpace(r.Username),
		Email:    NormalizeEmail(r.Email),
		Password: r.Password,
	}
}

// Complete reports whether every field has non-blank content.
func (r Registration) Complete() bool {
	return r.Username != "" && r.Email != "" && strings.TrimSpace(r.Password) != ""
}

// Credentials is the body of a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdate carries the optional fields of an update. Nil means unchanged.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
