package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a household member account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Username is the unique login handle.
	Username string

	// DisplayName is the name shown to other members.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// IsAdmin marks the account that may manage other accounts.
	IsAdmin bool

	// DefaultPassword reports whether the account still uses the
	// provisioning-time default password.
	DefaultPassword bool

	// LoginAttempts counts consecutive failed logins. Past the configured
	// maximum the account must be reset to the default password.
	LoginAttempts int

	// LastLogin is the Unix timestamp of the last successful login,
	// zero if the user has never logged in.
	LastLogin int64

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// NewUser creates a user with a fresh ID and creation timestamp.
// The password hash is set by the authenticator, not here.
func NewUser(username, displayName string) *User {
	return &User{
		ID:              uuid.New().String(),
		Username:        username,
		DisplayName:     displayName,
		DefaultPassword: true,
		CreatedAt:       time.Now().Unix(),
	}
}
