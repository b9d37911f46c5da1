package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/qwei/roomledger/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrResetRequired      = errors.New("too many failed logins; password reset required")
)

// UserStorage defines the persistence operations the authenticator
// needs, keeping it independent of the full storage interface.
type UserStorage interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// PasswordAuthenticator implements password-based authentication using
// bcrypt, with consecutive-failure tracking. There is no timed lockout:
// past the maximum the account simply requires a reset to the default
// password.
type PasswordAuthenticator struct {
	storage         UserStorage
	maxAttempts     int
	defaultPassword string
}

var _ Authenticator = (*PasswordAuthenticator)(nil)

// NewPasswordAuthenticator creates a password-based authenticator.
// maxAttempts bounds consecutive failed logins before a reset is
// required; defaultPassword is the provisioning-time credential used by
// ResetToDefault.
func NewPasswordAuthenticator(storage UserStorage, maxAttempts int, defaultPassword string) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage:         storage,
		maxAttempts:     maxAttempts,
		defaultPassword: defaultPassword,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// HashCredential hashes a password for storage; used at provisioning
// time.
func HashCredential(credential string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Authenticate verifies the username and password.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.LoginAttempts >= a.maxAttempts {
		return nil, ErrResetRequired
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		user.LoginAttempts++
		if uerr := a.storage.UpdateUser(ctx, user); uerr != nil {
			return nil, fmt.Errorf("failed to record login attempt: %w", uerr)
		}
		return nil, ErrInvalidCredentials
	}

	user.LoginAttempts = 0
	user.LastLogin = time.Now().Unix()
	if err := a.storage.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return user, nil
}

// ChangeCredential replaces the user's password after verifying the
// current one, and clears the default-password flag.
func (a *PasswordAuthenticator) ChangeCredential(ctx context.Context, userID, current, updated string) error {
	user, err := a.storage.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if err := a.ValidateCredential(updated); err != nil {
		return err
	}

	hashed, err := HashCredential(updated)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.DefaultPassword = false
	user.LoginAttempts = 0
	return a.storage.UpdateUser(ctx, user)
}

// ResetToDefault restores the account to the default password and
// clears the failure counter.
func (a *PasswordAuthenticator) ResetToDefault(ctx context.Context, username string) error {
	user, err := a.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	hashed, err := HashCredential(a.defaultPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.DefaultPassword = true
	user.LoginAttempts = 0
	return a.storage.UpdateUser(ctx, user)
}
