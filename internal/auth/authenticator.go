package auth

import (
	"context"

	"github.com/qwei/roomledger/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping auth methods without touching the
// handlers.
type Authenticator interface {
	// Authenticate verifies a username and credential, returning the
	// user if valid. Failed attempts are tracked; past the configured
	// maximum the account must be reset before it can log in again.
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)

	// ChangeCredential replaces a user's credential after verifying the
	// current one.
	ChangeCredential(ctx context.Context, userID, current, updated string) error

	// ResetToDefault restores an account to the provisioning-time
	// default credential and clears its failure counter.
	ResetToDefault(ctx context.Context, username string) error

	// ValidateCredential checks if the credential meets the
	// implementation's requirements.
	ValidateCredential(credential string) error
}
