package api

import "context"

// Tokens issues session tokens and resolves them back to user ids.
type Tokens interface {
	Issue(userID string) (string, error)
	UserIDFromAuthHeader(h string) (string, error)
}

// Reserver serializes registrations of the same email.
type Reserver interface {
	// Reserve returns true when the email was free and is now held.
	Reserve(ctx context.Context, email string) (bool, error)
	// Release frees a held email.
	Release(ctx context.Context, email string) error
}
