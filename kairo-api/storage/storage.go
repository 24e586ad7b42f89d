package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"kairo/kairo-api/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when another account owns the email.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Users persists accounts. Emails are unique and compared normalized.
type Users interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, u domain.User) (domain.User, error)
	Delete(ctx context.Context, id string) error
}

// prepareNew fills the generated fields of a user about to be created.
func prepareNew(u domain.User, now time.Time) domain.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = domain.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now.UTC()
	}
	return u
}
