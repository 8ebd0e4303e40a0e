// Package store persists local user records keyed by identity-provider subject.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/brizzai/miniauth/internal/auth/models"
)

var (
	// ErrNotFound is returned when no user exists for a subject
	ErrNotFound = errors.New("user not found")

	// ErrAlreadyExists is returned by Create when the subject is already taken,
	// typically because a concurrent login created it first
	ErrAlreadyExists = errors.New("user already exists")
)

// UserStore is the durable subject -> user mapping. Implementations must guarantee
// at most one user per subject id.
type UserStore interface {
	FindBySubjectID(ctx context.Context, subjectID string) (*models.User, error)

	// Create inserts a user with no profile data. CreatedAt and LastLoginAt are both set to at.
	Create(ctx context.Context, subjectID string, at time.Time) (*models.User, error)

	// UpdateLastLogin sets LastLoginAt and leaves every other field untouched.
	UpdateLastLogin(ctx context.Context, subjectID string, at time.Time) (*models.User, error)

	Close() error
}
