package session

import (
	"context"
	"errors"
	"time"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/auth/models"
	"github.com/brizzai/miniauth/internal/logger"
	"github.com/brizzai/miniauth/internal/store"
	"go.uber.org/zap"
)

const defaultStoreTimeout = 5 * time.Second

// UserResolver maps a provider subject to a local user: created on first sight,
// last-login touched afterwards. Profile fields are never written here.
type UserResolver struct {
	store   store.UserStore
	timeout time.Duration
	now     func() time.Time
}

func NewUserResolver(s store.UserStore, timeout time.Duration) *UserResolver {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &UserResolver{store: s, timeout: timeout, now: time.Now}
}

// Resolve returns the user for subjectID and whether it was created by this call.
// Every store failure, timeouts included, is a StorePersistenceError.
func (r *UserResolver) Resolve(ctx context.Context, subjectID string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := r.now()

	_, err := r.store.FindBySubjectID(ctx, subjectID)
	switch {
	case err == nil:
		user, err := r.touch(ctx, subjectID, now)
		return user, false, err
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, autherr.Wrap(autherr.StorePersistenceError, err, "failed to look up user")
	}

	user, err := r.store.Create(ctx, subjectID, now)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		return nil, false, autherr.Wrap(autherr.StorePersistenceError, err, "failed to create user")
	}

	// a concurrent login created the subject between our lookup and insert
	logger.Debug("user create lost race, touching existing record")
	user, err = r.touch(ctx, subjectID, now)
	return user, false, err
}

func (r *UserResolver) touch(ctx context.Context, subjectID string, now time.Time) (*models.User, error) {
	user, err := r.store.UpdateLastLogin(ctx, subjectID, now)
	if err != nil {
		logger.Warn("failed to update last login", zap.Error(err))
		return nil, autherr.Wrap(autherr.StorePersistenceError, err, "failed to update last login")
	}
	return user, nil
}
