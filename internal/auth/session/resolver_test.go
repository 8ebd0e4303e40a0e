package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brizzai/miniauth/internal/auth/autherr"
	"github.com/brizzai/miniauth/internal/auth/models"
	"github.com/brizzai/miniauth/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindBySubjectID(ctx context.Context, subjectID string) (*models.User, error) {
	args := m.Called(ctx, subjectID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, subjectID string, at time.Time) (*models.User, error) {
	args := m.Called(ctx, subjectID, at)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) UpdateLastLogin(ctx context.Context, subjectID string, at time.Time) (*models.User, error) {
	args := m.Called(ctx, subjectID, at)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) Close() error { return nil }

var anyCtx = mock.Anything

func fixedResolver(s store.UserStore, now time.Time) *UserResolver {
	r := NewUserResolver(s, time.Second)
	r.now = func() time.Time { return now }
	return r
}

func TestUserResolver_FirstLoginCreates(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &mockStore{}
	s.On("FindBySubjectID", anyCtx, "o-1").Return(nil, store.ErrNotFound).Once()
	s.On("Create", anyCtx, "o-1", now).Return(&models.User{ID: 7, SubjectID: "o-1", CreatedAt: now, LastLoginAt: now}, nil).Once()

	user, created, err := fixedResolver(s, now).Resolve(context.Background(), "o-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(7), user.ID)
	s.AssertExpectations(t)
	s.AssertNotCalled(t, "UpdateLastLogin", anyCtx, mock.Anything, mock.Anything)
}

func TestUserResolver_RepeatLoginTouches(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	existing := &models.User{ID: 7, SubjectID: "o-1"}
	s := &mockStore{}
	s.On("FindBySubjectID", anyCtx, "o-1").Return(existing, nil).Once()
	s.On("UpdateLastLogin", anyCtx, "o-1", now).Return(&models.User{ID: 7, SubjectID: "o-1", LastLoginAt: now}, nil).Once()

	user, created, err := fixedResolver(s, now).Resolve(context.Background(), "o-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, now, user.LastLoginAt)
	s.AssertExpectations(t)
	s.AssertNotCalled(t, "Create", anyCtx, mock.Anything, mock.Anything)
}

func TestUserResolver_LostCreateRaceTouches(t *testing.T) {
	now := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	s := &mockStore{}
	s.On("FindBySubjectID", anyCtx, "o-1").Return(nil, store.ErrNotFound).Once()
	s.On("Create", anyCtx, "o-1", now).Return(nil, store.ErrAlreadyExists).Once()
	s.On("UpdateLastLogin", anyCtx, "o-1", now).Return(&models.User{ID: 3, SubjectID: "o-1"}, nil).Once()

	user, created, err := fixedResolver(s, now).Resolve(context.Background(), "o-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(3), user.ID)
	s.AssertExpectations(t)
}

func TestUserResolver_StoreFailures(t *testing.T) {
	boom := errors.New("disk I/O error")

	tests := []struct {
		name  string
		setup func(s *mockStore)
	}{
		{
			name: "lookup fails",
			setup: func(s *mockStore) {
				s.On("FindBySubjectID", anyCtx, "o-1").Return(nil, boom)
			},
		},
		{
			name: "create fails",
			setup: func(s *mockStore) {
				s.On("FindBySubjectID", anyCtx, "o-1").Return(nil, store.ErrNotFound)
				s.On("Create", anyCtx, "o-1", mock.Anything).Return(nil, boom)
			},
		},
		{
			name: "touch fails",
			setup: func(s *mockStore) {
				s.On("FindBySubjectID", anyCtx, "o-1").Return(&models.User{ID: 1}, nil)
				s.On("UpdateLastLogin", anyCtx, "o-1", mock.Anything).Return(nil, boom)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockStore{}
			tt.setup(s)

			_, _, err := NewUserResolver(s, time.Second).Resolve(context.Background(), "o-1")
			require.Error(t, err)
			assert.Equal(t, autherr.StorePersistenceError, autherr.KindOf(err))
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestUserResolver_Timeout(t *testing.T) {
	s := &mockStore{}
	s.On("FindBySubjectID", anyCtx, "o-1").Return(nil, context.DeadlineExceeded).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	})

	r := NewUserResolver(s, 20*time.Millisecond)
	_, _, err := r.Resolve(context.Background(), "o-1")
	require.Error(t, err)
	assert.Equal(t, autherr.StorePersistenceError, autherr.KindOf(err))
}

func TestUserResolver_ConcurrentFirstLogins(t *testing.T) {
	s := store.NewMemoryStore()
	r := NewUserResolver(s, time.Second)

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[int64]struct{}{}
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, wasCreated, err := r.Resolve(context.Background(), "same-subject")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[user.ID] = struct{}{}
			if wasCreated {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, s.Len())
}
