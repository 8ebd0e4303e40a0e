package store

import (
	"context"
	"sync"
	"time"

	"github.com/brizzai/miniauth/internal/auth/models"
)

// MemoryStore keeps users in process memory. Data is lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	bySubject map[string]*models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bySubject: make(map[string]*models.User)}
}

func (s *MemoryStore) FindBySubjectID(ctx context.Context, subjectID string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.bySubject[subjectID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) Create(ctx context.Context, subjectID string, at time.Time) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bySubject[subjectID]; ok {
		return nil, ErrAlreadyExists
	}
	s.nextID++
	u := &models.User{
		ID:          s.nextID,
		SubjectID:   subjectID,
		CreatedAt:   at,
		LastLoginAt: at,
	}
	s.bySubject[subjectID] = u
	return copyUser(u), nil
}

func (s *MemoryStore) UpdateLastLogin(ctx context.Context, subjectID string, at time.Time) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.bySubject[subjectID]
	if !ok {
		return nil, ErrNotFound
	}
	u.LastLoginAt = at
	return copyUser(u), nil
}

// SetProfile fills profile fields; profile editing is outside the login flow.
func (s *MemoryStore) SetProfile(ctx context.Context, subjectID string, nickName, avatarURL *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.bySubject[subjectID]
	if !ok {
		return ErrNotFound
	}
	u.NickName = nickName
	u.AvatarURL = avatarURL
	return nil
}

// Len returns the number of stored users.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bySubject)
}

func (s *MemoryStore) Close() error { return nil }

func copyUser(u *models.User) *models.User {
	c := *u
	if u.NickName != nil {
		v := *u.NickName
		c.NickName = &v
	}
	if u.AvatarURL != nil {
		v := *u.AvatarURL
		c.AvatarURL = &v
	}
	return &c
}

var _ UserStore = (*MemoryStore)(nil)
