package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/brizzai/miniauth/internal/auth/models"
	"github.com/brizzai/miniauth/internal/config"
	"github.com/redis/go-redis/v9"
)

// Key layout, all under the configured prefix:
//
//	user:next_id        INCR counter for numeric user ids
//	subject:<subject>   user id owning the subject (the uniqueness index)
//	user:<id>           hash with the user record
const (
	nextIDKey     = "user:next_id"
	subjectPrefix = "subject:"
	userPrefix    = "user:"
)

// createScript allocates an id and claims the subject atomically; it returns nil
// when the subject is already claimed.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return false
end
local id = redis.call('INCR', KEYS[2])
redis.call('HSET', ARGV[3] .. id, 'id', id, 'subject_id', ARGV[1], 'created_at', ARGV[2], 'last_login_at', ARGV[2])
redis.call('SET', KEYS[1], id)
return id
`)

// touchScript updates last_login_at and returns the full hash, or nil for an unknown subject.
var touchScript = redis.NewScript(`
local id = redis.call('GET', KEYS[1])
if not id then
  return false
end
local key = ARGV[2] .. id
redis.call('HSET', key, 'last_login_at', ARGV[1])
return redis.call('HGETALL', key)
`)

// RedisStore persists users in Redis.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore connects to the configured server and verifies it answers.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreWithClient wraps an existing client. This is useful for testing with miniredis.
func NewRedisStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) subjectKey(subjectID string) string {
	return s.keyPrefix + subjectPrefix + subjectID
}

func (s *RedisStore) userKeyPrefix() string {
	return s.keyPrefix + userPrefix
}

func (s *RedisStore) FindBySubjectID(ctx context.Context, subjectID string) (*models.User, error) {
	id, err := s.client.Get(ctx, s.subjectKey(subjectID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up subject: %w", err)
	}

	fields, err := s.client.HGetAll(ctx, s.userKeyPrefix()+id).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return userFromHash(fields)
}

func (s *RedisStore) Create(ctx context.Context, subjectID string, at time.Time) (*models.User, error) {
	id, err := createScript.Run(ctx, s.client,
		[]string{s.subjectKey(subjectID), s.keyPrefix + nextIDKey},
		subjectID, toMillis(at), s.userKeyPrefix(),
	).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	ts := fromMillis(toMillis(at))
	return &models.User{
		ID:          id,
		SubjectID:   subjectID,
		CreatedAt:   ts,
		LastLoginAt: ts,
	}, nil
}

func (s *RedisStore) UpdateLastLogin(ctx context.Context, subjectID string, at time.Time) (*models.User, error) {
	values, err := touchScript.Run(ctx, s.client,
		[]string{s.subjectKey(subjectID)},
		toMillis(at), s.userKeyPrefix(),
	).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("unexpected user hash length %d", len(values))
	}

	fields := make(map[string]string, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		fields[values[i]] = values[i+1]
	}
	return userFromHash(fields)
}

// SetProfile fills profile fields; profile editing is outside the login flow.
func (s *RedisStore) SetProfile(ctx context.Context, subjectID string, nickName, avatarURL *string) error {
	id, err := s.client.Get(ctx, s.subjectKey(subjectID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to look up subject: %w", err)
	}

	key := s.userKeyPrefix() + id
	pipe := s.client.TxPipeline()
	for field, value := range map[string]*string{"nick_name": nickName, "avatar_url": avatarURL} {
		if value == nil {
			pipe.HDel(ctx, key, field)
		} else {
			pipe.HSet(ctx, key, field, *value)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set profile: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func userFromHash(fields map[string]string) (*models.User, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", fields["id"], err)
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for user %d: %w", id, err)
	}
	lastLogin, err := strconv.ParseInt(fields["last_login_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid last_login_at for user %d: %w", id, err)
	}

	u := &models.User{
		ID:          id,
		SubjectID:   fields["subject_id"],
		CreatedAt:   fromMillis(createdAt),
		LastLoginAt: fromMillis(lastLogin),
	}
	if v, ok := fields["nick_name"]; ok {
		u.NickName = &v
	}
	if v, ok := fields["avatar_url"]; ok {
		u.AvatarURL = &v
	}
	return u, nil
}

var _ UserStore = (*RedisStore)(nil)
