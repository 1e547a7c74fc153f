package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionStore holds revoked token ids and failed login counters.
type SessionStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	RecordFailure(ctx context.Context, email string, window time.Duration) (int64, error)
	Failures(ctx context.Context, email string) (int64, error)
	ResetFailures(ctx context.Context, email string) error
}

type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func blacklistKey(tokenID string) string { return fmt.Sprintf("blacklist:%s", tokenID) }
func failuresKey(email string) string { return fmt.Sprintf("login_failures:%s", email) }

// Revoke blacklists tokenID until the token would have expired anyway.
func (s *RedisSessionStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, blacklistKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSessionStore, err)
	}
	return nil
}

func (s *RedisSessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrSessionStore, err)
	}
	return n > 0, nil
}

// RecordFailure increments the counter for email. The window starts at the
// first failure.
func (s *RedisSessionStore) RecordFailure(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := failuresKey(email)
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSessionStore, err)
	}
	if n == 1 {
		if err := s.rdb.Expire(ctx, key, window).Err(); err != nil {
			return n, fmt.Errorf("%w: %w", ErrSessionStore, err)
		}
	}
	return n, nil
}

func (s *RedisSessionStore) Failures(ctx context.Context, email string) (int64, error) {
	n, err := s.rdb.Get(ctx, failuresKey(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSessionStore, err)
	}
	return n, nil
}

func (s *RedisSessionStore) ResetFailures(ctx context.Context, email string) error {
	if err := s.rdb.Del(ctx, failuresKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSessionStore, err)
	}
	return nil
}

// NopSessionStore disables revocation and throttling.
type NopSessionStore struct{}

func (NopSessionStore) Revoke(context.Context, string, time.Duration) error { return nil }
func (NopSessionStore) IsRevoked(context.Context, string) (bool, error)      { return false, nil }
func (NopSessionStore) RecordFailure(context.Context, string, time.Duration) (int64, error) {
	return 0, nil
}
func (NopSessionStore) Failures(context.Context, string) (int64, error) { return 0, nil }
func (NopSessionStore) ResetFailures(context.Context, string) error     { return nil }

var (
	_ SessionStore = (*RedisSessionStore)(nil)
	_ SessionStore = NopSessionStore{}
)
