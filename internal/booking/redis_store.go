package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "booking_session:"

// RedisStore persists booking sessions in Redis. The key TTL doubles as the
// idle-expiry policy: every Put refreshes it, so abandoned flows disappear on
// their own instead of living forever.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		return nil
	}
	return &RedisStore{redis: client, ttl: ttl}
}

// Get returns the session for userID, or nil when absent or expired.
func (s *RedisStore) Get(ctx context.Context, userID string) (*Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	raw, err := s.redis.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("booking: load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("booking: decode session: %w", err)
	}
	return &sess, nil
}

// Put stores the session, refreshing the idle TTL.
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("booking: encode session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("booking: store session: %w", err)
	}
	return nil
}

// Delete removes the session for userID.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.redis.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("booking: delete session: %w", err)
	}
	return nil
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}
