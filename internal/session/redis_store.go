package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the part of *redis.Client the store uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisWatcher is implemented by *redis.Client and enables optimistic WATCH/MULTI updates.
type redisWatcher interface {
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

const (
	redisKeyPrefix    = "bonafide:session:"
	redisWatchRetries = 5
)

// RedisStore keeps sessions as JSON values whose TTL follows the session deadline.
type RedisStore struct {
	client redisClient
	now    func() time.Time
}

// NewRedisStore creates a RedisStore on top of an existing client
func NewRedisStore(client redisClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Get loads a session.
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session from redis: %w", err)
	}

	return r.decode(data)
}

func (r *RedisStore) decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.Expired(r.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Save writes a session with a TTL matching its remaining lifetime.
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, s.ID)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

// Delete removes a session.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// Update applies fn inside WATCH/MULTI and retries when another writer changed the key first.
// Clients without WATCH support fall back to a plain read and write.
func (r *RedisStore) Update(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	w, ok := r.client.(redisWatcher)
	if !ok {
		s, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		fn(s)
		if err := r.Save(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	}

	key := redisKey(id)
	var updated *Session
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load session from redis: %w", err)
		}
		s, err := r.decode(data)
		if err != nil {
			return err
		}
		fn(s)

		payload, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}
		ttl := s.ExpiresAt.Sub(r.now())
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if ttl <= 0 {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to save session to redis: %w", err)
		}
		updated = s
		return nil
	}

	for attempt := 0; attempt < redisWatchRetries; attempt++ {
		err := w.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("session %s kept changing during update: %w", shortID(id), redis.TxFailedErr)
}
