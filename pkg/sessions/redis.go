package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "jsonauth:session:"

// RedisRegistry stores session entries in Redis so multiple nodes share one
// registry. Expiry is delegated to Redis key TTLs.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry wraps an existing Redis client. A non-positive ttl stores
// entries without expiry.
func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

func redisKey(token string) string {
	return redisKeyPrefix + token
}

func (r *RedisRegistry) Put(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal session entry: %w", err)
	}
	var ttl time.Duration
	if r.ttl > 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, redisKey(entry.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Get(ctx context.Context, token string) (Entry, error) {
	data, err := r.client.Get(ctx, redisKey(token)).Bytes()
	if err == redis.Nil {
		return Entry{}, ErrSessionNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to load session: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to decode session entry: %w", err)
	}
	return entry, nil
}

// Touch rewrites the entry with a fresh LastValidatedAt, which also resets
// the Redis TTL.
func (r *RedisRegistry) Touch(ctx context.Context, token string, at time.Time) error {
	entry, err := r.Get(ctx, token)
	if err != nil {
		return err
	}
	entry.LastValidatedAt = at
	return r.Put(ctx, entry)
}

func (r *RedisRegistry) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, redisKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *RedisRegistry) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to decode session entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return entries, nil
}

func (r *RedisRegistry) Count(ctx context.Context) (int, error) {
	var count int
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return count, nil
}
