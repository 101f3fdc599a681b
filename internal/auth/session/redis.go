// Package session stores live sessions. Presence of the key is what keeps a
// token valid; deletion revokes it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"bloodlink/internal/auth"
	"bloodlink/internal/platform/redis"
)

// Redis keeps sessions in Redis with a TTL matching the token lifetime.
type Redis struct {
	client *redis.Client
}

// NewRedis builds the store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func sessionKey(id string) string {
	return "session:" + id
}

// Save records the session under its key with the given TTL.
func (s *Redis) Save(ctx context.Context, session auth.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Exists reports whether the session is still live.
func (s *Redis) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}

// Delete revokes the session. Deleting a missing session is not an error.
func (s *Redis) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
