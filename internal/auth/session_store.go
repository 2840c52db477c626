package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"roomrent/marketplace/internal/models"
)

type SessionStore interface {
	Save(ctx context.Context, sessionID, identityID string, ttl time.Duration) error
	Lookup(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

type redisSessionStore struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionStore(client *redis.Client, prefix string) SessionStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &redisSessionStore{
		client: client,
		prefix: prefix,
	}
}

func (s *redisSessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *redisSessionStore) Save(ctx context.Context, sessionID, identityID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(sessionID), identityID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: save session: %v", models.ErrBackend, err)
	}
	return nil
}

func (s *redisSessionStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	identityID, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: session expired", models.ErrAuth)
		}
		return "", fmt.Errorf("%w: lookup session: %v", models.ErrBackend, err)
	}
	return identityID, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: delete session: %v", models.ErrBackend, err)
	}
	return nil
}

func (s *redisSessionStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %v", models.ErrBackend, err)
	}
	return nil
}
