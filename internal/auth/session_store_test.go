package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"roomrent/marketplace/internal/models"
)

func unreachableClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisSessionStore_KeyPrefix(t *testing.T) {
	store := NewRedisSessionStore(unreachableClient(t), "").(*redisSessionStore)
	assert.Equal(t, "session:abc", store.key("abc"))

	store = NewRedisSessionStore(unreachableClient(t), "rr:").(*redisSessionStore)
	assert.Equal(t, "rr:abc", store.key("abc"))
}

func TestRedisSessionStore_BackendFailure(t *testing.T) {
	store := NewRedisSessionStore(unreachableClient(t), "")
	ctx := context.Background()

	assert.ErrorIs(t, store.Ping(ctx), models.ErrBackend)
	assert.ErrorIs(t, store.Save(ctx, "sid", "identity", time.Minute), models.ErrBackend)

	_, err := store.Lookup(ctx, "sid")
	assert.ErrorIs(t, err, models.ErrBackend)
	assert.NotErrorIs(t, err, models.ErrAuth)
}
