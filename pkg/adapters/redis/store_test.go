package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/setpoint/pkg/adapters/redis"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	mr := miniredis.RunT(t)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.RunRecord{RunID: "run-ttl", Axis: "furnace", Status: domain.StatusRunning}))

	_, err := store.Load(ctx, "run-ttl")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "run-ttl")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRedisStore_ListPrunesIndex(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"), redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.RunRecord{RunID: "a", Axis: "stage"}))
	assert.True(t, mr.Exists("test:a"))

	runs, err := store.List(ctx, "stage")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, runs)

	// Index scores are wall-clock based, so move them into the past directly.
	mr.ZAdd("test:index:stage", 1, "a")
	runs, err = store.List(ctx, "stage")
	require.NoError(t, err)
	assert.Empty(t, runs)
}
