package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when REDIS_TEST_ADDR is set.
func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, os.Getenv("REDIS_TEST_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisStore(client)
	keys := []string{"test:avirato_token", "test:avirato_web_codes"}
	t.Cleanup(func() { _ = store.Delete(ctx, keys...) })

	require.NoError(t, store.Set(ctx, map[string]string{keys[0]: "tok", keys[1]: `["H1"]`}, time.Minute))
	got, err := store.Get(ctx, append(keys, "test:missing")...)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{keys[0]: "tok", keys[1]: `["H1"]`}, got)

	ttl, err := client.TTL(ctx, keys[0]).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, keys...))
	got, err = store.Get(ctx, keys...)
	require.NoError(t, err)
	assert.Empty(t, got)
}
