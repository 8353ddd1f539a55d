package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-rbac/pkg/metrics"
)

// Runs against a live server only when CLINIC_TEST_REDIS_URL is set.
func TestLoginAttemptStore(t *testing.T) {
	url := os.Getenv("CLINIC_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CLINIC_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	store := NewLoginAttemptStore(client, metrics.NewNop())
	key := "test-" + uuid.NewString()
	defer store.Reset(ctx, key)

	n, err := store.Failures(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for i := 1; i <= 3; i++ {
		n, err = store.RecordFailure(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	ttl, err := client.TTL(ctx, keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Reset(ctx, key))
	n, err = store.Failures(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not a url")
	assert.Error(t, err)
}
