package services

import (
	"context"
	"testing"
	"time"

	"ecolearn/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestQuota(t *testing.T, limit int) *ChatQuota {
	t.Helper()
	store := cache.NewMemoryCache(&cache.Config{DefaultTTL: time.Hour}, zap.NewNop())
	t.Cleanup(func() { store.Close() })
	return NewChatQuota(NewCacheQuotaStore(store), limit)
}

func TestQuotaConsumesDownToZero(t *testing.T) {
	ctx := context.Background()
	quota := newTestQuota(t, 3)

	for i := 3; i >= 1; i-- {
		result, err := quota.CheckAndConsume(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, i-1, result.Remaining)
	}

	result, err := quota.CheckAndConsume(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestQuotaDeniesOverLimit(t *testing.T) {
	ctx := context.Background()
	quota := newTestQuota(t, 100)

	for i := 0; i < 100; i++ {
		result, err := quota.CheckAndConsume(ctx, "u1")
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	result, err := quota.CheckAndConsume(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestQuotaWindowAnchoredAtFirstMessage(t *testing.T) {
	ctx := context.Background()
	quota := newTestQuota(t, 2)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := base
	quota.now = func() time.Time { return now }

	first, err := quota.CheckAndConsume(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, base.Add(24*time.Hour), first.ResetAt)

	// Later messages do not move the window.
	now = base.Add(6 * time.Hour)
	second, err := quota.CheckAndConsume(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, base.Add(24*time.Hour), second.ResetAt)

	now = base.Add(12 * time.Hour)
	denied, err := quota.CheckAndConsume(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, denied.Allowed)
	assert.Equal(t, base.Add(24*time.Hour), denied.ResetAt)
}

func TestQuotaResetsAfterWindowExpires(t *testing.T) {
	ctx := context.Background()
	quota := newTestQuota(t, 100)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := base
	quota.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		result, err := quota.CheckAndConsume(ctx, "u1")
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	denied, err := quota.CheckAndConsume(ctx, "u1")
	require.NoError(t, err)
	require.False(t, denied.Allowed)

	// 24h after the first message a fresh window starts.
	now = base.Add(24*time.Hour + time.Minute)
	result, err := quota.CheckAndConsume(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 99, result.Remaining)
	assert.Equal(t, now.Add(24*time.Hour), result.ResetAt)
}

func TestQuotaIsPerUser(t *testing.T) {
	ctx := context.Background()
	quota := newTestQuota(t, 1)

	first, err := quota.CheckAndConsume(ctx, "u1")
	require.NoError(t, err)
	require.True(t, first.Allowed)

	denied, err := quota.CheckAndConsume(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, denied.Allowed)

	other, err := quota.CheckAndConsume(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}
