package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bevops/truckplan/internal/config"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewProjectionCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	_, ok, err := c.Get(context.Background(), "0500ML-STD", "2026-03-02")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, c.Set(context.Background(), "0500ML-STD", "2026-03-02", nil))
	assert.NoError(t, c.Invalidate(context.Background(), "0500ML-STD"))
	assert.NoError(t, c.InvalidateAll(context.Background()))
}

func TestProjectionKeyShapes(t *testing.T) {
	key := buildProjectionKey("0500ML-STD", "2026-03-02")
	assert.True(t, strings.HasPrefix(key, projectionKeyPrefix+":"))
	assert.True(t, strings.HasSuffix(key, ":2026-03-02"))
	assert.NotContains(t, key, "0500ML-STD")

	other := buildProjectionKey("1000ML-STD", "2026-03-02")
	assert.NotEqual(t, key, other)

	// The per-SKU invalidation prefix must cover every plan date for the SKU.
	prefix := projectionKeyPrefix + ":" + skuHash("0500ML-STD") + ":"
	assert.True(t, strings.HasPrefix(key, prefix))
}
