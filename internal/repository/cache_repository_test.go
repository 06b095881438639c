package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, "outpass", nil), mr
}

func TestCacheRepositorySetGet(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "shortfall:s1", map[string]int{"count": 2}, time.Minute))
	assert.True(t, mr.Exists("outpass:shortfall:s1"))

	var got map[string]int
	require.NoError(t, repo.Get(ctx, "shortfall:s1", &got))
	assert.Equal(t, 2, got["count"])

	mr.FastForward(2 * time.Minute)
	err := repo.Get(ctx, "shortfall:s1", &got)
	assert.True(t, appErrors.Is(err, appErrors.ErrCacheMiss))
}

func TestCacheRepositoryNilClient(t *testing.T) {
	repo := NewCacheRepository(nil, "outpass", nil)
	var dest int
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", 1, time.Minute))
}
