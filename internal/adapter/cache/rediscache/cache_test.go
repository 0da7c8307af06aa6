package rediscache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/cv-match-scorer/internal/adapter/cache/rediscache"
	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) (*rediscache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rediscache.NewWithClient(client, ttl), mr
}

func TestCache_SetGet(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t, time.Hour)

	want := domain.ScoreResult{
		Total:          88,
		Classification: domain.ClassExcellent,
		Candidate:      domain.Candidate{Name: "Jane Doe", Skills: []string{"go"}},
	}
	require.NoError(t, c.Set(context.Background(), "score:abc", want))

	got, hit, err := c.Get(context.Background(), "score:abc")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, got)
}

func TestCache_Miss(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t, time.Hour)

	_, hit, err := c.Get(context.Background(), "score:missing")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_TTLExpiry(t *testing.T) {
	t.Parallel()
	c, mr := newTestCache(t, time.Minute)

	require.NoError(t, c.Set(context.Background(), "score:abc", domain.ScoreResult{Total: 10}))
	mr.FastForward(2 * time.Minute)

	_, hit, err := c.Get(context.Background(), "score:abc")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_Ping(t *testing.T) {
	t.Parallel()
	c, mr := newTestCache(t, time.Hour)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
