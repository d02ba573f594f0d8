package rediscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-contacts-api/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*UserCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewUserCache(rdb), mr
}

func TestUserCache_SetGetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	u := &domain.User{
		UserID:       "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$fakehash",
		Confirmed:    true,
		Avatar:       "s3://bucket/avatars/u1.png",
		RefreshToken: "deadbeef",
	}
	require.NoError(t, cache.Set(ctx, u, time.Minute))

	got, err := cache.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)
	assert.Equal(t, u.Username, got.Username)
	assert.Equal(t, u.Avatar, got.Avatar)
	assert.True(t, got.Confirmed)
	// Fields hidden from API responses still survive the cache.
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.Equal(t, u.RefreshToken, got.RefreshToken)
}

func TestUserCache_Miss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.Get(context.Background(), "nobody@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserCache_TTLExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	u := &domain.User{UserID: "u1", Email: "alice@example.com"}
	require.NoError(t, cache.Set(ctx, u, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, "alice@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	u := &domain.User{UserID: "u1", Email: "alice@example.com"}
	require.NoError(t, cache.Set(ctx, u, time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "alice@example.com"))

	_, err := cache.Get(ctx, "alice@example.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserCache_Invalidate_MissingKey_NoError(t *testing.T) {
	cache, _ := newTestCache(t)
	assert.NoError(t, cache.Invalidate(context.Background(), "nobody@example.com"))
}

func TestUserCache_LastWriteWins(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.User{UserID: "u1", Email: "alice@example.com"}, time.Minute))
	require.NoError(t, cache.Set(ctx, &domain.User{UserID: "u1", Email: "alice@example.com", Confirmed: true}, time.Minute))

	got, err := cache.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, got.Confirmed)
}
