package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-contacts-api/internal/config"
	"github.com/go-contacts-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "contacts:user:"

// NewClient creates a go-redis client from configuration.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// userRecord is the cache wire format. It carries every field of the user,
// including the ones domain.User hides from API responses: a snapshot served
// from cache must behave exactly like one loaded from the store.
type userRecord struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Confirmed    bool      `json:"confirmed"`
	Avatar       string    `json:"avatar"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toRecord(u *domain.User) userRecord {
	return userRecord(*u)
}

func (rec userRecord) toUser() *domain.User {
	u := domain.User(rec)
	return &u
}

// UserCache stores JSON snapshots of authenticated users keyed by email.
// It is an optimization only: callers must stay correct when every Get misses.
// Entries are immutable snapshots, so concurrent writers are last-write-wins.
type UserCache struct {
	rdb *redis.Client
}

func NewUserCache(rdb *redis.Client) *UserCache {
	return &UserCache{rdb: rdb}
}

// Get returns the cached user snapshot for email.
// Returns domain.ErrNotFound on a cache miss.
func (c *UserCache) Get(ctx context.Context, email string) (*domain.User, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cache miss for %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal cached user: %w", err)
	}
	return rec.toUser(), nil
}

// Set stores a user snapshot under its email for ttl. Expiry is delegated to
// the backing store; there is no other eviction policy.
func (c *UserCache) Set(ctx context.Context, u *domain.User, ttl time.Duration) error {
	data, err := json.Marshal(toRecord(u))
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+u.Email, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot for email. Deleting a missing key is a no-op.
func (c *UserCache) Invalidate(ctx context.Context, email string) error {
	if err := c.rdb.Del(ctx, keyPrefix+email).Err(); err != nil {
		return fmt.Errorf("cache del: %w", err)
	}
	return nil
}
