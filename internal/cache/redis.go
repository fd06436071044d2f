package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	authHashKey     = "accounts:auth"
	presenceHashKey = "accounts:presence"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps the Redis connection used for the auth cache and the
// shared activity/presence registry. Backing presence with Redis rather
// than a process-local map keeps multiple API instances in agreement.
type Client struct {
	client *redis.Client
}

func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: rdb}, nil
}

// GetAccountIDByAuth looks up an account by its email/password-hash pair
// in the auth cache.
func (c *Client) GetAccountIDByAuth(ctx context.Context, email, passwordHash string) (int64, error) {
	cacheKey := authCacheKey(email, passwordHash)

	idStr, err := c.client.HGet(ctx, authHashKey, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("account not found in cache")
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	accountID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account ID in cache: %w", err)
	}

	return accountID, nil
}

// CacheAuth fills the auth cache after a successful database login.
func (c *Client) CacheAuth(ctx context.Context, email, passwordHash string, accountID int64) error {
	return c.client.HSet(ctx, authHashKey, authCacheKey(email, passwordHash),
		strconv.FormatInt(accountID, 10)).Err()
}

// SetActivity publishes the account's activity status to the shared
// presence registry.
func (c *Client) SetActivity(ctx context.Context, accountID int64, status string) error {
	return c.client.HSet(ctx, presenceHashKey,
		strconv.FormatInt(accountID, 10), status).Err()
}

func (c *Client) Close() error {
	return c.client.Close()
}

func authCacheKey(email, passwordHash string) string {
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + passwordHash))
}
