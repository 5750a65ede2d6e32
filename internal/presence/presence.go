package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const activeUsersKey = "room:active_users"

// Client stores the room's active-user set in Redis.
type Client struct {
	client *redis.Client
	ctx    context.Context
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	ctx := context.Background()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client, ctx: ctx}, nil
}

// Add puts a user in the active set.
func (c *Client) Add(username string) error {
	return c.client.SAdd(c.ctx, activeUsersKey, username).Err()
}

// Remove takes a user out of the active set.
func (c *Client) Remove(username string) error {
	return c.client.SRem(c.ctx, activeUsersKey, username).Err()
}

// List returns every active user. Set order is unspecified; clients treat the
// snapshot as a set.
func (c *Client) List() ([]string, error) {
	return c.client.SMembers(c.ctx, activeUsersKey).Result()
}

// Clear empties the active set. Used on server startup so a crashed instance
// does not leave ghosts behind.
func (c *Client) Clear() error {
	return c.client.Del(c.ctx, activeUsersKey).Err()
}

func (c *Client) Close() error {
	return c.client.Close()
}
