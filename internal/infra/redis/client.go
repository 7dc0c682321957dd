package redis

import (
	"context"

	"github.com/go-redis/redis/v8"

	"legal-letter-ai/internal/config"
)

// Client wraps the go-redis connection. Construction never dials: the queue
// store owns connection monitoring so an unreachable Redis at startup does
// not crash the host process.
type Client struct {
	cli *redis.Client
}

func NewClient(cfg *config.RedisConfig) *Client {
	return &Client{cli: redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

func (c *Client) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *Client) Close() error { return c.cli.Close() }
