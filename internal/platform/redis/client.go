package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"onboarding/internal/platform/config"
)

// ClientName tags connections so rate-limit traffic is identifiable in CLIENT LIST.
const ClientName = "onboarding-ratelimit"

const defaultHealthTimeout = time.Second

// Client is the shared go-redis client backing the rate-limit bucket store.
type Client struct {
	*redis.Client
	healthTimeout time.Duration
}

// Options turns cfg into go-redis options. Zero pool and timeout settings keep
// the go-redis defaults; MinIdleConns never exceeds PoolSize.
func Options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if opts.ClientName == "" {
		opts.ClientName = ClientName
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
		if opts.PoolSize > 0 && opts.MinIdleConns > opts.PoolSize {
			opts.MinIdleConns = opts.PoolSize
		}
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// New connects to Redis and pings it once. It returns nil, nil when no URL is
// configured so callers fall back to in-process buckets.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	c := &Client{Client: client, healthTimeout: healthTimeout(cfg)}
	if err := c.Health(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return c, nil
}

// Health pings Redis within the configured read timeout.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()
	return c.Ping(ctx).Err()
}

func healthTimeout(cfg config.RedisConfig) time.Duration {
	if cfg.ReadTimeout > 0 {
		return cfg.ReadTimeout
	}
	return defaultHealthTimeout
}
