package redis

import (
	"audit-service/internal/config"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// Client owns the connection pool behind the account cache.
type Client struct {
	client *redis.Client
	logger *zap.Logger
}

// Connect opens a pool and fails fast if the server does not answer a PING.
func Connect(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	c := &Client{client: rdb, logger: logger}
	if err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	logger.Info("connected to Redis", zap.String("addr", rdb.Options().Addr), zap.Int("db", cfg.DB))
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach Redis at %s: %w", c.client.Options().Addr, err)
	}
	return nil
}

func (c *Client) GetClient() *redis.Client {
	return c.client
}

func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Warn("failed to close Redis pool", zap.Error(err))
		return err
	}
	return nil
}
