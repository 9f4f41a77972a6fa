package repository

import (
	"audit-service/internal/models"
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	accountCacheTTL      = 15 * time.Minute
	failedLoginWindow    = 24 * time.Hour
	cacheReadTimeout     = 100 * time.Millisecond
	cacheWriteTimeout    = 200 * time.Millisecond
	accountKeyPrefix     = "account:username:"
	failedLoginKeyPrefix = "login_attempts:"
)

// IAccountCache is a best-effort cache in front of the credential store. Failures never surface to callers.
type IAccountCache interface {
	GetAccount(ctx context.Context, username string) *models.Account
	SetAccount(ctx context.Context, account *models.Account)
	IncrementFailedLogins(ctx context.Context, accountID string) int
	ResetFailedLogins(ctx context.Context, accountID string)
}

type AccountCache struct {
	client *redis.Client
	logger *zap.Logger

	mu             sync.Mutex
	failedAttempts map[string]int
}

// NewAccountCache accepts a nil client, in which case lookups miss and attempt counting stays in memory.
func NewAccountCache(client *redis.Client, logger *zap.Logger) *AccountCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountCache{
		client:         client,
		logger:         logger,
		failedAttempts: make(map[string]int),
	}
}

func (c *AccountCache) GetAccount(ctx context.Context, username string) *models.Account {
	if c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, cacheReadTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, accountKeyPrefix+username).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("account cache read failed", zap.Error(err))
		}
		return nil
	}

	var account models.Account
	if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&account); err != nil {
		c.logger.Warn("error decoding cached account", zap.Error(err))
		return nil
	}
	return &account
}

func (c *AccountCache) SetAccount(ctx context.Context, account *models.Account) {
	if c.client == nil || account == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheWriteTimeout)
	defer cancel()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(account); err != nil {
		c.logger.Warn("error encoding account for cache", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, accountKeyPrefix+account.Username, buf.Bytes(), accountCacheTTL).Err(); err != nil {
		c.logger.Debug("account cache write failed", zap.Error(err))
	}
}

// EvictAccounts drops every cached account so the next login reads the credential store.
func (c *AccountCache) EvictAccounts(ctx context.Context) (int, error) {
	if c.client == nil {
		return 0, nil
	}

	var keys []string
	iter := c.client.Scan(ctx, 0, accountKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan cached accounts: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	removed, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to evict cached accounts: %w", err)
	}
	return int(removed), nil
}

func (c *AccountCache) IncrementFailedLogins(ctx context.Context, accountID string) int {
	if c.client == nil {
		return c.incrementInMemory(accountID)
	}
	ctx, cancel := context.WithTimeout(ctx, cacheWriteTimeout)
	defer cancel()

	key := failedLoginKeyPrefix + accountID
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return c.incrementInMemory(accountID)
	}

	if count == 1 {
		c.client.Expire(ctx, key, failedLoginWindow)
	}
	return int(count)
}

func (c *AccountCache) ResetFailedLogins(ctx context.Context, accountID string) {
	if c.client != nil {
		ctx, cancel := context.WithTimeout(ctx, cacheReadTimeout)
		defer cancel()
		c.client.Del(ctx, fmt.Sprintf("%s%s", failedLoginKeyPrefix, accountID))
	}

	c.mu.Lock()
	delete(c.failedAttempts, accountID)
	c.mu.Unlock()
}

func (c *AccountCache) incrementInMemory(accountID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedAttempts[accountID]++
	return c.failedAttempts[accountID]
}
