package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// SummaryCache keeps the dashboard summary in redis for a short TTL so the
// dashboard poll does not hammer the database. A nil client disables caching
// and every lookup misses.
type SummaryCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func New(ctx context.Context, addr string, ttl time.Duration) (*SummaryCache, error) {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if addr == "" {
		return &SummaryCache{TTL: ttl}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &SummaryCache{Client: client, TTL: ttl}, nil
}

func (c *SummaryCache) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

func (c *SummaryCache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.Client == nil {
		return false
	}
	b, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dest) == nil
}

func (c *SummaryCache) Set(ctx context.Context, key string, value any) {
	if c == nil || c.Client == nil {
		return
	}
	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	// best effort; a failed write just means the next read hits the DB
	_ = c.Client.Set(ctx, key, b, c.TTL).Err()
}
