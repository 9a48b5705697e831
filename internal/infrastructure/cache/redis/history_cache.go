package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Abishek213/Major-AI/internal/domain/transaction"
)

// historyRetention bounds how much per-user history is kept for
// behavioral feature enrichment.
const historyRetention = 30 * 24 * time.Hour

// HistoryCache keeps recent per-user transactions in a sorted set so
// callers that do not supply history still get velocity and deviation
// features. Missing or stale cache data is never an error for scoring;
// it just means fewer behavioral signals.
type HistoryCache struct {
	client *Client
}

// NewHistoryCache creates a history cache over a Redis client.
func NewHistoryCache(client *Client) *HistoryCache {
	return &HistoryCache{client: client}
}

func historyKey(userID string) string {
	return fmt.Sprintf("history:user:%s", userID)
}

// Record stores one scored transaction in the user's history set,
// scored by its unix timestamp for range queries.
func (c *HistoryCache) Record(ctx context.Context, tx *transaction.Transaction, occurredAt time.Time) error {
	key := historyKey(tx.UserID)

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	member := redis.Z{
		Score:  float64(occurredAt.Unix()),
		Member: string(data),
	}
	if err := c.client.ZAdd(ctx, key, member); err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}
	if err := c.client.Expire(ctx, key, historyRetention); err != nil {
		return fmt.Errorf("set history expiration: %w", err)
	}

	// Best-effort cleanup of entries past retention.
	cutoff := occurredAt.Add(-historyRetention).Unix()
	_ = c.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))

	return nil
}

// Recent returns the user's transactions within the window, oldest
// first. Unparseable members are skipped.
func (c *HistoryCache) Recent(ctx context.Context, userID string, window time.Duration) (transaction.History, error) {
	key := historyKey(userID)
	now := time.Now()

	members, err := c.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(now.Add(-window).Unix(), 10),
		Max: strconv.FormatInt(now.Unix(), 10),
	})
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	history := make(transaction.History, 0, len(members))
	for _, member := range members {
		var tx transaction.Transaction
		if err := json.Unmarshal([]byte(member), &tx); err != nil {
			continue
		}
		history = append(history, tx)
	}
	return history, nil
}

// Count returns how many transactions the user has in the window.
func (c *HistoryCache) Count(ctx context.Context, userID string, window time.Duration) (int64, error) {
	key := historyKey(userID)
	now := time.Now()

	count, err := c.client.ZCount(ctx, key,
		strconv.FormatInt(now.Add(-window).Unix(), 10),
		strconv.FormatInt(now.Unix(), 10),
	)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return count, nil
}
