package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"fmt"           // Key formatting
	"strings"       // Key building
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache key layout
const (
	PriceSnapshotKey     = "prices:snapshot"    // Last successful price snapshot
	AdminUsersPrefix     = "admin:users:"       // Admin user listings
	AdminTxPrefix        = "admin:txs:"         // Admin transaction listings
	transactionsPrefix   = "transactions:user:" // Per-user transaction history
	AdminListingCacheTTL = 60 * time.Second     // Admin listings are short-lived
	HistoryCacheTTL      = 5 * time.Minute      // Superseded on write by a version bump
)

// HistoryKey is the cache key for one version of a user's transaction history
func HistoryKey(userID string, version int64) string {
	return fmt.Sprintf("%s%s:v%d", transactionsPrefix, userID, version)
}

// HistoryVersionKey holds the current history version of a user
func HistoryVersionKey(userID string) string {
	return transactionsPrefix + userID + ":version"
}

// AdminUsersKey builds the cache key for one page of the admin user listing
func AdminUsersKey(page, pageSize int) string {
	return fmt.Sprintf("%spage=%d:size=%d", AdminUsersPrefix, page, pageSize)
}

// AdminTxKey builds the cache key for a filtered page of admin transactions
func AdminTxKey(params map[string]string, keys ...string) string {
	parts := make([]string, 0, len(keys)) // Parts of the cache key
	for _, k := range keys {
		parts = append(parts, k+"="+params[k]) // Keep the key order stable
	}
	return AdminTxPrefix + strings.Join(parts, ":")
}

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// GetVersion reads a version counter; a missing counter is version 0
func GetVersion(ctx context.Context, rdb *redis.Client, key string) (int64, error) {
	if rdb == nil {
		return 0, nil // Caching disabled
	}
	v, err := rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil // Never bumped
	}
	return v, err
}

// BumpVersion increments a version counter so entries keyed by older
// versions are no longer read
func BumpVersion(ctx context.Context, rdb *redis.Client, key string) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	return rdb.Incr(ctx, key).Err()
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil // Nothing to do
	}
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// DeletePrefix removes every key starting with prefix
func DeletePrefix(ctx context.Context, rdb *redis.Client, prefix string) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator() // Walk matching keys
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()) // Collect key
	}
	if err := iter.Err(); err != nil {
		return err // Scan failed
	}
	return DeleteCache(ctx, rdb, keys...) // Drop them in one call
}
