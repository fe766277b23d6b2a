package pricing

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"wallet_portfolio/internal/utils"
)

// RedisStore keeps the snapshot under a single JSON key
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context) (Snapshot, bool, error) {
	var s Snapshot
	found, err := utils.GetCache(ctx, r.rdb, utils.PriceSnapshotKey, &s)
	if err != nil || !found {
		return Snapshot{}, false, err
	}
	return s, true, nil
}

func (r *RedisStore) Save(ctx context.Context, s Snapshot) error {
	return utils.SetCache(ctx, r.rdb, utils.PriceSnapshotKey, s, r.ttl)
}
