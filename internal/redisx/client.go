package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Deduper tracks processed event ids so a redelivered message is a no-op.
type Deduper struct {
	Client *redis.Client
	// Service namespaces the dedup keys; independent consumers of the
	// same topic keep separate progress.
	Service string
}

func (d *Deduper) Seen(ctx context.Context, eventID string) (bool, error) {
	return Exists(ctx, d.Client, fmt.Sprintf(KeyDedup, d.Service, eventID))
}

func (d *Deduper) Mark(ctx context.Context, eventID string) error {
	return d.Client.Set(ctx, fmt.Sprintf(KeyDedup, d.Service, eventID), "1", TTLDedup).Err()
}
