package cart

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/hperdana/go-commerce/internal/redisx"
)

// Store holds the ephemeral per-user cart: product id -> quantity.
// Implementations refresh the cart's expiry on every successful access.
type Store interface {
	Items(ctx context.Context, userID string) (map[string]int, error)
	SetQty(ctx context.Context, userID, productID string, qty int) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

// RedisStore keeps each cart as a hash under cart:{user_id} with a rolling TTL.
type RedisStore struct {
	Client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func cartKey(userID string) string {
	return fmt.Sprintf(redisx.KeyCart, userID)
}

func (s *RedisStore) Items(ctx context.Context, userID string) (map[string]int, error) {
	key := cartKey(userID)
	vals, err := s.Client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart %s: %w", userID, err)
	}
	out := make(map[string]int, len(vals))
	for productID, raw := range vals {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("cart %s has invalid quantity for product %s: %w", userID, productID, err)
		}
		if qty > 0 {
			out[productID] = qty
		}
	}
	if len(out) > 0 {
		_ = s.Client.Expire(ctx, key, redisx.TTLCart).Err()
	}
	return out, nil
}

func (s *RedisStore) SetQty(ctx context.Context, userID, productID string, qty int) error {
	key := cartKey(userID)
	if qty <= 0 {
		return s.Remove(ctx, userID, productID)
	}
	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, key, productID, strconv.Itoa(qty))
	pipe.Expire(ctx, key, redisx.TTLCart)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write cart %s: %w", userID, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, userID, productID string) error {
	key := cartKey(userID)
	pipe := s.Client.TxPipeline()
	pipe.HDel(ctx, key, productID)
	pipe.Expire(ctx, key, redisx.TTLCart)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove from cart %s: %w", userID, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.Client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear cart %s: %w", userID, err)
	}
	return nil
}
