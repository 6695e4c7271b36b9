package ingredient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"bistro-checkout/internal/model"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "checkout:ingredient_price:"

type redisCmdable interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisStore shares reference prices between sessions through Redis.
type RedisStore struct {
	client redisCmdable
	ttl    time.Duration
}

// NewRedisStore creates a store whose entries expire after ttl.
func NewRedisStore(client redisCmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient connects to addr and verifies connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// GetPrices returns the prices found for ids; missing ids are omitted.
func (s *RedisStore) GetPrices(ctx context.Context, ids []int64) (map[int64]model.IngredientPrice, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = priceKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ingredient prices: %w", err)
	}

	prices := make(map[int64]model.IngredientPrice, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p model.IngredientPrice
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		prices[ids[i]] = p
	}
	return prices, nil
}

// PutPrices stores prices with the configured TTL.
func (s *RedisStore) PutPrices(ctx context.Context, prices []model.IngredientPrice) error {
	for _, p := range prices {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode ingredient price %d: %w", p.IngredientID, err)
		}
		if err := s.client.Set(ctx, priceKey(p.IngredientID), payload, s.ttl).Err(); err != nil {
			return fmt.Errorf("failed to store ingredient price %d: %w", p.IngredientID, err)
		}
	}
	return nil
}

func priceKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}
