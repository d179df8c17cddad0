package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/beanhouse/commerce/internal/core/domain"
)

const cartKeyPrefix = "cart:"

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func cartKey(customerEmail string) string {
	return cartKeyPrefix + customerEmail
}

func (r *RedisAdapter) PushItem(ctx context.Context, item domain.CartItem) error {
	if err := r.RemoveItem(ctx, item.CustomerEmail, item.ProductID); err != nil {
		return err
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal cart item: %w", err)
	}
	return r.client.LPush(ctx, cartKey(item.CustomerEmail), payload).Err()
}

func (r *RedisAdapter) ListItems(ctx context.Context, customerEmail string) ([]domain.CartItem, error) {
	values, err := r.client.LRange(ctx, cartKey(customerEmail), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("range cart: %w", err)
	}

	items := make([]domain.CartItem, 0, len(values))
	for _, v := range values {
		var item domain.CartItem
		if err := json.Unmarshal([]byte(v), &item); err != nil {
			return nil, fmt.Errorf("unmarshal cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *RedisAdapter) RemoveItem(ctx context.Context, customerEmail, productID string) error {
	key := cartKey(customerEmail)

	values, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("range cart: %w", err)
	}

	for _, v := range values {
		var item domain.CartItem
		if err := json.Unmarshal([]byte(v), &item); err != nil {
			continue
		}
		if item.ProductID == productID {
			if err := r.client.LRem(ctx, key, 0, v).Err(); err != nil {
				return fmt.Errorf("remove cart item: %w", err)
			}
		}
	}
	return nil
}

func (r *RedisAdapter) Clear(ctx context.Context, customerEmail string) error {
	return r.client.Del(ctx, cartKey(customerEmail)).Err()
}
