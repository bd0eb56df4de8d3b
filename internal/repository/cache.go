package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

const (
	orderKeyPrefix  = "order:"
	defaultCacheTTL = 5 * time.Minute
)

// RedisOrderCache implements OrderCache using Redis.
type RedisOrderCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.LoggerV2
}

// NewRedisOrderCache creates a new Redis-based order cache.
func NewRedisOrderCache(cfg config.RedisConfig) *RedisOrderCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisOrderCacheFromClient(client, cfg.TTL)
}

func NewRedisOrderCacheFromClient(client *redis.Client, ttl time.Duration) *RedisOrderCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &RedisOrderCache{
		client: client,
		ttl:    ttl,
		logger: logging.NewLoggerV2("order-cache"),
	}
}

// Get returns nil, nil on a miss.
func (c *RedisOrderCache) Get(ctx context.Context, id int64) (*models.Order, error) {
	data, err := c.client.Get(ctx, orderKey(id)).Bytes()
	if err == redis.Nil {
		c.logger.Debug("Cache miss", logging.Fields{"order_id": id})
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Cache get error", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}

	c.logger.Debug("Cache hit", logging.Fields{"order_id": id})
	return &order, nil
}

func (c *RedisOrderCache) Set(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, orderKey(order.ID), data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return err
	}

	c.logger.Debug("Order cached", logging.Fields{
		"order_id": order.ID,
		"ttl":      c.ttl.String(),
	})
	return nil
}

func (c *RedisOrderCache) Delete(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, orderKey(id)).Err(); err != nil {
		c.logger.Error("Cache delete error", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return err
	}
	return nil
}

func (c *RedisOrderCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisOrderCache) Close() error {
	return c.client.Close()
}

func orderKey(id int64) string {
	return orderKeyPrefix + strconv.FormatInt(id, 10)
}
