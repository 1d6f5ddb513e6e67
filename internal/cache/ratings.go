// Package cache holds the Redis read-through cache for book rating stats.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/bookstore/internal/models"
)

const (
	keyPrefix     = "bookstore:rating:"
	versionPrefix = "bookstore:rating:ver:"
	DefaultTTL    = 10 * time.Minute
)

type RedisRatingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRatingCache parses redisURL and pings the server before returning.
func NewRedisRatingCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisRatingCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisRatingCache{client: client, ttl: ttl}, nil
}

func (c *RedisRatingCache) Close() error {
	return c.client.Close()
}

func (c *RedisRatingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func key(bookID uuid.UUID) string {
	return keyPrefix + bookID.String()
}

func versionKey(bookID uuid.UUID) string {
	return versionPrefix + bookID.String()
}

// Version returns the book's invalidation counter, 0 if it was never invalidated.
func (c *RedisRatingCache) Version(ctx context.Context, bookID uuid.UUID) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(bookID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// GetStats reports ok=false on a miss.
func (c *RedisRatingCache) GetStats(ctx context.Context, bookID uuid.UUID) (models.RatingStats, bool, error) {
	data, err := c.client.Get(ctx, key(bookID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.RatingStats{}, false, nil
	}
	if err != nil {
		return models.RatingStats{}, false, err
	}

	var st models.RatingStats
	if err := json.Unmarshal(data, &st); err != nil {
		return models.RatingStats{}, false, fmt.Errorf("decode rating stats: %w", err)
	}
	return st, true, nil
}

// SetStats stores st only while the version counter still equals version.
// A fill that lost the race against Invalidate is dropped.
func (c *RedisRatingCache) SetStats(ctx context.Context, bookID uuid.UUID, st models.RatingStats, version int64) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	vk := versionKey(bookID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key(bookID), data, c.ttl)
			return nil
		})
		return err
	}, vk)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate bumps the version and drops the cached stats in one MULTI.
func (c *RedisRatingCache) Invalidate(ctx context.Context, bookID uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, versionKey(bookID))
		p.Del(ctx, key(bookID))
		return nil
	})
	return err
}
