// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/treatment-reviews/pkg/types"
)

const redisKeyPrefix = "treatment-reviews:detector:"

// Cache stores classification results keyed by CacheKey.
type Cache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, score float64) error
}

// CacheKey identifies a classification of text by model.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is a fixed-size in-process LRU cache.
type MemoryCache struct {
	lru *lru.Cache[string, float64]
}

// NewMemoryCache returns a MemoryCache holding at most size entries.
func NewMemoryCache(size int) (*MemoryCache, error) {
	c, err := lru.New[string, float64](size)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}
	return &MemoryCache{lru: c}, nil
}

func (m *MemoryCache) Get(_ context.Context, key string) (float64, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, score float64) error {
	m.lru.Add(key, score)
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryCache) Len() int { return m.lru.Len() }

// RedisCache shares results across processes through Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to the Redis server named in cfg and pings it.
func NewRedisCache(ctx context.Context, cfg types.DetectorConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	return &RedisCache{client: client, ttl: cfg.CacheTTL}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (float64, bool, error) {
	v, err := r.client.Get(ctx, redisKeyPrefix+key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading detector cache: %w", err)
	}
	return v, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, score float64) error {
	val := strconv.FormatFloat(score, 'f', -1, 64)
	if err := r.client.Set(ctx, redisKeyPrefix+key, val, r.ttl).Err(); err != nil {
		return fmt.Errorf("writing detector cache: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
