package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is nil when REDIS_ADDR is unset; callers must treat it as optional.
var Cache *redis.Client

func ConnectCache() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR not set, catalog cache disabled")
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis ping failed, catalog cache disabled: %v", err)
		return
	}

	Cache = rdb
	log.Println("catalog cache connected")
}

func CacheGet(ctx context.Context, key string) ([]byte, bool) {
	if Cache == nil {
		return nil, false
	}
	val, err := Cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if Cache == nil {
		return
	}
	if err := Cache.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("cache set failed for %s: %v", key, err)
	}
}

func CacheDelete(ctx context.Context, keys ...string) {
	if Cache == nil || len(keys) == 0 {
		return
	}
	if err := Cache.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache delete failed: %v", err)
	}
}
