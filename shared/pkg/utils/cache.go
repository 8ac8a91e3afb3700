package utils

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func GetCachedData[K any](ctx context.Context, cache *redis.Client, key string) (*K, bool) {
	if cache == nil {
		return nil, false
	}
	data, err := cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithFields(log.Fields{"key": key, "err": err}).Warn("Error getting cache")
		}
		log.WithField("key", key).Debug("Cache miss")
		return nil, false
	}

	var obj K
	if err := json.Unmarshal(data, &obj); err != nil {
		log.WithFields(log.Fields{"key": key, "err": err}).Warn("Error unpacking cache data")
		return nil, false
	}

	return &obj, true
}

func SetCachedData(ctx context.Context, cache *redis.Client, key string, value interface{}, ttl time.Duration) {
	if cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "err": err}).Warn("Error packing cache data")
		return
	}
	if err := cache.Set(ctx, key, data, ttl).Err(); err != nil {
		log.WithFields(log.Fields{"key": key, "err": err}).Warn("Error setting cache")
	}
}

func InvalidateCache(ctx context.Context, cache *redis.Client, keys ...string) {
	if cache == nil || len(keys) == 0 {
		return
	}
	if err := cache.Del(ctx, keys...).Err(); err != nil {
		log.WithFields(log.Fields{"keys": keys, "err": err}).Warn("Error invalidating cache")
	}
}
