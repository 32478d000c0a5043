package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const transcriptKeyPrefix = "yt:transcript:"

// TranscriptCache stores fetched transcript text per video id.
type TranscriptCache interface {
	Get(ctx context.Context, videoId string) (string, bool, error)
	Set(ctx context.Context, videoId string, transcript string) error
}

type RedisTranscriptCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ TranscriptCache = &RedisTranscriptCache{}

func NewRedisTranscriptCache(rdb *redis.Client, ttl time.Duration) *RedisTranscriptCache {
	return &RedisTranscriptCache{rdb: rdb, ttl: ttl}
}

func (c *RedisTranscriptCache) Get(ctx context.Context, videoId string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, transcriptKeyPrefix+videoId).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisTranscriptCache) Set(ctx context.Context, videoId string, transcript string) error {
	return c.rdb.Set(ctx, transcriptKeyPrefix+videoId, transcript, c.ttl).Err()
}
