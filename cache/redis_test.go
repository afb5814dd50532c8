package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"

	"trackdesk/core/draft"
)

var _ draft.KV = (*RedisKV)(nil)

func TestRedisKV_Namespacing(t *testing.T) {
	kv := NewRedisKV(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), time.Hour)
	defer kv.client.Close()

	assert.Equal(t, "trackdesk:drafts:submission_page__new", kv.redisKey(draft.NewSessionKey))
	assert.Equal(t, time.Hour, kv.ttl)
}

func TestCheckRedis_Uninitialised(t *testing.T) {
	saved := RedisClient
	RedisClient = nil
	defer func() { RedisClient = saved }()

	assert.Error(t, CheckRedis(context.Background()))
	assert.NoError(t, CloseRedis())
}
