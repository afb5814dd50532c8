package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"trackdesk/config"
	"trackdesk/logger"
)

// DraftNamespace 是Redis中所有草稿键的前缀
const DraftNamespace = "trackdesk:drafts:"

// RedisClient 是全局Redis客户端
var RedisClient *redis.Client

// ConnectRedis 初始化Redis连接
func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("连接Redis失败: %w", err)
	}
	logger.Info("Redis连接成功", logger.String("addr", RedisClient.Options().Addr))
	return nil
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// CheckRedis 通过全局客户端读写一个测试键
func CheckRedis(ctx context.Context) error {
	if RedisClient == nil {
		return errors.New("Redis客户端未初始化")
	}

	const probeKey = "trackdesk:probe"
	const probeValue = "Redis connection successful!"
	if err := RedisClient.Set(ctx, probeKey, probeValue, time.Minute).Err(); err != nil {
		return fmt.Errorf("写入Redis测试键失败: %w", err)
	}
	val, err := RedisClient.Get(ctx, probeKey).Result()
	if err != nil {
		return fmt.Errorf("读取Redis测试键失败: %w", err)
	}
	if val != probeValue {
		return fmt.Errorf("Redis返回了意外的值: %s", val)
	}
	if err := RedisClient.Del(ctx, probeKey).Err(); err != nil {
		return fmt.Errorf("删除Redis测试键失败: %w", err)
	}
	return nil
}

// RedisKV 把草稿以字符串键存放在命名空间下，实现 draft.KV
type RedisKV struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	timeout   time.Duration
}

// NewRedisKV 包装客户端，ttl 为 0 时草稿永不过期
func NewRedisKV(client *redis.Client, ttl time.Duration) *RedisKV {
	return &RedisKV{
		client:    client,
		namespace: DraftNamespace,
		ttl:       ttl,
		timeout:   3 * time.Second,
	}
}

func (r *RedisKV) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *RedisKV) redisKey(key string) string { return r.namespace + key }

func (r *RedisKV) Get(key string) (string, bool, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	val, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("读取草稿 %s 失败: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisKV) Set(key, value string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.Set(ctx, r.redisKey(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("写入草稿 %s 失败: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Remove(key string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("删除草稿 %s 失败: %w", key, err)
	}
	return nil
}

// Keys 扫描命名空间，返回去掉前缀并排序后的草稿键
func (r *RedisKV) Keys() ([]string, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	var (
		cursor uint64
		out    []string
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.namespace+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("扫描草稿键失败: %w", err)
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, r.namespace))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(out)
	return out, nil
}
