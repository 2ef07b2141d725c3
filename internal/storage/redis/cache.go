package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"spamguard/backend/internal/classifier"
)

const keyPrefix = "spamguard:classify:"

// Cache 分类结果缓存（Redis实现）
//
// 以规范化文本的 SHA-256 作为键，相同文本的重复分类请求直接命中缓存。
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache 创建Redis分类结果缓存
func NewCache(addr, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// GetResult 查询文本的缓存分类结果，未命中返回 (nil, nil)
func (c *Cache) GetResult(ctx context.Context, text string) (*classifier.Result, error) {
	data, err := c.client.Get(ctx, cacheKey(text)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached result: %w", err)
	}

	var result classifier.Result
	if err := json.Unmarshal(data, &result); err != nil {
		// 缓存内容损坏时按未命中处理，等待覆盖
		return nil, nil
	}
	return &result, nil
}

// SetResult 写入文本的分类结果缓存
func (c *Cache) SetResult(ctx context.Context, text string, result *classifier.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(text), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}

// Health 检查Redis连接健康状态
func (c *Cache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭Redis连接
func (c *Cache) Close() error {
	return c.client.Close()
}

func cacheKey(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return keyPrefix + hex.EncodeToString(sum[:])
}
