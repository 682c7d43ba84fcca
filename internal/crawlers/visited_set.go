package crawlers

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
)

// DefaultVisitedKey 共享已访问集合默认的Redis键名
const DefaultVisitedKey = "sitemap:visited"

// VisitedSet 已入队URL集合
// 只在入队时作为过滤器使用: URL入队的同时加入集合,之后不会再次入队
type VisitedSet interface {
	Contains(ctx context.Context, url string) (bool, error)
	Add(ctx context.Context, url string) error

	// Remove 移除URL,不存在时返回 models.ErrNotFound
	Remove(ctx context.Context, url string) error
}

// LocalSet 进程内已访问集合
type LocalSet struct {
	urls map[string]struct{}
}

// NewLocalSet 创建本地集合
func NewLocalSet() *LocalSet {
	return &LocalSet{urls: make(map[string]struct{})}
}

func (s *LocalSet) Contains(_ context.Context, url string) (bool, error) {
	_, ok := s.urls[url]
	return ok, nil
}

func (s *LocalSet) Add(_ context.Context, url string) error {
	s.urls[url] = struct{}{}
	return nil
}

func (s *LocalSet) Remove(_ context.Context, url string) error {
	if _, ok := s.urls[url]; !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, url)
	}
	delete(s.urls, url)
	return nil
}

// RedisSet 基于Redis集合的共享已访问集合
// 多个工作进程使用同一个键时,一个URL在整个进程池中只会入队一次
type RedisSet struct {
	client *redis.Client
	key    string
}

// NewRedisSet 创建共享集合,key为空时使用 DefaultVisitedKey
func NewRedisSet(client *redis.Client, key string) *RedisSet {
	if key == "" {
		key = DefaultVisitedKey
	}
	return &RedisSet{client: client, key: key}
}

// Key 返回集合使用的Redis键名
func (s *RedisSet) Key() string {
	return s.key
}

func (s *RedisSet) Contains(ctx context.Context, url string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, url).Result()
	if err != nil {
		return false, fmt.Errorf("SISMEMBER %s 失败: %w", s.key, err)
	}
	return ok, nil
}

func (s *RedisSet) Add(ctx context.Context, url string) error {
	if err := s.client.SAdd(ctx, s.key, url).Err(); err != nil {
		return fmt.Errorf("SADD %s 失败: %w", s.key, err)
	}
	return nil
}

func (s *RedisSet) Remove(ctx context.Context, url string) error {
	n, err := s.client.SRem(ctx, s.key, url).Result()
	if err != nil {
		return fmt.Errorf("SREM %s 失败: %w", s.key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, url)
	}
	return nil
}

// Reset 删除整个集合
func (s *RedisSet) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("DEL %s 失败: %w", s.key, err)
	}
	return nil
}
