package core

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/RecoveryAshes/sitemapcrawl/internal/crawlers"
	"github.com/RecoveryAshes/sitemapcrawl/internal/utils"
)

// Backends 爬取器使用的队列和已访问集合
type Backends struct {
	Queue   crawlers.Queue
	Visited crawlers.VisitedSet

	client *redis.Client
}

// OpenBackends 按配置创建队列和已访问集合
// 使用Redis时先PING确认连接;isMaster为true时清空共享队列和共享集合中上一次运行的残留
func OpenBackends(ctx context.Context, cfg BackendConfig, isMaster bool) (*Backends, error) {
	b := &Backends{}

	if cfg.Queue == BackendRedis || cfg.Visited == BackendRedis {
		b.client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := b.client.Ping(ctx).Err(); err != nil {
			_ = b.client.Close()
			return nil, fmt.Errorf("连接Redis失败 [%s]: %w", cfg.RedisAddr, err)
		}
	}

	switch cfg.Queue {
	case BackendRedis:
		q := crawlers.NewRedisQueue(b.client, cfg.QueueKey)
		if isMaster {
			if err := q.Reset(ctx); err != nil {
				_ = b.Close()
				return nil, err
			}
		}
		pending, err := q.Len(ctx)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		utils.Infof("📋 共享队列: %s (待处理 %d)", q.Key(), pending)
		b.Queue = q
	case BackendLocal, "":
		b.Queue = crawlers.NewLocalQueue()
	default:
		_ = b.Close()
		return nil, fmt.Errorf("不支持的队列后端: %s", cfg.Queue)
	}

	switch cfg.Visited {
	case BackendRedis:
		s := crawlers.NewRedisSet(b.client, cfg.VisitedKey)
		if isMaster {
			if err := s.Reset(ctx); err != nil {
				_ = b.Close()
				return nil, err
			}
		}
		utils.Infof("📋 共享已访问集合: %s", s.Key())
		b.Visited = s
	case BackendLocal, "":
		b.Visited = crawlers.NewLocalSet()
	default:
		_ = b.Close()
		return nil, fmt.Errorf("不支持的已访问集合后端: %s", cfg.Visited)
	}

	return b, nil
}

// Options 转换为爬取器选项
func (b *Backends) Options() []Option {
	return []Option{WithQueue(b.Queue), WithVisitedSet(b.Visited)}
}

// Close 关闭Redis连接
func (b *Backends) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
