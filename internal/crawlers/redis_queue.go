package crawlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
)

const (
	// DefaultQueueKey 分布式队列默认的Redis列表键名
	DefaultQueueKey = "sitemap:to_visit"

	// QueueKeyEnv 覆盖默认队列键名的环境变量
	QueueKeyEnv = "SITEMAP_QUEUE_KEY"
)

// QueueKeyFromEnv 返回环境变量中的队列键名,未设置时返回默认值
func QueueKeyFromEnv() string {
	if key := strings.TrimSpace(os.Getenv(QueueKeyEnv)); key != "" {
		return key
	}
	return DefaultQueueKey
}

// RedisQueue 基于Redis列表的分布式URL队列
// 多个工作进程共享同一个列表: 尾部追加(RPUSH),头部取出(LPOP),先进先出
//
// Pop在列表为空时返回ok=false而不是错误。对某个工作进程来说这只代表
// "当前没有任务",其他进程可能仍在往队列中添加URL。
// 两个进程可能取到同一个URL,去重发生在入队前而不是出队后。
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue 创建分布式队列,key为空时使用 QueueKeyFromEnv()
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = QueueKeyFromEnv()
	}
	return &RedisQueue{client: client, key: key}
}

// Key 返回队列使用的Redis键名
func (q *RedisQueue) Key() string {
	return q.key
}

// Push 追加到列表尾部
func (q *RedisQueue) Push(ctx context.Context, url string) error {
	if err := q.client.RPush(ctx, q.key, url).Err(); err != nil {
		return fmt.Errorf("RPUSH %s 失败: %w", q.key, err)
	}
	return nil
}

// Pop 从列表头部取出
func (q *RedisQueue) Pop(ctx context.Context) (string, bool, error) {
	url, err := q.client.LPop(ctx, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("LPOP %s 失败: %w", q.key, err)
	}
	return url, true, nil
}

// Peek 读取列表头部但不移除
func (q *RedisQueue) Peek(ctx context.Context) (string, bool, error) {
	url, err := q.client.LIndex(ctx, q.key, 0).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("LINDEX %s 失败: %w", q.key, err)
	}
	return url, true, nil
}

// IsEmpty 等价于Peek没有返回URL
func (q *RedisQueue) IsEmpty(ctx context.Context) (bool, error) {
	_, ok, err := q.Peek(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Len 返回列表长度
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("LLEN %s 失败: %w", q.key, err)
	}
	return n, nil
}

// Reset 删除整个列表
// 由主节点在爬取开始前调用,清除上一次运行遗留的任务
func (q *RedisQueue) Reset(ctx context.Context) error {
	if err := q.client.Del(ctx, q.key).Err(); err != nil {
		return fmt.Errorf("DEL %s 失败: %w", q.key, err)
	}
	return nil
}
