package crawlers

import (
	"context"

	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
)

// Queue 待访问URL队列(Frontier)
// 本地实现与分布式实现遵循同一契约,爬取器只依赖此接口
type Queue interface {
	// Push 添加URL到待访问队列
	Push(ctx context.Context, url string) error

	// Pop 取出下一个待访问URL
	// ok=false 表示当前没有可用任务
	Pop(ctx context.Context) (url string, ok bool, err error)

	// Peek 查看下一个待访问URL但不移除
	Peek(ctx context.Context) (url string, ok bool, err error)

	// IsEmpty 队列是否为空
	IsEmpty(ctx context.Context) (bool, error)
}

// LocalQueue 进程内URL栈
// 职责: 单线程爬取时保存待访问URL,后进先出(深度优先)
// 不加锁,只能在单个goroutine中使用
type LocalQueue struct {
	items []string
}

// NewLocalQueue 创建本地队列
func NewLocalQueue() *LocalQueue {
	return &LocalQueue{}
}

// Push 压入栈顶
func (q *LocalQueue) Push(_ context.Context, url string) error {
	q.items = append(q.items, url)
	return nil
}

// Pop 弹出栈顶
// 队列为空时返回 models.ErrEmptyQueue
func (q *LocalQueue) Pop(_ context.Context) (string, bool, error) {
	if len(q.items) == 0 {
		return "", false, models.ErrEmptyQueue
	}
	last := len(q.items) - 1
	url := q.items[last]
	q.items[last] = ""
	q.items = q.items[:last]
	return url, true, nil
}

// Peek 查看栈顶,即下一次Pop的结果
func (q *LocalQueue) Peek(_ context.Context) (string, bool, error) {
	if len(q.items) == 0 {
		return "", false, models.ErrEmptyQueue
	}
	return q.items[len(q.items)-1], true, nil
}

// IsEmpty 队列是否为空
func (q *LocalQueue) IsEmpty(_ context.Context) (bool, error) {
	return len(q.items) == 0, nil
}
