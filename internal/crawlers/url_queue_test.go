package crawlers

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestLocalQueue_LIFO(t *testing.T) {
	ctx := context.Background()
	q := NewLocalQueue()

	for _, u := range []string{"a", "b", "c"} {
		if err := q.Push(ctx, u); err != nil {
			t.Fatalf("Push(%s) error = %v", u, err)
		}
	}

	for _, want := range []string{"c", "b", "a"} {
		peeked, ok, err := q.Peek(ctx)
		if err != nil || !ok {
			t.Fatalf("Peek() = %q, %v, %v", peeked, ok, err)
		}
		got, ok, err := q.Pop(ctx)
		if err != nil || !ok {
			t.Fatalf("Pop() = %q, %v, %v", got, ok, err)
		}
		if got != want || peeked != want {
			t.Errorf("Peek/Pop = %s/%s, 期望 %s", peeked, got, want)
		}
	}

	empty, _ := q.IsEmpty(ctx)
	if !empty {
		t.Error("全部弹出后队列应为空")
	}
}

func TestLocalQueue_EmptySignal(t *testing.T) {
	ctx := context.Background()
	q := NewLocalQueue()

	if _, ok, err := q.Pop(ctx); ok || !errors.Is(err, models.ErrEmptyQueue) {
		t.Errorf("空队列Pop() ok=%v err=%v, 期望 ErrEmptyQueue", ok, err)
	}
	if _, ok, err := q.Peek(ctx); ok || !errors.Is(err, models.ErrEmptyQueue) {
		t.Errorf("空队列Peek() ok=%v err=%v, 期望 ErrEmptyQueue", ok, err)
	}
}

func TestLocalQueue_EmptyStringIsWork(t *testing.T) {
	ctx := context.Background()
	q := NewLocalQueue()
	_ = q.Push(ctx, "")

	got, ok, err := q.Pop(ctx)
	if err != nil || !ok || got != "" {
		t.Errorf("空字符串URL应作为正常任务返回: %q, %v, %v", got, ok, err)
	}
}

func TestRedisQueue_FIFO(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	q := NewRedisQueue(client, "test:queue")

	for _, u := range []string{"a", "b", "c"} {
		if err := q.Push(ctx, u); err != nil {
			t.Fatalf("Push(%s) error = %v", u, err)
		}
	}

	list, err := mr.List("test:queue")
	if err != nil {
		t.Fatalf("读取列表失败: %v", err)
	}
	if len(list) != 3 || list[0] != "a" || list[2] != "c" {
		t.Errorf("RPUSH应追加到尾部, 实际 %v", list)
	}

	n, err := q.Len(ctx)
	if err != nil || n != 3 {
		t.Errorf("Len() = %d, %v", n, err)
	}

	for _, want := range []string{"a", "b", "c"} {
		peeked, ok, err := q.Peek(ctx)
		if err != nil || !ok || peeked != want {
			t.Fatalf("Peek() = %q, %v, %v, 期望 %s", peeked, ok, err, want)
		}
		got, ok, err := q.Pop(ctx)
		if err != nil || !ok || got != want {
			t.Fatalf("Pop() = %q, %v, %v, 期望 %s", got, ok, err, want)
		}
	}
}

func TestRedisQueue_EmptyIsSoftStop(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	q := NewRedisQueue(client, "test:queue")

	got, ok, err := q.Pop(ctx)
	if err != nil {
		t.Fatalf("空队列Pop()不应返回错误: %v", err)
	}
	if ok || got != "" {
		t.Errorf("空队列Pop() = %q, %v, 期望无任务", got, ok)
	}

	empty, err := q.IsEmpty(ctx)
	if err != nil || !empty {
		t.Errorf("IsEmpty() = %v, %v", empty, err)
	}
}

func TestRedisQueue_SharedBetweenWorkers(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	producer := NewRedisQueue(client, "shared")
	consumer := NewRedisQueue(client, "shared")

	_ = producer.Push(ctx, "http://example.com/a")

	got, ok, err := consumer.Pop(ctx)
	if err != nil || !ok || got != "http://example.com/a" {
		t.Errorf("另一个工作进程应取到任务: %q, %v, %v", got, ok, err)
	}
}

func TestRedisQueue_Reset(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	q := NewRedisQueue(client, "stale")

	_ = q.Push(ctx, "old")
	if err := q.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if mr.Exists("stale") {
		t.Error("Reset后列表应被删除")
	}
}

func TestRedisQueue_ClosedClient(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	q := NewRedisQueue(client, "q")
	mr.Close()

	if err := q.Push(ctx, "a"); err == nil {
		t.Error("Redis不可用时Push应返回错误")
	}
	if _, _, err := q.Pop(ctx); err == nil {
		t.Error("Redis不可用时Pop应返回错误")
	}
}

func TestQueueKeyFromEnv(t *testing.T) {
	t.Setenv(QueueKeyEnv, "")
	if got := QueueKeyFromEnv(); got != DefaultQueueKey {
		t.Errorf("未设置环境变量时 = %s, 期望 %s", got, DefaultQueueKey)
	}

	t.Setenv(QueueKeyEnv, "custom:key")
	if got := QueueKeyFromEnv(); got != "custom:key" {
		t.Errorf("QueueKeyFromEnv() = %s, 期望 custom:key", got)
	}

	q := NewRedisQueue(nil, "")
	if q.Key() != "custom:key" {
		t.Errorf("空key应使用环境变量, 实际 %s", q.Key())
	}
}
