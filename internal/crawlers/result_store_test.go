package crawlers

import (
	"context"
	"errors"
	"testing"

	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
)

func TestMemoryStore_RegisterOrder(t *testing.T) {
	s := NewMemoryStore()
	urls := []string{
		"http://example.com/c",
		"http://example.com/a",
		"http://example.com/b",
	}
	for _, u := range urls {
		s.Register(u, models.PageRecord{})
	}

	items := s.Items()
	if len(items) != len(urls) {
		t.Fatalf("Items() 数量 = %d, 期望 %d", len(items), len(urls))
	}
	for i, item := range items {
		if item.URL != urls[i] {
			t.Errorf("第%d项 = %s, 期望 %s", i, item.URL, urls[i])
		}
		if item.Record.Location() != urls[i] {
			t.Errorf("默认loc = %s, 期望 %s", item.Record.Location(), urls[i])
		}
	}
}

func TestMemoryStore_LocationOverride(t *testing.T) {
	s := NewMemoryStore()
	s.Register("http://example.com/", models.NewPageRecord(
		models.Property{Name: models.PropLocation, Value: "X"},
	))

	rec, ok := s.Get("http://example.com/")
	if !ok || rec.Location() != "X" {
		t.Errorf("loc = %s, 期望显式指定的 X", rec.Location())
	}
}

func TestMemoryStore_LocationAppendedLast(t *testing.T) {
	s := NewMemoryStore()
	s.Register("http://example.com/", models.NewPageRecord(
		models.Property{Name: "priority", Value: "0.8"},
	))

	props := s.Items()[0].Record.Properties()
	if len(props) != 2 || props[0].Name != "priority" || props[1].Name != models.PropLocation {
		t.Errorf("属性顺序错误: %v", props)
	}
}

func TestMemoryStore_Unregister(t *testing.T) {
	s := NewMemoryStore()
	s.Register("http://example.com/a", models.PageRecord{})
	s.Register("http://example.com/b", models.PageRecord{})

	if err := s.Unregister("http://example.com/a"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	items := s.Items()
	if len(items) != 1 || items[0].URL != "http://example.com/b" {
		t.Errorf("移除后 Items() = %v", items)
	}

	err := s.Unregister("http://example.com/never")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("移除未登记的URL应返回 ErrNotFound, 实际 %v", err)
	}
}

func TestMemoryStore_ReRegisterOverwrites(t *testing.T) {
	s := NewMemoryStore()
	s.Register("http://example.com/a", models.NewPageRecord(
		models.Property{Name: models.PropLastModified, Value: "old"},
	))
	s.Register("http://example.com/b", models.PageRecord{})
	s.Register("http://example.com/a", models.NewPageRecord(
		models.Property{Name: models.PropLastModified, Value: "new"},
	))

	if s.Len() != 2 {
		t.Fatalf("重复登记不应产生重复项, Len() = %d", s.Len())
	}
	first := s.Items()[0]
	if first.URL != "http://example.com/a" {
		t.Errorf("覆盖后应保持原位置, 第一项 = %s", first.URL)
	}
	if v, _ := first.Record.Get(models.PropLastModified); v != "new" {
		t.Errorf("lastmod = %s, 期望 new", v)
	}
}

func TestMemoryStore_ItemsAreCopies(t *testing.T) {
	s := NewMemoryStore()
	s.Register("http://example.com/", models.PageRecord{})

	items := s.Items()
	items[0].Record.Set(models.PropLocation, "mutated")

	if s.Items()[0].Record.Location() != "http://example.com/" {
		t.Error("修改Items()返回值不应影响存储")
	}
}

func TestLocalSet(t *testing.T) {
	ctx := context.Background()
	s := NewLocalSet()

	ok, _ := s.Contains(ctx, "http://example.com/")
	if ok {
		t.Error("新集合不应包含任何URL")
	}

	_ = s.Add(ctx, "http://example.com/")
	_ = s.Add(ctx, "http://example.com/")
	if ok, _ := s.Contains(ctx, "http://example.com/"); !ok {
		t.Error("Add后应包含URL")
	}
	if err := s.Remove(ctx, "http://example.com/"); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	if err := s.Remove(ctx, "http://example.com/"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("重复Remove应返回 ErrNotFound, 实际 %v", err)
	}
}

func TestRedisSet(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s := NewRedisSet(client, "")

	if s.Key() != DefaultVisitedKey {
		t.Errorf("Key() = %s, 期望 %s", s.Key(), DefaultVisitedKey)
	}

	if err := s.Add(ctx, "http://example.com/a"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	ok, err := s.Contains(ctx, "http://example.com/a")
	if err != nil || !ok {
		t.Errorf("Contains() = %v, %v", ok, err)
	}

	members, _ := mr.Members(DefaultVisitedKey)
	if len(members) != 1 {
		t.Errorf("Redis集合成员 = %v", members)
	}

	other := NewRedisSet(client, DefaultVisitedKey)
	if ok, _ := other.Contains(ctx, "http://example.com/a"); !ok {
		t.Error("同一键的集合应在工作进程间共享")
	}

	if err := s.Remove(ctx, "http://example.com/missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("移除不存在的成员应返回 ErrNotFound, 实际 %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if ok, _ := s.Contains(ctx, "http://example.com/a"); ok {
		t.Error("Reset后集合应为空")
	}
}
