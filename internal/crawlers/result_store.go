package crawlers

import (
	"fmt"

	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
)

// ResultStore 爬取结果存储
// 以URL为键保存页面记录,Items按首次登记的顺序返回
type ResultStore interface {
	// Register 登记页面,已存在时原位覆盖记录
	// 记录中没有loc属性时自动追加 loc=url
	Register(url string, record models.PageRecord)

	// Unregister 移除页面,不存在时返回 models.ErrNotFound
	Unregister(url string) error

	Items() []models.Entry
	Len() int
}

// MemoryStore 内存中的有序结果存储
type MemoryStore struct {
	order   []string
	records map[string]models.PageRecord
}

// NewMemoryStore 创建结果存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.PageRecord)}
}

// Register 登记页面
func (s *MemoryStore) Register(url string, record models.PageRecord) {
	record = record.Clone()
	if _, ok := record.Get(models.PropLocation); !ok {
		record.Set(models.PropLocation, url)
	}

	if _, exists := s.records[url]; !exists {
		s.order = append(s.order, url)
	}
	s.records[url] = record
}

// Unregister 移除页面
func (s *MemoryStore) Unregister(url string) error {
	if _, ok := s.records[url]; !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, url)
	}
	delete(s.records, url)

	for i, u := range s.order {
		if u == url {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Items 按登记顺序返回所有页面
func (s *MemoryStore) Items() []models.Entry {
	items := make([]models.Entry, 0, len(s.order))
	for _, url := range s.order {
		items = append(items, models.Entry{URL: url, Record: s.records[url].Clone()})
	}
	return items
}

// Len 页面数量
func (s *MemoryStore) Len() int {
	return len(s.order)
}

// Get 读取单个页面记录
func (s *MemoryStore) Get(url string) (models.PageRecord, bool) {
	r, ok := s.records[url]
	if !ok {
		return models.PageRecord{}, false
	}
	return r.Clone(), true
}
