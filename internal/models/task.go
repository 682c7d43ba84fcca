package models

import (
	"fmt"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusRunning   TaskStatus = "running"   // 执行中
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
)

// CrawlStats 爬取统计
type CrawlStats struct {
	VisitedURLs    int     `json:"visited_urls"`    // 已抓取URL数
	RegisteredURLs int     `json:"registered_urls"` // 结果中的URL数
	BrokenLinks    int     `json:"broken_links"`    // 不可爬取的页面数
	ExternalURLs   int     `json:"external_urls"`   // 重定向到范围外的页面数
	DiscoveredURLs int     `json:"discovered_urls"` // 页面中解析出的链接总数
	QueuedURLs     int     `json:"queued_urls"`     // 加入队列的URL数
	Duration       float64 `json:"duration"`        // 总耗时(秒)
}

// CrawlConfig 爬取配置
// 传入爬取器后在整个爬取过程中保持不变
type CrawlConfig struct {
	// BaseURL 爬取范围前缀,为空时取种子URL所在目录
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// KeepAlive 复用HTTP连接
	KeepAlive bool `json:"keep_alive" mapstructure:"keep_alive"`

	// ExcludeBrokenLinks 从sitemap中剔除不可爬取的页面
	ExcludeBrokenLinks bool `json:"exclude_broken_links" mapstructure:"exclude_broken_links"`

	// DiffByGetParam 仅查询参数不同的URL视为不同页面
	//   - false: 入队前去掉查询参数 (默认)
	//   - true: 保留查询参数
	DiffByGetParam bool `json:"diff_by_get_param" mapstructure:"diff_by_get_param"`

	// OmitLastModified 不记录lastmod属性,零值时每个页面都带lastmod
	OmitLastModified bool `json:"omit_lastmod" mapstructure:"omit_lastmod"`

	// IsMaster 分布式模式下由主节点清理共享队列中的残留任务
	IsMaster bool `json:"is_master" mapstructure:"is_master"`

	// UserAgent 请求User-Agent
	UserAgent string `json:"user_agent" mapstructure:"user_agent"`

	// Timeout 单次请求超时(秒) (默认:30)
	Timeout int `json:"timeout" mapstructure:"timeout"`
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.BaseURL != "" {
		if err := ValidateURL(c.BaseURL); err != nil {
			return fmt.Errorf("无效的base_url: %w", err)
		}
	}
	if c.Timeout < 0 || c.Timeout > 300 {
		return fmt.Errorf("请求超时必须在0-300秒之间")
	}
	return nil
}

// RequestTimeout 以time.Duration返回请求超时,0表示不限制
func (c *CrawlConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
