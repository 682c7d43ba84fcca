package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/sitemapcrawl/internal/crawlers"
	"github.com/RecoveryAshes/sitemapcrawl/internal/encoders"
	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
	"github.com/RecoveryAshes/sitemapcrawl/internal/utils"
)

// Fetcher 抓取单个URL,返回跟随重定向后的响应
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*models.Response, error)
}

// LinkExtractor 按文档顺序提取页面中的原始href
type LinkExtractor interface {
	ExtractLinks(body []byte) []string
}

// Encoder 序列化爬取结果
type Encoder interface {
	Encode(items []models.Entry, indent int) (string, error)
}

// Crawler 网站地图爬取器
// 单线程: 弹出URL → 抓取 → 登记结果 → 提取链接 → 过滤后入队,直到队列为空
// 一个实例只执行一次爬取
type Crawler struct {
	config models.CrawlConfig

	queue     crawlers.Queue
	visited   crawlers.VisitedSet
	store     crawlers.ResultStore
	fetcher   Fetcher
	extractor LinkExtractor
	encoder   Encoder

	normalizer *crawlers.Normalizer
	headers    models.HeaderProvider
	now        func() time.Time
	onVisit    func(url string)

	used  bool
	stats models.CrawlStats
}

// Option 爬取器选项
type Option func(*Crawler)

// WithQueue 使用指定的待访问队列 (默认 LocalQueue)
func WithQueue(q crawlers.Queue) Option {
	return func(c *Crawler) { c.queue = q }
}

// WithVisitedSet 使用指定的已访问集合 (默认 LocalSet)
func WithVisitedSet(s crawlers.VisitedSet) Option {
	return func(c *Crawler) { c.visited = s }
}

// WithStore 使用指定的结果存储 (默认 MemoryStore)
func WithStore(s crawlers.ResultStore) Option {
	return func(c *Crawler) { c.store = s }
}

// WithFetcher 使用指定的抓取器 (默认按配置创建 HTTPClient)
func WithFetcher(f Fetcher) Option {
	return func(c *Crawler) { c.fetcher = f }
}

// WithHeaderProvider 默认抓取器使用的请求头部
func WithHeaderProvider(p models.HeaderProvider) Option {
	return func(c *Crawler) { c.headers = p }
}

// WithExtractor 使用指定的链接提取器
func WithExtractor(e LinkExtractor) Option {
	return func(c *Crawler) { c.extractor = e }
}

// WithEncoder 使用指定的编码器
func WithEncoder(e Encoder) Option {
	return func(c *Crawler) { c.encoder = e }
}

// WithVisitHook 每抓取一个URL前调用
func WithVisitHook(fn func(url string)) Option {
	return func(c *Crawler) { c.onVisit = fn }
}

// WithClock 替换lastmod回退时使用的时钟
func WithClock(now func() time.Time) Option {
	return func(c *Crawler) { c.now = now }
}

// NewCrawler 创建爬取器
// config在整个爬取过程中保持不变
func NewCrawler(config models.CrawlConfig, opts ...Option) (*Crawler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("无效的爬取配置: %w", err)
	}

	c := &Crawler{
		config:     config,
		normalizer: crawlers.NewNormalizer(config.DiffByGetParam),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.queue == nil {
		c.queue = crawlers.NewLocalQueue()
	}
	if c.visited == nil {
		c.visited = crawlers.NewLocalSet()
	}
	if c.store == nil {
		c.store = crawlers.NewMemoryStore()
	}
	if c.fetcher == nil {
		c.fetcher = crawlers.NewHTTPClient(crawlers.HTTPOptions{
			UserAgent: config.UserAgent,
			Timeout:   config.RequestTimeout(),
			KeepAlive: config.KeepAlive,
			Headers:   c.headers,
		})
	}
	if c.extractor == nil {
		c.extractor = crawlers.NewLinkExtractor()
	}
	if c.encoder == nil {
		c.encoder = encoders.NewSitemapEncoder()
	}

	return c, nil
}

// Crawl 从startURL开始爬取
// baseURL为空时依次使用配置中的BaseURL和种子URL所在目录
// 抓取失败时立即返回错误,不返回部分结果
func (c *Crawler) Crawl(ctx context.Context, startURL, baseURL string) (crawlers.ResultStore, error) {
	if c.used {
		return nil, models.ErrCrawlerUsed
	}
	c.used = true

	startTime := time.Now()
	defer func() {
		c.stats.Duration = time.Since(startTime).Seconds()
	}()

	seed, err := c.normalizer.Normalize(startURL, startURL)
	if err != nil {
		return nil, fmt.Errorf("无效的种子URL: %w", err)
	}
	if err := models.ValidateURL(seed); err != nil {
		return nil, fmt.Errorf("无效的种子URL: %w", err)
	}

	base, err := c.resolveBase(seed, baseURL)
	if err != nil {
		return nil, err
	}

	utils.Infof("🚀 开始爬取: %s (范围: %s)", seed, base)

	if err := c.enqueue(ctx, seed); err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		empty, err := c.queue.IsEmpty(ctx)
		if err != nil {
			return nil, fmt.Errorf("检查队列失败: %w", err)
		}
		if empty {
			break
		}

		url, ok, err := c.queue.Pop(ctx)
		if errors.Is(err, models.ErrEmptyQueue) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("取出URL失败: %w", err)
		}
		if !ok {
			utils.Infof("共享队列暂无任务,当前工作进程退出")
			break
		}

		if err := c.visit(ctx, url, base); err != nil {
			return nil, err
		}
	}

	c.stats.RegisteredURLs = c.store.Len()
	utils.Infof("✅ 爬取完成: 访问 %d 个页面, 结果 %d 个", c.stats.VisitedURLs, c.stats.RegisteredURLs)
	return c.store, nil
}

func (c *Crawler) resolveBase(seed, baseURL string) (string, error) {
	if baseURL == "" {
		baseURL = c.config.BaseURL
	}
	if baseURL != "" {
		return baseURL, nil
	}

	base, err := crawlers.DefaultBaseURL(seed)
	if err != nil {
		return "", fmt.Errorf("推导爬取范围失败: %w", err)
	}
	return base, nil
}

// visit 抓取一个URL并把范围内的新链接加入队列
func (c *Crawler) visit(ctx context.Context, url, base string) error {
	if c.onVisit != nil {
		c.onVisit(url)
	}
	utils.Infof("访问: %s", url)

	resp, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("抓取 %s 失败: %w", url, err)
	}
	c.stats.VisitedURLs++

	// 重定向后以最终URL为准
	final := resp.URL
	if final == "" {
		final = url
	}
	if final != url {
		if err := c.markVisited(ctx, final); err != nil {
			return err
		}
	}

	c.store.Register(final, c.record(final, resp))

	if crawlers.IsExternal(base, final) {
		utils.Infof("忽略范围外页面: %s", final)
		c.stats.ExternalURLs++
		return nil
	}

	if !crawlers.CanCrawl(resp, c.now()) {
		utils.Infof("不可爬取的页面: %s", final)
		c.stats.BrokenLinks++
		if c.config.ExcludeBrokenLinks {
			if err := c.store.Unregister(final); err != nil {
				return fmt.Errorf("移除页面失败: %w", err)
			}
		}
		return nil
	}

	for _, raw := range c.extractor.ExtractLinks(resp.Body) {
		c.stats.DiscoveredURLs++

		link, err := c.normalizer.Normalize(final, raw)
		if err != nil {
			utils.Debugf("跳过无法解析的链接 [%s]: %v", raw, err)
			continue
		}
		if crawlers.IsExternal(base, link) {
			continue
		}

		seen, err := c.visited.Contains(ctx, link)
		if err != nil {
			return fmt.Errorf("查询已访问集合失败: %w", err)
		}
		if seen {
			continue
		}

		utils.Debugf("%s -> %s", final, link)
		if err := c.enqueue(ctx, link); err != nil {
			return err
		}
	}
	return nil
}

func (c *Crawler) record(final string, resp *models.Response) models.PageRecord {
	record := models.NewPageRecord(models.Property{Name: models.PropLocation, Value: final})
	if !c.config.OmitLastModified {
		record.Set(models.PropLastModified, crawlers.LastModified(resp, c.now()))
	}
	return record
}

// enqueue 入队并同时标记为已访问
func (c *Crawler) enqueue(ctx context.Context, url string) error {
	if err := c.queue.Push(ctx, url); err != nil {
		return fmt.Errorf("URL入队失败: %w", err)
	}
	c.stats.QueuedURLs++
	return c.markVisited(ctx, url)
}

func (c *Crawler) markVisited(ctx context.Context, url string) error {
	if err := c.visited.Add(ctx, url); err != nil {
		return fmt.Errorf("更新已访问集合失败: %w", err)
	}
	return nil
}

// Dump 将爬取结果编码为sitemap
func (c *Crawler) Dump(indent int) (string, error) {
	return c.encoder.Encode(c.store.Items(), indent)
}

// Stats 返回爬取统计
func (c *Crawler) Stats() models.CrawlStats {
	return c.stats
}
