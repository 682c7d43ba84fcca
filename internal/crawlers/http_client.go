package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"

	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
	"github.com/RecoveryAshes/sitemapcrawl/internal/utils"
)

const (
	// DefaultUserAgent 未配置User-Agent时使用
	DefaultUserAgent = "Mozilla/5.0 (compatible; sitemapcrawl/1.0)"

	// LastModifiedLayout 无法从响应头获取时间时使用的格式
	LastModifiedLayout = "2006-01-02 15:04:05"

	defaultContentType = "text/plain"
)

// HTTPOptions HTTP客户端选项
type HTTPOptions struct {
	UserAgent string

	// Timeout 单次请求超时,0表示不限制
	Timeout time.Duration

	// KeepAlive 复用TCP连接
	KeepAlive bool

	// Headers 每次请求附加的头部,可为nil
	Headers models.HeaderProvider
}

// HTTPClient 基于Colly的页面抓取器
// 所有请求共享同一个底层http.Client,每次Fetch克隆一个Collector注册回调
type HTTPClient struct {
	collector *colly.Collector
	headers   models.HeaderProvider
}

// NewHTTPClient 创建HTTP客户端
func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	c := colly.NewCollector(
		colly.UserAgent(ua),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = !opts.KeepAlive

	// 不截断响应体,超出Colly默认10MB后的链接也要提取
	c.MaxBodySize = 0
	c.SetRequestTimeout(opts.Timeout)
	c.WithTransport(transport)

	utils.Debugf("HTTP客户端: 超时=%s, keep-alive=%v", opts.Timeout, opts.KeepAlive)

	return &HTTPClient{
		collector: c,
		headers:   opts.Headers,
	}
}

// Fetch 抓取URL并跟随重定向
// 非2xx状态码也会返回响应,只有网络错误才返回error
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (*models.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("抓取 %s 被取消: %w", rawURL, err)
	}

	var headers http.Header
	if h.headers != nil {
		var err error
		headers, err = h.headers.GetHeaders()
		if err != nil {
			return nil, fmt.Errorf("获取HTTP头部失败: %w", err)
		}
	}

	cc := h.collector.Clone()
	cc.Context = ctx

	var resp *models.Response
	cc.OnRequest(func(r *colly.Request) {
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
		utils.Debugf("请求: %s", r.URL.String())
	})

	cc.OnResponse(func(r *colly.Response) {
		final := *r.Request.URL
		if final.Path == "" {
			final.Path = "/"
		}

		var hdr http.Header
		if r.Headers != nil {
			hdr = r.Headers.Clone()
		}
		if hdr == nil {
			hdr = make(http.Header)
		}

		body := r.Body
		if enc := hdr.Get("Content-Encoding"); enc != "" {
			decoded, err := decompressBody(enc, r.Body)
			if err != nil {
				// 无法解码的内容不交给链接提取
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", final.String(), enc, err)
				decoded = nil
			}
			body = decoded
		}

		resp = &models.Response{
			URL:        final.String(),
			StatusCode: r.StatusCode,
			Headers:    hdr,
			Body:       body,
		}
	})

	if err := cc.Visit(rawURL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("抓取 %s 被取消: %w", rawURL, ctxErr)
		}
		return nil, fmt.Errorf("抓取 %s 失败: %w", rawURL, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("抓取 %s 失败: %w", rawURL, errNoResponse)
	}

	if resp.URL != rawURL {
		utils.Debugf("重定向: %s -> %s", rawURL, resp.URL)
	}
	return resp, nil
}

var errNoResponse = errors.New("未收到响应")

// decompressBody 解码br和deflate响应体
// deflate按RFC 9110为zlib格式,部分服务器发送裸deflate流,zlib头无效时再按裸流解码
// gzip由Colly在读取响应时处理,这里原样返回
func decompressBody(contentEncoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "br":
		decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decoded, nil

	case "deflate":
		reader, err := zlib.NewReader(bytes.NewReader(body))
		if errors.Is(err, zlib.ErrHeader) {
			reader = flate.NewReader(bytes.NewReader(body))
		} else if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		defer reader.Close()

		decoded, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decoded, nil

	default:
		return body, nil
	}
}

// IsHTML 响应的Content-Type是否为text/html
// 忽略分号后的参数,缺省按text/plain处理
func IsHTML(resp *models.Response) bool {
	contentType := defaultContentType
	if resp.Headers != nil {
		if ct := resp.Headers.Get("Content-Type"); ct != "" {
			contentType = ct
		}
	}

	for _, part := range strings.Split(contentType, ";") {
		if strings.EqualFold(strings.TrimSpace(part), "text/html") {
			return true
		}
	}
	return false
}

// LastModified 返回页面最后修改时间
// 依次使用Last-Modified头、Date头,都没有时返回now
func LastModified(resp *models.Response, now time.Time) string {
	if resp.Headers != nil {
		if v := resp.Headers.Get("Last-Modified"); v != "" {
			return v
		}
		if v := resp.Headers.Get("Date"); v != "" {
			return v
		}
	}
	return now.Format(LastModifiedLayout)
}

// CanCrawl 页面是否可以继续提取链接
func CanCrawl(resp *models.Response, now time.Time) bool {
	return IsHTML(resp) && LastModified(resp, now) != ""
}
