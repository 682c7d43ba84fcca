package crawlers

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Normalizer URL规范化器
// 职责: 把页面中的原始href转换为绝对URL,作为队列和已访问集合的唯一键
type Normalizer struct {
	// 保留查询参数,仅查询参数不同的URL视为不同页面
	diffByGetParam bool
}

// NewNormalizer 创建URL规范化器
func NewNormalizer(diffByGetParam bool) *Normalizer {
	return &Normalizer{diffByGetParam: diffByGetParam}
}

// Normalize 将href相对baseURL解析为绝对URL
//  1. 去掉第一个'#'及之后的内容
//  2. 未开启diffByGetParam时去掉第一个'?'及之后的内容
//  3. 绝对URL原样返回,否则按RFC 3986相对baseURL解析
//
// 不做其他规范化,"/" 与 "/index.html" 仍是不同的URL
func (n *Normalizer) Normalize(baseURL, href string) (string, error) {
	href, _, _ = strings.Cut(href, "#")
	if !n.diffByGetParam {
		href, _, _ = strings.Cut(href, "?")
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("解析链接失败 %q: %w", href, err)
	}
	if ref.IsAbs() {
		return href, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("解析baseURL失败 %q: %w", baseURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// IsExternal URL是否在爬取范围之外
// 对规范化后的字符串做字面前缀比较,不重新解析路径
func IsExternal(baseURL, u string) bool {
	return !strings.HasPrefix(u, baseURL)
}

// DefaultBaseURL 未指定爬取范围时使用种子URL所在的目录
func DefaultBaseURL(startURL string) (string, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return "", fmt.Errorf("解析种子URL失败: %w", err)
	}
	if !start.IsAbs() {
		return "", fmt.Errorf("种子URL必须是绝对地址: %s", startURL)
	}
	return start.ResolveReference(&url.URL{Path: "."}).String(), nil
}

// LinkExtractor 从HTML中提取<a href>链接
type LinkExtractor struct{}

// NewLinkExtractor 创建链接提取器
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks 按文档顺序返回所有a标签的href(去除首尾空白)
// 解析失败时返回空结果,调用方无需特殊处理
func (e *LinkExtractor) ExtractLinks(body []byte) []string {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	doc := goquery.NewDocumentFromNode(root)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		links = append(links, strings.TrimSpace(href))
	})
	return links
}
