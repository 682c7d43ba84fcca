// Package encoders 将爬取结果序列化为输出格式
package encoders

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
)

// SitemapNamespace Sitemap 0.9 命名空间
const SitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapEncoder XML sitemap编码器
type SitemapEncoder struct{}

// NewSitemapEncoder 创建sitemap编码器
func NewSitemapEncoder() *SitemapEncoder {
	return &SitemapEncoder{}
}

// Encode 生成sitemap文本
// 每个页面对应一个<url>,页面记录的每个属性按插入顺序生成一个子元素
// indent为每层缩进的空格数,0表示输出为单行且末尾不换行
func (e *SitemapEncoder) Encode(items []models.Entry, indent int) (string, error) {
	if indent < 0 {
		return "", fmt.Errorf("缩进不能为负数: %d", indent)
	}

	var buf bytes.Buffer
	if indent > 0 {
		buf.WriteString(xml.Header)
	} else {
		buf.WriteString(strings.TrimSuffix(xml.Header, "\n"))
	}

	enc := xml.NewEncoder(&buf)
	if indent > 0 {
		enc.Indent("", strings.Repeat(" ", indent))
	}

	urlset := xml.StartElement{
		Name: xml.Name{Local: "urlset"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: SitemapNamespace}},
	}
	if err := enc.EncodeToken(urlset); err != nil {
		return "", fmt.Errorf("写入urlset失败: %w", err)
	}

	for _, item := range items {
		if err := encodeURL(enc, item); err != nil {
			return "", err
		}
	}

	// 没有页面时开始和结束标签也各占一行
	if len(items) == 0 && indent > 0 {
		if err := enc.Flush(); err != nil {
			return "", fmt.Errorf("输出sitemap失败: %w", err)
		}
		buf.WriteByte('\n')
	}

	if err := enc.EncodeToken(urlset.End()); err != nil {
		return "", fmt.Errorf("写入urlset失败: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return "", fmt.Errorf("输出sitemap失败: %w", err)
	}

	if indent > 0 {
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

func encodeURL(enc *xml.Encoder, item models.Entry) error {
	start := xml.StartElement{Name: xml.Name{Local: "url"}}
	if err := enc.EncodeToken(start); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", item.URL, err)
	}

	for _, p := range item.Record.Properties() {
		if err := enc.EncodeElement(p.Value, xml.StartElement{Name: xml.Name{Local: p.Name}}); err != nil {
			return fmt.Errorf("写入 %s 的属性 %s 失败: %w", item.URL, p.Name, err)
		}
	}

	if err := enc.EncodeToken(start.End()); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", item.URL, err)
	}
	return nil
}
