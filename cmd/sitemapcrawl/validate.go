package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/sitemapcrawl/internal/core"
	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
)

// ValidateFlags 验证命令行标志
func ValidateFlags(targetURL string, indent, timeout int) error {
	if targetURL == "" {
		return fmt.Errorf("必须通过 -u/--url 指定种子URL")
	}
	if err := models.ValidateURL(targetURL); err != nil {
		return fmt.Errorf("无效的种子URL: %w", err)
	}

	if indent < 0 {
		return fmt.Errorf("缩进必须为非负数,当前值: %d", indent)
	}

	if timeout < 0 || timeout > 300 {
		return fmt.Errorf("请求超时必须在0-300秒之间,当前值: %d", timeout)
	}

	return nil
}

// writeSitemap 写出sitemap,path为"-"时写到stdout
func writeSitemap(stdout io.Writer, path, sitemap string) error {
	if path == "" || path == core.StdoutPath {
		if _, err := io.WriteString(stdout, sitemap); err != nil {
			return fmt.Errorf("输出sitemap失败: %w", err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sitemap), 0644); err != nil {
		return fmt.Errorf("写入sitemap失败: %w", err)
	}
	return nil
}
