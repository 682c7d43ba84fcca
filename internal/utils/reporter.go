package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
)

// Reporter 爬取报告生成器
type Reporter struct {
	path string
}

// NewReporter 创建报告生成器,报告写入path
func NewReporter(path string) *Reporter {
	return &Reporter{path: path}
}

// Write 以JSON格式保存爬取报告
func (r *Reporter) Write(report *models.CrawlReport) error {
	data, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建报告目录失败: %w", err)
		}
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Infof("报告已生成: %s", r.path)
	return nil
}

// NewProgressBar 创建不定长进度条(旋转指示器),每访问一个页面调用一次Add(1)
func NewProgressBar(w io.Writer, description string) *progressbar.ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}
