package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/RecoveryAshes/sitemapcrawl/internal/core"
	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
	"github.com/RecoveryAshes/sitemapcrawl/internal/utils"
)

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		indent  int
		timeout int
		wantErr bool
	}{
		{"有效参数", "https://example.com/", 4, 30, false},
		{"缺少URL", "", 4, 30, true},
		{"非HTTP协议", "ftp://example.com/", 4, 30, true},
		{"负缩进", "https://example.com/", -1, 30, true},
		{"单行输出", "https://example.com/", 0, 0, false},
		{"超时过大", "https://example.com/", 4, 301, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFlags(tt.url, tt.indent, tt.timeout)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteSitemap(t *testing.T) {
	t.Run("标准输出", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeSitemap(&buf, core.StdoutPath, "<urlset/>"); err != nil {
			t.Fatalf("writeSitemap() error = %v", err)
		}
		if buf.String() != "<urlset/>" {
			t.Errorf("输出 = %q", buf.String())
		}
	})

	t.Run("写入文件并创建目录", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "sitemap.xml")
		if err := writeSitemap(nil, path, "<urlset/>"); err != nil {
			t.Fatalf("writeSitemap() error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("读取输出文件失败: %v", err)
		}
		if string(data) != "<urlset/>" {
			t.Errorf("文件内容 = %q", data)
		}
	})
}

func testConfig(dir string) *core.Config {
	return &core.Config{
		Crawl:   models.CrawlConfig{Timeout: 5},
		Backend: core.BackendConfig{Queue: core.BackendLocal, Visited: core.BackendLocal},
		Output: core.OutputConfig{
			Path:   filepath.Join(dir, "sitemap.xml"),
			Indent: 0,
			Report: filepath.Join(dir, "report.json"),
		},
	}
}

func readReport(t *testing.T, path string) models.CrawlReport {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取报告失败: %v", err)
	}
	var report models.CrawlReport
	if err := report.FromJSON(data); err != nil {
		t.Fatalf("解析报告失败: %v", err)
	}
	return report
}

func TestRun(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/about.html">about</a><a href="https://other.invalid/">x</a></body></html>`)
	})
	mux.HandleFunc("/about.html", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Run"); got != "test" {
			http.Error(w, "missing header", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>about</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)

	err := run(context.Background(), cfg, runOptions{
		seed:    srv.URL + "/",
		headers: []string{"X-Run: test"},
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(cfg.Output.Path)
	if err != nil {
		t.Fatalf("读取sitemap失败: %v", err)
	}
	sitemap := string(data)
	for _, want := range []string{
		"<loc>" + srv.URL + "/</loc>",
		"<loc>" + srv.URL + "/about.html</loc>",
		"<lastmod>",
	} {
		if !strings.Contains(sitemap, want) {
			t.Errorf("sitemap缺少 %s:\n%s", want, sitemap)
		}
	}
	if strings.Contains(sitemap, "other.invalid") {
		t.Error("范围外链接不应出现在sitemap中")
	}

	report := readReport(t, cfg.Output.Report)
	if report.Status != models.TaskStatusCompleted {
		t.Errorf("Status = %s", report.Status)
	}
	if report.RunID == "" || len(report.Pages) != 2 || report.Stats.VisitedURLs != 2 {
		t.Errorf("报告内容错误: %+v", report)
	}
}

func TestRun_FailedCrawlWritesNoSitemap(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	seed := srv.URL + "/"
	srv.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)

	if err := run(context.Background(), cfg, runOptions{seed: seed}); err == nil {
		t.Fatal("服务器不可达时应返回错误")
	}

	if _, err := os.Stat(cfg.Output.Path); !os.IsNotExist(err) {
		t.Errorf("爬取失败时不应生成sitemap: %v", err)
	}

	report := readReport(t, cfg.Output.Report)
	if report.Status != models.TaskStatusFailed || report.ErrorMsg == "" {
		t.Errorf("报告应记录失败: %+v", report)
	}

	raw, _ := os.ReadFile(cfg.Output.Report)
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("报告不是合法JSON: %v", err)
	}
	if _, ok := generic["run_id"]; !ok {
		t.Error("报告缺少run_id")
	}
}

func TestRun_LoggerScopedToRun(t *testing.T) {
	var buf bytes.Buffer
	prev := utils.Logger
	utils.Logger = zerolog.New(&buf).Level(zerolog.InfoLevel)
	t.Cleanup(func() { utils.Logger = prev })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html></html>`)
	}))
	defer srv.Close()

	var runIDs []string
	for i := 0; i < 2; i++ {
		cfg := testConfig(t.TempDir())
		if err := run(context.Background(), cfg, runOptions{seed: srv.URL + "/"}); err != nil {
			t.Fatalf("第%d次 run() error = %v", i+1, err)
		}
		runIDs = append(runIDs, readReport(t, cfg.Output.Report).RunID)
	}

	for _, id := range runIDs {
		if !strings.Contains(buf.String(), `"run_id":"`+id+`"`) {
			t.Errorf("运行日志缺少 run_id %s", id)
		}
	}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Count(line, `"run_id"`) > 1 {
			t.Errorf("run_id字段重复: %s", line)
		}
	}

	buf.Reset()
	utils.Infof("运行结束后的日志")
	if strings.Contains(buf.String(), "run_id") {
		t.Errorf("全局日志器不应携带run_id: %s", buf.String())
	}
}
