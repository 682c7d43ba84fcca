package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
)

func TestReporter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "crawl.json")
	reporter := NewReporter(path)

	report := &models.CrawlReport{
		RunID:   models.GenerateID(),
		SeedURL: "http://example.com/",
		Status:  models.TaskStatusCompleted,
		Stats:   models.CrawlStats{VisitedURLs: 2, RegisteredURLs: 2},
		Pages:   []string{"http://example.com/", "http://example.com/a.html"},
	}
	if err := reporter.Write(report); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取报告失败: %v", err)
	}

	var loaded models.CrawlReport
	if err := loaded.FromJSON(data); err != nil {
		t.Fatalf("报告不是合法JSON: %v", err)
	}
	if loaded.RunID != report.RunID || len(loaded.Pages) != 2 || loaded.Status != models.TaskStatusCompleted {
		t.Errorf("报告内容不一致: %+v", loaded)
	}
}

func TestNewProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, "爬取中")

	for i := 0; i < 3; i++ {
		if err := bar.Add(1); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if bar.State().CurrentNum != 3 {
		t.Errorf("CurrentNum = %d, 期望 3", bar.State().CurrentNum)
	}
	if err := bar.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
}
