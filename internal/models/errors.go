package models

import "errors"

var (
	// ErrEmptyQueue 本地队列中没有待处理的URL
	ErrEmptyQueue = errors.New("队列为空")

	// ErrNotFound 要移除的URL不存在
	ErrNotFound = errors.New("URL不存在")

	// ErrCrawlerUsed 一个爬取器实例只能执行一次爬取
	ErrCrawlerUsed = errors.New("爬取器已执行过爬取任务")
)
