package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/sitemapcrawl/internal/core"
	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
	"github.com/RecoveryAshes/sitemapcrawl/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    int
	logDir     string

	// HTTP头部参数
	headers   []string
	userAgent string
	timeout   int
	keepAlive bool

	// 爬取参数
	targetURL          string
	baseURL            string
	excludeBrokenLinks bool
	diffByGetParam     bool
	noLastmod          bool
	showProgress       bool

	// 分布式参数
	backend        string
	visitedBackend string
	redisAddr      string
	queueKey       string
	isMaster       bool

	// 输出参数
	outputPath string
	indent     int
	reportPath string
)

// appConfig PersistentPreRunE中加载并合并命令行参数后的配置
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "sitemapcrawl",
	Short: "网站地图(sitemap)生成工具",
	Long: `sitemapcrawl - 从种子URL开始爬取网站并生成XML sitemap

  • 只跟随爬取范围(base URL)内的链接
  • 跟随重定向,以最终URL登记页面
  • 可选剔除不可爬取的页面
  • 支持通过Redis共享队列运行多个工作进程

示例:
  # 输出到标准输出
  sitemapcrawl -u https://example.com/

  # 限定范围并写入文件
  sitemapcrawl -u https://example.com/blog/ -b https://example.com/blog/ -o sitemap.xml

  # 分布式模式: 主节点清理残留任务,其余节点共享队列
  sitemapcrawl -u https://example.com/ --backend redis --master
  sitemapcrawl -u https://example.com/ --backend redis

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		if err := config.MergeCLIFlags(cmd.Flags()); err != nil {
			return err
		}
		if err := config.Validate(); err != nil {
			return fmt.Errorf("配置验证失败: %w", err)
		}

		if err := utils.InitLogger(config.LogConfig()); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		appConfig = config
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.CloseLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ValidateFlags(targetURL, indent, timeout); err != nil {
			return err
		}

		// Ctrl+C 取消爬取,不写出sitemap
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := run(ctx, appConfig, runOptions{
			seed:     targetURL,
			headers:  headers,
			progress: showProgress,
			stdout:   cmd.OutOrStdout(),
		}); err != nil {
			return err
		}

		utils.Info("✨ 爬取任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sitemapcrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// runOptions 单次运行的参数
type runOptions struct {
	seed     string
	headers  []string
	progress bool
	stdout   io.Writer
}

// run 执行一次爬取,成功后写出sitemap
// 配置了报告路径时无论成功与否都会生成报告
func run(ctx context.Context, cfg *core.Config, opts runOptions) (err error) {
	report := &models.CrawlReport{
		RunID:     models.GenerateID(),
		SeedURL:   opts.seed,
		BaseURL:   cfg.Crawl.BaseURL,
		Backend:   cfg.Backend.Queue,
		Status:    models.TaskStatusRunning,
		StartTime: time.Now(),
		Output:    cfg.Output.Path,
		Config:    cfg.Crawl,
	}
	logger := utils.Logger.With().Str("run_id", report.RunID).Logger()
	logger.Info().Str("seed", opts.seed).Str("backend", cfg.Backend.Queue).Msg("🚀 开始运行")

	if cfg.Output.Report != "" {
		defer func() {
			werr := finishReport(cfg.Output.Report, report, err)
			if werr == nil {
				return
			}
			utils.Error(werr, "生成报告失败")
			if err == nil {
				err = werr
			}
		}()
	}

	headerManager, err := core.NewHeaderManager(cfg.Crawl.UserAgent, cfg.HTTP.Headers, opts.headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	backends, err := core.OpenBackends(ctx, cfg.Backend, cfg.Crawl.IsMaster)
	if err != nil {
		return fmt.Errorf("初始化存储后端失败: %w", err)
	}
	defer backends.Close()

	crawlerOpts := append(backends.Options(), core.WithHeaderProvider(headerManager))
	if opts.progress {
		bar := utils.NewProgressBar(os.Stderr, "🔍 爬取中")
		defer bar.Finish()
		crawlerOpts = append(crawlerOpts, core.WithVisitHook(func(string) {
			_ = bar.Add(1)
		}))
	}

	crawler, err := core.NewCrawler(cfg.Crawl, crawlerOpts...)
	if err != nil {
		return fmt.Errorf("创建爬取器失败: %w", err)
	}

	store, err := crawler.Crawl(ctx, opts.seed, "")
	report.Stats = crawler.Stats()
	if err != nil {
		return fmt.Errorf("爬取失败: %w", err)
	}

	sitemap, err := crawler.Dump(cfg.Output.Indent)
	if err != nil {
		return fmt.Errorf("生成sitemap失败: %w", err)
	}
	if err := writeSitemap(opts.stdout, cfg.Output.Path, sitemap); err != nil {
		return err
	}

	for _, entry := range store.Items() {
		report.Pages = append(report.Pages, entry.Record.Location())
	}

	stats := report.Stats
	logger.Info().Msgf("📊 访问 %d / 结果 %d / 不可爬取 %d / 范围外 %d, 耗时 %.2f秒",
		stats.VisitedURLs, stats.RegisteredURLs, stats.BrokenLinks, stats.ExternalURLs, stats.Duration)
	return nil
}

func finishReport(path string, report *models.CrawlReport, runErr error) error {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime).Seconds()
	if runErr != nil {
		report.Status = models.TaskStatusFailed
		report.ErrorMsg = runErr.Error()
	} else {
		report.Status = models.TaskStatusCompleted
	}
	return utils.NewReporter(path).Write(report)
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "详细输出 (-v warn, -vv info, -vvv debug)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "日志文件目录,为空时只输出到stderr")

	// HTTP参数
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.Flags().StringVar(&userAgent, "user-agent", "", "请求User-Agent")
	rootCmd.Flags().IntVar(&timeout, "timeout", 30, "单次请求超时(秒)")
	rootCmd.Flags().BoolVarP(&keepAlive, "keep-alive", "k", false, "复用HTTP连接")

	// 爬取参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "种子URL (必需)")
	rootCmd.Flags().StringVarP(&baseURL, "base-url", "b", "", "爬取范围前缀,默认为种子URL所在目录")
	rootCmd.Flags().BoolVarP(&excludeBrokenLinks, "exclude-broken-links", "e", false, "从sitemap中剔除不可爬取的页面")
	rootCmd.Flags().BoolVar(&diffByGetParam, "diff-by-get-param", false, "仅查询参数不同的URL视为不同页面")
	rootCmd.Flags().BoolVar(&noLastmod, "no-lastmod", false, "不输出lastmod")
	rootCmd.Flags().BoolVar(&showProgress, "progress", false, "在stderr显示进度")

	// 分布式参数
	rootCmd.Flags().StringVar(&backend, "backend", core.BackendLocal, "待访问队列后端 (local|redis)")
	rootCmd.Flags().StringVar(&visitedBackend, "visited-backend", core.BackendLocal, "已访问集合后端 (local|redis)")
	rootCmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis地址 (默认读取环境变量 REDIS_ADDR)")
	rootCmd.Flags().StringVar(&queueKey, "queue-key", "", "Redis队列键 (默认读取环境变量 SITEMAP_QUEUE_KEY)")
	rootCmd.Flags().BoolVar(&isMaster, "master", false, "主节点: 启动时清空共享队列和共享集合")

	// 输出参数
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", core.StdoutPath, "sitemap输出文件,'-'表示标准输出")
	rootCmd.Flags().IntVar(&indent, "indent", 4, "缩进空格数,0为单行输出")
	rootCmd.Flags().StringVar(&reportPath, "report", "", "JSON爬取报告路径")

	_ = rootCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
