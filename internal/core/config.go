package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RecoveryAshes/sitemapcrawl/internal/crawlers"
	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
	"github.com/RecoveryAshes/sitemapcrawl/internal/utils"
)

const (
	// BackendLocal 进程内队列/集合
	BackendLocal = "local"

	// BackendRedis Redis共享队列/集合
	BackendRedis = "redis"

	// StdoutPath 输出到标准输出
	StdoutPath = "-"
)

// Config 应用程序配置
type Config struct {
	Crawl   models.CrawlConfig `mapstructure:"crawl"`
	Backend BackendConfig      `mapstructure:"backend"`
	HTTP    HTTPConfig         `mapstructure:"http"`
	Output  OutputConfig       `mapstructure:"output"`
	Logging LoggingConfig      `mapstructure:"logging"`
}

// BackendConfig 队列和已访问集合的存储后端
type BackendConfig struct {
	Queue         string `mapstructure:"queue"`   // local | redis
	Visited       string `mapstructure:"visited"` // local | redis
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	QueueKey      string `mapstructure:"queue_key"`
	VisitedKey    string `mapstructure:"visited_key"`
}

// HTTPConfig 请求配置
type HTTPConfig struct {
	// Headers 附加请求头部,优先级高于默认值,低于命令行
	Headers map[string]string `mapstructure:"headers"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Path   string `mapstructure:"path"`   // sitemap输出路径,"-"表示stdout
	Indent int    `mapstructure:"indent"` // 缩进空格数,0为单行
	Report string `mapstructure:"report"` // JSON报告路径,为空不生成
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// LoadConfig 加载配置文件
// configPath为空时在 ./configs、当前目录和 ~/.sitemapcrawl 中查找 sitemapcrawl.yaml,
// 找不到时使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("sitemapcrawl")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".sitemapcrawl"))
		}
	}

	setDefaults(v)

	// 环境变量优先于配置文件
	_ = v.BindEnv("backend.queue_key", crawlers.QueueKeyEnv)
	_ = v.BindEnv("backend.redis_addr", "REDIS_ADDR")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
		utils.Debugf("未找到配置文件,使用默认配置")
	} else {
		utils.Debugf("已加载配置文件: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置失败: %w", err)}
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.base_url", "")
	v.SetDefault("crawl.keep_alive", false)
	v.SetDefault("crawl.exclude_broken_links", false)
	v.SetDefault("crawl.diff_by_get_param", false)
	v.SetDefault("crawl.omit_lastmod", false)
	v.SetDefault("crawl.is_master", false)
	v.SetDefault("crawl.user_agent", crawlers.DefaultUserAgent)
	v.SetDefault("crawl.timeout", 30)

	v.SetDefault("backend.queue", BackendLocal)
	v.SetDefault("backend.visited", BackendLocal)
	v.SetDefault("backend.redis_addr", "localhost:6379")
	v.SetDefault("backend.redis_password", "")
	v.SetDefault("backend.redis_db", 0)
	v.SetDefault("backend.queue_key", crawlers.DefaultQueueKey)
	v.SetDefault("backend.visited_key", crawlers.DefaultVisitedKey)

	v.SetDefault("output.path", StdoutPath)
	v.SetDefault("output.indent", 4)
	v.SetDefault("output.report", "")

	v.SetDefault("logging.level", "error")
	v.SetDefault("logging.log_dir", "")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// MergeCLIFlags 合并命令行参数到配置
// 只有显式指定的参数会覆盖配置文件
func (c *Config) MergeCLIFlags(fs *pflag.FlagSet) error {
	var err error
	str := func(name string, dst *string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetString(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetBool(name)
		}
	}
	integer := func(name string, dst *int) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetInt(name)
		}
	}

	str("base-url", &c.Crawl.BaseURL)
	boolean("keep-alive", &c.Crawl.KeepAlive)
	boolean("exclude-broken-links", &c.Crawl.ExcludeBrokenLinks)
	boolean("diff-by-get-param", &c.Crawl.DiffByGetParam)
	boolean("no-lastmod", &c.Crawl.OmitLastModified)
	boolean("master", &c.Crawl.IsMaster)
	str("user-agent", &c.Crawl.UserAgent)
	integer("timeout", &c.Crawl.Timeout)

	str("backend", &c.Backend.Queue)
	str("visited-backend", &c.Backend.Visited)
	str("redis-addr", &c.Backend.RedisAddr)
	str("queue-key", &c.Backend.QueueKey)

	str("output", &c.Output.Path)
	integer("indent", &c.Output.Indent)
	str("report", &c.Output.Report)

	str("log-dir", &c.Logging.LogDir)
	if err != nil {
		return fmt.Errorf("读取命令行参数失败: %w", err)
	}

	if fs.Changed("verbose") {
		count, e := fs.GetCount("verbose")
		if e != nil {
			return fmt.Errorf("读取命令行参数失败: %w", e)
		}
		c.Logging.Level = utils.LevelFromVerbosity(count)
	}

	return nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return err
	}
	for _, b := range []string{c.Backend.Queue, c.Backend.Visited} {
		if b != BackendLocal && b != BackendRedis {
			return fmt.Errorf("不支持的后端: %q (可选 %s, %s)", b, BackendLocal, BackendRedis)
		}
	}
	if c.UsesRedis() && c.Backend.RedisAddr == "" {
		return fmt.Errorf("使用redis后端时必须指定redis_addr")
	}
	if c.Output.Indent < 0 {
		return fmt.Errorf("缩进不能为负数: %d", c.Output.Indent)
	}
	return nil
}

// UsesRedis 队列或已访问集合是否使用Redis
func (c *Config) UsesRedis() bool {
	return c.Backend.Queue == BackendRedis || c.Backend.Visited == BackendRedis
}

// LogConfig 转换为日志系统配置
// 未设置的级别和轮转参数使用 utils.DefaultLogConfig
func (c *Config) LogConfig() utils.LogConfig {
	lc := utils.DefaultLogConfig()
	lc.LogDir = c.Logging.LogDir
	lc.Compress = c.Logging.Rotation.Compress
	if c.Logging.Level != "" {
		lc.Level = c.Logging.Level
	}
	if c.Logging.Rotation.MaxSize > 0 {
		lc.MaxSize = c.Logging.Rotation.MaxSize
	}
	if c.Logging.Rotation.MaxBackups > 0 {
		lc.MaxBackups = c.Logging.Rotation.MaxBackups
	}
	if c.Logging.Rotation.MaxAge > 0 {
		lc.MaxAge = c.Logging.Rotation.MaxAge
	}
	return lc
}
