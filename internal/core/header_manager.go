package core

import (
	"net/http"
	"strings"

	"github.com/RecoveryAshes/sitemapcrawl/internal/crawlers"
	"github.com/RecoveryAshes/sitemapcrawl/internal/models"
	"github.com/RecoveryAshes/sitemapcrawl/internal/utils"
)

// HeaderManager 管理抓取请求的HTTP头部
// 实现 models.HeaderProvider 接口
type HeaderManager struct {
	// defaults 系统默认头部
	defaults http.Header

	// config 配置文件中的 http.headers
	config http.Header

	// cli 命令行 -H 参数
	cli http.Header

	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor

	// merged 验证通过后的合并结果
	merged http.Header
}

// NewHeaderManager 创建头部管理器
// 参数:
//   - userAgent: 默认User-Agent,为空时使用 crawlers.DefaultUserAgent
//   - configHeaders: 配置文件中的头部
//   - cliHeaders: 命令行传递的 "Name: Value" 列表
func NewHeaderManager(userAgent string, configHeaders map[string]string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}

	config := make(http.Header, len(configHeaders))
	for name, value := range configHeaders {
		config.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	return &HeaderManager{
		defaults:  defaultHeaders(userAgent),
		config:    config,
		cli:       cli,
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
	}, nil
}

func defaultHeaders(userAgent string) http.Header {
	if userAgent == "" {
		userAgent = crawlers.DefaultUserAgent
	}
	return http.Header{
		"User-Agent":      []string{userAgent},
		"Accept":          []string{"text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"},
		"Accept-Encoding": []string{"gzip, deflate, br"},
	}
}

// Validate 验证所有头部的合法性
// 验证顺序: 默认 → 配置 → 命令行
func (hm *HeaderManager) Validate() error {
	if err := hm.validator.Validate(hm.config); err != nil {
		utils.Errorf("配置文件头部验证失败: %v", err)
		return err
	}
	if err := hm.validator.Validate(hm.cli); err != nil {
		utils.Errorf("命令行头部验证失败: %v", err)
		return err
	}
	return nil
}

// GetMergedHeaders 按优先级合并头部 (default < config < cli)
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[name] = append([]string(nil), values...)
		}
	}
	return result
}

// SafeString 脱敏后的头部字符串,用于日志
func (hm *HeaderManager) SafeString() string {
	return hm.redactor.RedactToString(hm.GetMergedHeaders())
}

// GetHeaders 实现 HeaderProvider 接口
// 第一次调用时验证并缓存结果
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if hm.merged == nil {
		if err := hm.Validate(); err != nil {
			return nil, err
		}
		hm.merged = hm.GetMergedHeaders()
		utils.Debugf("请求头部: %s", hm.SafeString())
	}
	return hm.merged.Clone(), nil
}
