package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// FileName 是未指定 --config 时在 cwd 下查找的配置文件名。
const FileName = "dmstream.json"

const (
	DefaultListen           = ":7003"
	DefaultIndexPath        = "myIndex.json"
	DefaultListingURL       = "https://desiremovies.cologne/"
	DefaultLogLevel         = "info"
	DefaultMetadataCacheTTL = 6 * time.Hour
	DefaultRequestTimeout   = 20 * time.Second
	DefaultRateLimit        = 120
	DefaultConcurrency      = 8
)

// CLIArgs 是 CLI 暴露的入口，保留“是否显式指定”的信息以实现覆盖优先级。
type CLIArgs struct {
	ConfigPath string

	Listen    string
	ListenSet bool

	LogLevel    string
	LogLevelSet bool

	IndexPath    string
	IndexPathSet bool
}

// FileConfig 对应 dmstream.json 的解析结构。时长字段使用 Go duration 字符串（如 "6h"、"20s"）。
type FileConfig struct {
	Listen           string       `json:"listen"`
	IndexPath        string       `json:"index_path"`
	ListingURL       string       `json:"listing_url"`
	Proxy            *ProxyConfig `json:"proxy"`
	LogLevel         string       `json:"log_level"`
	MetadataCacheTTL string       `json:"metadata_cache_ttl"`
	RequestTimeout   string       `json:"request_timeout"`
	RateLimit        *int         `json:"rate_limit"`
	Concurrency      int          `json:"concurrency"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取的配置文件；未读取任何文件时为空。
	ConfigPath string

	Listen     string
	IndexPath  string
	ListingURL string
	ProxyURL   string
	LogLevel   string

	// MetadataCacheTTL 为 0 表示不缓存元数据。
	MetadataCacheTTL time.Duration
	RequestTimeout   time.Duration
	// RateLimit 是每个客户端 IP 每分钟的请求上限；0 表示不限流。
	RateLimit int
	// Concurrency 是单次请求内并发解析画质入口的上限。
	Concurrency int
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数、环境变量合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在
// 2) 否则尝试 <cwd>/dmstream.json（可选）
//
// 覆盖优先级（固定）：
// - listen：CLI --listen > 环境变量 PORT > config > 默认 :7003
// - log_level / index_path：CLI > config > 默认
// - 其他字段：仅由 config 控制
//
// getenv 为 nil 时使用 os.Getenv。
func LoadEffective(cwd string, cli CLIArgs, getenv func(string) string) (EffectiveConfig, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = filepath.Join(cwdAbs, FileName)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}

	eff, err := merge(cwdAbs, cli, fc, getenv)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if exists {
		eff.ConfigPath = cfgPath
	}
	return eff, nil
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, getenv func(string) string) (EffectiveConfig, error) {
	listen := DefaultListen
	switch {
	case cli.ListenSet:
		listen = strings.TrimSpace(cli.Listen)
	case strings.TrimSpace(getenv("PORT")) != "":
		port := strings.TrimSpace(getenv("PORT"))
		if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
			return EffectiveConfig{}, fmt.Errorf("环境变量 PORT 无效：%q", port)
		}
		listen = ":" + port
	case strings.TrimSpace(fc.Listen) != "":
		listen = strings.TrimSpace(fc.Listen)
	}
	if _, _, err := net.SplitHostPort(listen); err != nil {
		return EffectiveConfig{}, fmt.Errorf("listen 无效：%q：%w", listen, err)
	}

	indexPath := DefaultIndexPath
	if cli.IndexPathSet {
		indexPath = cli.IndexPath
	} else if strings.TrimSpace(fc.IndexPath) != "" {
		indexPath = fc.IndexPath
	}
	indexPath = absCleanFrom(cwdAbs, indexPath)
	if indexPath == "" {
		return EffectiveConfig{}, errors.New("index_path 不能为空")
	}

	listingURL := DefaultListingURL
	if v := strings.TrimSpace(fc.ListingURL); v != "" {
		if err := validateHTTPURL(v); err != nil {
			return EffectiveConfig{}, fmt.Errorf("listing_url %w", err)
		}
		listingURL = v
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, fmt.Errorf("proxy.url 无效：%q", proxyURL)
		}
	}

	logLevel := DefaultLogLevel
	if cli.LogLevelSet {
		logLevel = cli.LogLevel
	} else if strings.TrimSpace(fc.LogLevel) != "" {
		logLevel = fc.LogLevel
	}
	logLevel = strings.ToLower(strings.TrimSpace(logLevel))
	if err := validateLogLevel(logLevel); err != nil {
		return EffectiveConfig{}, err
	}

	ttl, err := parseDuration("metadata_cache_ttl", fc.MetadataCacheTTL, DefaultMetadataCacheTTL)
	if err != nil {
		return EffectiveConfig{}, err
	}
	timeout, err := parseDuration("request_timeout", fc.RequestTimeout, DefaultRequestTimeout)
	if err != nil {
		return EffectiveConfig{}, err
	}
	if timeout == 0 {
		return EffectiveConfig{}, errors.New("request_timeout 必须大于 0")
	}

	rateLimit := DefaultRateLimit
	if fc.RateLimit != nil {
		rateLimit = *fc.RateLimit
	}
	if rateLimit < 0 {
		return EffectiveConfig{}, fmt.Errorf("rate_limit 不能为负数：%d", rateLimit)
	}

	concurrency := fc.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围 [1, 32]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 32 {
		concurrency = 32
	}

	return EffectiveConfig{
		Listen:           listen,
		IndexPath:        indexPath,
		ListingURL:       listingURL,
		ProxyURL:         proxyURL,
		LogLevel:         logLevel,
		MetadataCacheTTL: ttl,
		RequestTimeout:   timeout,
		RateLimit:        rateLimit,
		Concurrency:      concurrency,
	}, nil
}

func validateHTTPURL(v string) error {
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("无效：%q", v)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("必须是 http/https：%q", v)
	}
	return nil
}

func validateLogLevel(l string) error {
	switch l {
	case "trace", "debug", "info", "warn", "error", "disabled":
		return nil
	default:
		return fmt.Errorf("log_level 只能是 trace/debug/info/warn/error/disabled，实际是 %q", l)
	}
}

// parseDuration 解析 Go duration 字符串；空串使用默认值，负值报错。
func parseDuration(field, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s 无效：%w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s 不能为负数：%q", field, raw)
	}
	return d, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
