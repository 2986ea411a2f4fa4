package logx

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config 是全局 logger 的配置。零值可用（info 级别，写 stderr）。
type Config struct {
	Level  string    // "debug" / "info" / "warn" / "error"，无法解析时回退 info
	Output io.Writer // 默认 os.Stderr（stdout 留给 CLI 的 JSON 输出）
}

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).With().Timestamp().Str("service", "dmstream").Logger()
)

// Configure 替换全局 base logger。进程启动时调用一次；之后派生的 logger 不受影响。
func Configure(cfg Config) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil && parsed != zerolog.NoLevel {
			level = parsed
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339

	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}

	l := zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", "dmstream").
		Logger()

	mu.Lock()
	base = l
	mu.Unlock()
}

// Base 返回当前的 base logger。
func Base() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithComponent 返回带 component 字段的子 logger。
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
