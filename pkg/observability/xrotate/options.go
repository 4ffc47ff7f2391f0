package xrotate

import (
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xroll/pkg/util/xsize"
)

// 默认配置值
const (
	// DefaultMaxSizeBytes 默认轮转阈值（10 MiB）
	DefaultMaxSizeBytes = 10 * xsize.MiB

	// DefaultMaxBackups 默认保留的归档数量
	DefaultMaxBackups = 5

	// DefaultFileMode 默认日志文件权限
	DefaultFileMode os.FileMode = 0o644
)

// sizeConfig 轮转配置，构造后不可变
type sizeConfig struct {
	// MaxSizeBytes 当前文件达到该字节数后，下一次写入前轮转，必须 > 0
	MaxSizeBytes int64

	// MaxBackups 清理后保留的归档数量，0 表示不保留任何归档
	MaxBackups int

	// FileMode 新建日志文件的权限，仅允许 0000~0777，0 表示 DefaultFileMode
	FileMode os.FileMode

	// RenameAttempts 轮转时重命名的尝试次数（含首次），默认 1
	RenameAttempts int

	// RenameDelay 重命名重试间隔
	RenameDelay time.Duration

	// OnError 接收不影响写入的内部告警（ErrPruneFailed、ErrSizeProbe 等）
	//
	// 回调不得向同一 Rotator 写入数据，否则会死锁。
	OnError func(error)

	// MeterProvider 为 nil 时不收集指标
	MeterProvider metric.MeterProvider

	// 仅用于测试的注入点（nil 时使用 time.Now / os.Rename）
	now      func() time.Time
	renameFn func(oldpath, newpath string) error

	// err 选项应用阶段遇到的第一个错误
	err error
}

// SizeOption 轮转器配置选项
type SizeOption func(*sizeConfig)

// WithMaxSizeBytes 设置轮转阈值（字节）
func WithMaxSizeBytes(n int64) SizeOption {
	return func(c *sizeConfig) {
		c.MaxSizeBytes = n
	}
}

// WithMaxSizeSpec 以容量规格设置轮转阈值，如 "5k"、"100m"。
// 规格无效时构造函数返回包装了 xsize.ErrInvalidSizeSpec 的 ErrInvalidConfig。
func WithMaxSizeSpec(spec string) SizeOption {
	return func(c *sizeConfig) {
		n, err := xsize.Parse(spec)
		if err != nil {
			c.setErr(err)
			return
		}
		c.MaxSizeBytes = n
	}
}

// WithMaxBackups 设置保留的归档数量
func WithMaxBackups(n int) SizeOption {
	return func(c *sizeConfig) {
		c.MaxBackups = n
	}
}

// WithFileMode 设置新建日志文件的权限
func WithFileMode(mode os.FileMode) SizeOption {
	return func(c *sizeConfig) {
		c.FileMode = mode
	}
}

// WithRenameRetry 设置轮转重命名的尝试次数和间隔。
// 源文件不存在（fs.ErrNotExist）时不重试。
func WithRenameRetry(attempts int, delay time.Duration) SizeOption {
	return func(c *sizeConfig) {
		c.RenameAttempts = attempts
		c.RenameDelay = delay
	}
}

// WithOnError 设置内部告警回调
//
// 设计决策: 轮转器经常就是日志系统本身的输出目标，内部告警不走 slog，
// 避免写失败 → 打日志 → 再写失败的递归。回调 panic 会被隔离。
func WithOnError(fn func(error)) SizeOption {
	return func(c *sizeConfig) {
		c.OnError = fn
	}
}

// WithMeterProvider 设置 OpenTelemetry MeterProvider
func WithMeterProvider(p metric.MeterProvider) SizeOption {
	return func(c *sizeConfig) {
		c.MeterProvider = p
	}
}

func defaultSizeConfig() sizeConfig {
	return sizeConfig{
		MaxSizeBytes:   DefaultMaxSizeBytes,
		MaxBackups:     DefaultMaxBackups,
		FileMode:       DefaultFileMode,
		RenameAttempts: 1,
	}
}

func (c *sizeConfig) setErr(err error) {
	if c.err == nil {
		c.err = err
	}
}

// validate 校验配置，所有错误都包装 ErrInvalidConfig
func (c *sizeConfig) validate() error {
	if c.err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, c.err)
	}
	if c.MaxSizeBytes <= 0 {
		return fmt.Errorf("%w: %w: got %d, want > 0", ErrInvalidConfig, ErrInvalidMaxSize, c.MaxSizeBytes)
	}
	if c.MaxBackups < 0 {
		return fmt.Errorf("%w: %w: got %d, want >= 0", ErrInvalidConfig, ErrInvalidMaxBackups, c.MaxBackups)
	}
	if c.FileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: %w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidConfig, ErrInvalidFileMode, c.FileMode)
	}
	return nil
}

func newSizeConfig(opts []SizeOption) (sizeConfig, error) {
	cfg := defaultSizeConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = DefaultFileMode
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.renameFn == nil {
		cfg.renameFn = os.Rename
	}
	return cfg, nil
}
