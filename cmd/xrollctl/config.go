package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/xroll/pkg/config/xconf"
	"github.com/omeyang/xroll/pkg/observability/xrotate"
	"github.com/omeyang/xroll/pkg/util/xsize"
)

// 轮转后端
const (
	backendNative     = "native"
	backendLumberjack = "lumberjack"
)

// errUnknownBackend backend 取值无效
var errUnknownBackend = errors.New("unknown backend")

// fileConfig 配置文件结构
//
//	rotate:
//	  file: /var/log/app/app.log
//	  max_size: 5m
//	  max_backups: 2
//	log:
//	  level: info
type fileConfig struct {
	Rotate rotateConfig `koanf:"rotate"`
	Log    logConfig    `koanf:"log"`
}

type rotateConfig struct {
	File string `koanf:"file"`

	// MaxSize 整数字节数或带单位的规格（"5k"、"10m"）
	MaxSize any `koanf:"max_size"`

	// MaxBackups nil 时使用 xrotate.DefaultMaxBackups；0 表示不保留归档
	MaxBackups *int `koanf:"max_backups"`

	// FileMode YAML 中的 0644 会被解析为八进制整数；字符串按八进制解析
	FileMode any `koanf:"file_mode"`

	RenameAttempts int           `koanf:"rename_attempts"`
	RenameDelay    time.Duration `koanf:"rename_delay"`
	Backend        string        `koanf:"backend"`

	// RotateCron robfig/cron 格式的强制轮转计划，如 "0 0 * * *" 或 "@hourly"
	RotateCron string `koanf:"rotate_cron"`
}

type logConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`

	// File 非空时诊断日志写入按大小轮转的文件，而不是 stderr
	File       string `koanf:"file"`
	MaxSize    string `koanf:"max_size"`
	MaxBackups int    `koanf:"max_backups"`
}

// loadConfig 读取配置文件；path 为空时返回零值配置
func loadConfig(path string) (xconf.Config, fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return nil, fc, nil
	}
	cfg, err := xconf.New(path)
	if err != nil {
		return nil, fc, err
	}
	fc, err = decodeConfig(cfg)
	return cfg, fc, err
}

func decodeConfig(cfg xconf.Config) (fileConfig, error) {
	var fc fileConfig
	if err := cfg.Unmarshal("", &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// parseMaxSize 纯数字字符串按字节数处理，其余交给 xsize.ParseAny
func parseMaxSize(v any) (int64, error) {
	if s, ok := v.(string); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n, nil
		}
	}
	return xsize.ParseAny(v)
}

func parseFileMode(v any) (os.FileMode, error) {
	switch m := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(m), 8, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: file_mode %q: %w", xrotate.ErrInvalidConfig, m, err)
		}
		return os.FileMode(n), nil
	default:
		n, err := xsize.ParseAny(m)
		if err != nil {
			return 0, fmt.Errorf("%w: file_mode %v: %w", xrotate.ErrInvalidConfig, m, err)
		}
		return os.FileMode(n), nil
	}
}

// options 将配置转换为 xrotate 选项
func (rc rotateConfig) options(extra ...xrotate.SizeOption) ([]xrotate.SizeOption, error) {
	var opts []xrotate.SizeOption
	if rc.MaxSize != nil {
		n, err := parseMaxSize(rc.MaxSize)
		if err != nil {
			return nil, err
		}
		opts = append(opts, xrotate.WithMaxSizeBytes(n))
	}
	if rc.MaxBackups != nil {
		opts = append(opts, xrotate.WithMaxBackups(*rc.MaxBackups))
	}
	mode, err := parseFileMode(rc.FileMode)
	if err != nil {
		return nil, err
	}
	if mode != 0 {
		opts = append(opts, xrotate.WithFileMode(mode))
	}
	if rc.RenameAttempts > 0 {
		opts = append(opts, xrotate.WithRenameRetry(rc.RenameAttempts, rc.RenameDelay))
	}
	return append(opts, extra...), nil
}

// newRotator 按 backend 创建轮转器
func (rc rotateConfig) newRotator(extra ...xrotate.SizeOption) (xrotate.Rotator, error) {
	if rc.File == "" {
		return nil, errors.New("no log file given (use --file or rotate.file)")
	}
	opts, err := rc.options(extra...)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(rc.Backend) {
	case "", backendNative:
		return xrotate.NewSizeRotator(rc.File, opts...)
	case backendLumberjack:
		return xrotate.NewLumberjack(rc.File, opts...)
	default:
		return nil, fmt.Errorf("%w %q (want %s or %s)", errUnknownBackend, rc.Backend, backendNative, backendLumberjack)
	}
}

// maxBackups 返回生效的保留数量
func (rc rotateConfig) maxBackups() int {
	if rc.MaxBackups == nil {
		return xrotate.DefaultMaxBackups
	}
	return *rc.MaxBackups
}
