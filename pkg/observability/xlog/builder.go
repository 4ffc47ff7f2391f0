package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xroll/pkg/observability/xrotate"
)

// Builder 日志配置构建器
//
// 遇到第一个配置错误后记录下来，由 Build 返回；Builder 只能使用一次。
type Builder struct {
	output    io.Writer
	levelVar  *slog.LevelVar
	format    string
	addSource bool
	attrs     []slog.Attr
	rotator   xrotate.Rotator
	onError   func(error)
	err       error
}

// New 创建构建器，默认输出到 stderr、Info 级别、text 格式
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// SetOutput 设置输出目标；与 SetRotation/SetRotator 互相覆盖，以最后一次为准
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w == nil {
		b.setErr(errors.New("xlog: nil output"))
		return b
	}
	b.output = w
	b.rotator = nil
	return b
}

func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 以字符串设置级别，见 [ParseLevel]
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.setErr(err)
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空值为 text
func (b *Builder) SetFormat(format string) *Builder {
	switch normalized := strings.ToLower(strings.TrimSpace(format)); normalized {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		b.setErr(fmt.Errorf("xlog: unknown format %q", format))
	}
	return b
}

func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetAttrs 设置每条日志都带的固定属性，Build 时一次性注入 handler
func (b *Builder) SetAttrs(attrs ...slog.Attr) *Builder {
	b.attrs = append(b.attrs, attrs...)
	return b
}

// SetRotation 输出到按大小轮转的文件，opts 透传给 [xrotate.NewSizeRotator]。
//
// 每条日志是一条记录，handler 负责行尾换行。轮转器的内部告警
// （归档清理失败等）不会写回日志，需要时用 xrotate.WithOnError 接收。
func (b *Builder) SetRotation(filename string, opts ...xrotate.SizeOption) *Builder {
	r, err := xrotate.NewSizeRotator(filename, opts...)
	if err != nil {
		b.setErr(fmt.Errorf("xlog: rotation: %w", err))
		return b
	}
	return b.SetRotator(r)
}

// SetRotator 输出到已创建的轮转器（如 xrotate.NewLumberjack 的返回值）。
// cleanup 会负责关闭它。
func (b *Builder) SetRotator(r xrotate.Rotator) *Builder {
	if r == nil {
		b.setErr(errors.New("xlog: nil rotator"))
		return b
	}
	b.rotator = r
	b.output = r
	return b
}

// SetOnError 设置 handler 写失败时的回调
//
// 回调在写日志的 goroutine 中同步执行，应保持轻量。回调内部再次触发的
// 写失败不会重复进入回调。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// Build 构建 Logger
//
// 返回的 cleanup 关闭 SetRotation/SetRotator 设置的轮转器，可重复调用。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(b.output, opts)
	} else {
		handler = slog.NewTextHandler(b.output, opts)
	}
	if len(b.attrs) > 0 {
		handler = handler.WithAttrs(b.attrs)
	}

	logger := &xlogger{
		handler:        handler,
		levelVar:       b.levelVar,
		addSource:      b.addSource,
		onError:        b.onError,
		errorCount:     new(atomic.Uint64),
		inErrorHandler: new(atomic.Bool),
	}
	return logger, b.cleanup(), nil
}

func (b *Builder) cleanup() func() error {
	rotator := b.rotator
	var (
		once sync.Once
		err  error
	)
	return func() error {
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
}
