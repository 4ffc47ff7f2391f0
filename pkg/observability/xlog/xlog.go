// xlog.go 定义日志接口：Logger、Leveler、LoggerWithLevel
//
// Logger 只接受 slog.Attr，并要求显式传入 context；
// 级别控制单独放在 Leveler 中，Build() 返回二者的组合。
package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带固定属性的派生 Logger，与父级共享级别
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger，之后的属性都归入该分组
	WithGroup(name string) Logger
}

// Leveler 运行时级别控制
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level

	// Enabled 报告 level 是否会被输出，可用于跳过昂贵的属性构造
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel Logger + Leveler，Build() 的返回类型
type LoggerWithLevel interface {
	Logger
	Leveler
}
