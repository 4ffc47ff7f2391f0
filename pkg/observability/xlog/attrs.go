package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/xroll/pkg/util/xsize"
)

// 常用属性 key
const (
	KeyError     = "error"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyPath      = "path"
	KeySize      = "size"
	KeyComponent = "component"
	KeyOperation = "operation"
)

// Err 错误属性；err 为 nil 时返回空属性（被 slog 忽略）
//
//	logger.Error(ctx, "rotate failed", xlog.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 耗时属性，人类可读格式（如 "1m30s"）
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Path 文件路径属性
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Size 字节数属性，以 IEC 单位输出（如 "5.0 KiB"）
func Size(n int64) slog.Attr {
	return slog.String(KeySize, xsize.Format(n))
}

func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}
