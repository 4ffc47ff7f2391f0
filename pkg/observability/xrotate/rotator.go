package xrotate

import "io"

// 编译时断言：Rotator 接口是 io.WriteCloser 的超集
var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器接口
//
// 隐式实现 [io.WriteCloser]，可直接作为 xlog 或任何 io.Writer 的输出目标。
// 所有实现都必须是并发安全的。
//
// 约定：
//   - Write 以调用方提供的字节为一条记录，不追加换行符
//   - Close 释放文件句柄；之后的 Write 会重新惰性打开文件
//   - Rotate 可以在任意时刻调用
type Rotator interface {
	// Write 写入一条记录，触发轮转条件时先轮转
	Write(p []byte) (n int, err error)

	// Close 关闭当前文件；未打开时为空操作
	Close() error

	// Rotate 手动触发轮转（不检查大小阈值）
	Rotate() error
}
