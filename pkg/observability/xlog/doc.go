// Package xlog 基于 log/slog 的结构化日志。
//
// # 创建 Logger
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/app/app.log", xrotate.WithMaxSizeSpec("5m")).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// Builder 记录第一个配置错误并在 Build 时返回。SetOutput、SetRotation、
// SetRotator 设置的是同一个输出目标，以最后一次为准。
//
// # 轮转输出
//
// SetRotation 使用 [xrotate.NewSizeRotator]：每条日志作为一条记录写入，
// 写入前检查大小阈值。轮转失败时日志仍会落盘，错误经 SetOnError 回调通知，
// 并计入 [ErrorCount]。
//
// # 级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)，可通过
// [ParseLevel] 从字符串解析；Level 实现了 TextMarshaler/TextUnmarshaler。
// 派生 logger 共享父级的级别，SetLevel 对所有派生 logger 同时生效。
package xlog
