// Package xrotate 提供按大小触发的日志文件轮转。
//
// Rotator 接口定义了轮转器的核心行为（Write/Close/Rotate），所有实现并发安全。
//
// # 实现
//
//   - [NewSizeRotator]: 内置实现。写入前检查阈值，轮转后按归档时间清理
//   - [NewLumberjack]: 基于 lumberjack v2，接受相同的选项
//
// # 文件命名
//
// 当前文件始终是构造时给定的路径；归档与其位于同一目录：
//
//	/var/log/app.log
//	/var/log/app-2024-03-01T08-30-15.250Z.log
//
// 时间戳为 UTC、毫秒精度，冒号替换为连字符（见 [ArchiveTimeFormat]）。
// 清理只依赖文件名：符合 "app-*.log" 但时间戳无法解析的文件永远不会被删除。
//
// # 错误
//
// 配置错误在构造时返回并包装 [ErrInvalidConfig]。轮转失败以 [ErrRotationFailed]
// 返回给 Write/Rotate 的调用方，记录仍会写入原文件。归档删除失败（[ErrPruneFailed]）
// 和已有文件大小探测失败（[ErrSizeProbe]）只通过 WithOnError 回调上报。
//
// # 记录格式
//
// 每次 Write 的字节即一条记录，轮转器不追加换行符，由调用方（如 slog handler）负责。
package xrotate
