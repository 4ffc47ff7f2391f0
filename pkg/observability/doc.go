// Package observability 日志相关的子包。
//
//   - xlog: 基于 log/slog 的结构化日志，可直接输出到轮转文件
//   - xrotate: 按大小轮转日志文件，清理过期归档
package observability
