// Package util 通用工具子包。
//
//   - xfile: 日志文件路径净化、父目录创建、已有文件大小探测
//   - xsize: 容量规格解析（5k、10m、1g）与可读格式化
package util
