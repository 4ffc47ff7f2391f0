// Package xfile 提供日志轮转所需的文件系统辅助函数。
//
//   - [SanitizePath]: 路径格式净化（空路径、空字节、相对路径穿越、目录路径）
//   - [ResolvePath]: 净化后解析为绝对路径
//   - [EnsureDir]: 确保文件的父目录存在
//   - [ProbeSize]: 读取已有文件大小，文件不存在时返回 0
//
// 预定义错误变量支持 [errors.Is] 判断：
//
//	_, err := xfile.SanitizePath("../etc/passwd")
//	if errors.Is(err, xfile.ErrPathTraversal) {
//	    // 处理路径穿越
//	}
package xfile
