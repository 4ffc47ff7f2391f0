package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 检测路径是否包含空字节。
// Linux 内核在空字节处截断路径，Go 看到的路径与实际操作的路径会不一致。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 检测路径中是否有恰好为 ".." 的路径段。
// "/" 与 "\" 都视为分隔符；"app..log" 这类文件名不会误判。
func hasDotDotSegment(path string) bool {
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// SanitizePath 对日志文件路径做格式净化并规范化。
//
// 拒绝空路径、空字节、尾随分隔符（目录）以及规范化后仍残留的 ".." 段
// （只可能出现在相对路径开头，如 "../x.log"）。绝对路径中的 ".." 由
// filepath.Clean 正常折叠。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// 必须在 Clean 之前检查，Clean 会去掉尾部斜杠
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// ResolvePath 净化路径并解析为绝对路径（相对路径基于当前工作目录）。
func ResolvePath(filename string) (string, error) {
	cleaned, err := SanitizePath(filename)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", filename, err)
	}
	return abs, nil
}

// SplitName 将文件路径拆分为目录、文件名前缀（不含扩展名）和扩展名。
//
//	SplitName("/var/log/app.log") // "/var/log", "app", ".log"
//	SplitName("/var/log/app")     // "/var/log", "app", ""
func SplitName(filename string) (dir, stem, ext string) {
	dir = filepath.Dir(filename)
	base := filepath.Base(filename)
	ext = filepath.Ext(base)
	stem = strings.TrimSuffix(base, ext)
	return dir, stem, ext
}
