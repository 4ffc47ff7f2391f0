package xrotate

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Archive 目录中属于某个日志序列的一个归档文件
type Archive struct {
	// Path 归档的完整路径
	Path string
	// Time 从文件名解析出的轮转时间
	Time time.Time
}

// PruneResult 一次清理的结果
type PruneResult struct {
	// Kept 保留的归档（从新到旧）
	Kept []Archive
	// Removed 已删除的归档
	Removed []Archive
	// Err 单个文件删除失败的汇总（errors.Join），每项都包装了 ErrPruneFailed。
	// 删除失败不会阻止其余文件的清理。
	Err error
}

// removeFn 测试注入点，非并发安全。
var removeFn = os.Remove

// ListArchives 列出 dir 中属于 stem/ext 序列的归档，按时间从新到旧排序。
//
// 文件名符合 "stem-*.ext" 但中间部分无法解析为时间戳的文件不会出现在结果中。
// 时间戳相同的归档按文件名降序排列，保证每次调用顺序确定。
func ListArchives(dir, stem, ext string) ([]Archive, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("xrotate: read dir %s: %w", dir, err)
	}

	prefix := stem + "-"
	var archives []Archive
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		t, ok := ParseArchiveTime(name, stem, ext)
		if !ok {
			continue
		}
		archives = append(archives, Archive{Path: filepath.Join(dir, name), Time: t})
	}

	slices.SortFunc(archives, func(a, b Archive) int {
		if c := b.Time.Compare(a.Time); c != 0 {
			return c
		}
		return cmp.Compare(b.Path, a.Path)
	})
	return archives, nil
}

// Prune 保留最新的 maxBackups 个归档，删除其余归档。
//
// maxBackups 为 0 时删除全部可识别的归档；负数视为 0。
// 无法解析时间戳的文件永远不会被删除。目录读取失败时返回错误；
// 单个文件删除失败记录在 PruneResult.Err 中，不作为返回的 error。
func Prune(dir, stem, ext string, maxBackups int) (PruneResult, error) {
	archives, err := ListArchives(dir, stem, ext)
	if err != nil {
		return PruneResult{}, err
	}

	maxBackups = max(maxBackups, 0)
	if len(archives) <= maxBackups {
		return PruneResult{Kept: archives}, nil
	}

	res := PruneResult{Kept: archives[:maxBackups]}
	var errs []error
	for _, a := range archives[maxBackups:] {
		if err := removeFn(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrPruneFailed, a.Path, err))
			continue
		}
		res.Removed = append(res.Removed, a)
	}
	res.Err = errors.Join(errs...)
	return res, nil
}
