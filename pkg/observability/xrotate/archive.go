package xrotate

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/omeyang/xroll/pkg/util/xfile"
)

// ArchiveTimeFormat 归档文件名中的时间戳格式：UTC 下的 ISO8601，
// 冒号替换为连字符，保留毫秒精度。
//
// 例如 /var/log/app.log 在 2024-03-01 08:30:15.250 UTC 轮转后得到
// /var/log/app-2024-03-01T08-30-15.250Z.log。
const ArchiveTimeFormat = "2006-01-02T15-04-05.000Z"

// lumberjackTimeFormat lumberjack 的备份时间格式（无时区后缀），
// 解析时一并接受，使两种后端产生的归档属于同一序列。
const lumberjackTimeFormat = "2006-01-02T15-04-05.000"

// ArchiveName 根据日志路径和时间生成归档路径：dir/stem-<时间戳>.ext。
// 时间会先转为 UTC 并截断到毫秒。
func ArchiveName(filename string, t time.Time) string {
	dir, stem, ext := xfile.SplitName(filename)
	return filepath.Join(dir, stem+"-"+t.UTC().Format(ArchiveTimeFormat)+ext)
}

// ParseArchiveTime 从归档文件名中还原轮转时间。
//
// name 可以是文件名或完整路径；stem 为不含扩展名的日志文件名，ext 为扩展名
// （含点，可为空）。前缀 "stem-" 或后缀 ext 不匹配、中间部分不是时间戳时
// 返回 false，表示"不是该序列的归档"，而不是错误。
func ParseArchiveTime(name, stem, ext string) (time.Time, bool) {
	name = filepath.Base(name)
	prefix := stem + "-"
	if len(name) <= len(prefix)+len(ext) ||
		!strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
		return time.Time{}, false
	}

	ts := name[len(prefix) : len(name)-len(ext)]
	for _, layout := range []string{ArchiveTimeFormat, lumberjackTimeFormat} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
