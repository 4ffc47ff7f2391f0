package xrotate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/omeyang/xroll/pkg/util/xfile"
)

// maxNameProbes 归档重名时最多向后推进的毫秒数
const maxNameProbes = 1000

// engine 持有当前日志文件句柄并跟踪本代写入的字节数。
//
// 两个状态：file == nil 为 Closed，否则为 Open。
// 所有方法都要求调用方持有 SizeRotator.mu。
type engine struct {
	path    string
	mode    os.FileMode
	maxSize int64

	file *os.File
	size int64

	// lastArchive 上一次成功归档使用的时间戳（毫秒精度），归档时间戳只增不减
	lastArchive time.Time

	renameAttempts uint
	renameDelay    time.Duration

	now      func() time.Time
	renameFn func(oldpath, newpath string) error
	report   func(error)
}

func (e *engine) isOpen() bool { return e.file != nil }

// ensureOpen Closed → Open。
//
// 创建父目录，以已有文件大小作为 size 初值（探测失败时上报 ErrSizeProbe 并按 0 计），
// 然后以追加模式打开文件。
func (e *engine) ensureOpen() error {
	if e.file != nil {
		return nil
	}
	if err := xfile.EnsureDir(e.path); err != nil {
		return fmt.Errorf("xrotate: create dir for %s: %w", e.path, err)
	}

	size, err := xfile.ProbeSize(e.path)
	if err != nil {
		e.report(fmt.Errorf("%w: %s: %w", ErrSizeProbe, e.path, err))
		size = 0
	}

	f, err := e.open()
	if err != nil {
		return err
	}
	e.file = f
	e.size = size
	return nil
}

func (e *engine) open() (*os.File, error) {
	//#nosec G304 -- 路径已在构造时经 xfile.ResolvePath 规范化
	f, err := os.OpenFile(e.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, e.mode)
	if err != nil {
		return nil, fmt.Errorf("xrotate: open %s: %w", e.path, err)
	}
	return f, nil
}

// write 追加一条记录并累加 size
func (e *engine) write(p []byte) (int, error) {
	n, err := e.file.Write(p)
	e.recordWrite(n)
	if err != nil {
		return n, fmt.Errorf("xrotate: write %s: %w", e.path, err)
	}
	return n, nil
}

func (e *engine) recordWrite(n int) {
	e.size += int64(n)
}

func (e *engine) shouldRotate() bool {
	return e.size >= e.maxSize
}

// rotate 关闭当前文件，重命名为归档，并在原路径重新打开一个空文件。
//
// 重命名失败时仍在原路径重新打开（降级为继续追加），返回 ErrRotationFailed；
// 重新打开也失败时回到 Closed，下一次写入会重新走 ensureOpen。
func (e *engine) rotate() (string, error) {
	if err := e.closeFile(); err != nil {
		e.report(fmt.Errorf("xrotate: close %s before rotation: %w", e.path, err))
	}

	archive, at := e.nextArchiveName()
	renameErr := e.renameWithRetry(archive)

	f, openErr := e.open()
	if openErr != nil {
		return "", fmt.Errorf("%w: %w", ErrRotationFailed, errors.Join(renameErr, openErr))
	}
	e.file = f

	if renameErr != nil {
		// 文件可能已被外部删除或替换，以实际大小为准
		if info, err := f.Stat(); err == nil {
			e.size = info.Size()
		}
		return "", fmt.Errorf("%w: rename %s: %w", ErrRotationFailed, e.path, renameErr)
	}

	e.size = 0
	e.lastArchive = at
	return archive, nil
}

// nextArchiveName 返回一个尚不存在的归档路径及其时间戳。
//
// 时间戳至少比上一次归档晚 1ms，清理腾出的旧名字不会被更新的一代复用；
// 重名时继续向后推进 1ms。
func (e *engine) nextArchiveName() (string, time.Time) {
	t := e.now().UTC().Truncate(time.Millisecond)
	if !e.lastArchive.IsZero() && !t.After(e.lastArchive) {
		t = e.lastArchive.Add(time.Millisecond)
	}
	name := ArchiveName(e.path, t)
	for i := 0; i < maxNameProbes; i++ {
		if _, err := os.Lstat(name); err != nil {
			return name, t
		}
		t = t.Add(time.Millisecond)
		name = ArchiveName(e.path, t)
	}
	return name, t
}

func (e *engine) renameWithRetry(dst string) error {
	return retry.New(
		retry.Attempts(max(e.renameAttempts, 1)),
		retry.Delay(e.renameDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		// 源文件不存在时重试没有意义
		retry.RetryIf(func(err error) bool { return !errors.Is(err, fs.ErrNotExist) }),
	).Do(func() error {
		return e.renameFn(e.path, dst)
	})
}

func (e *engine) closeFile() error {
	if e.file == nil {
		return nil
	}
	err := e.file.Close()
	e.file = nil
	return err
}
