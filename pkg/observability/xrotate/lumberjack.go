package xrotate

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xroll/pkg/util/xfile"
	"github.com/omeyang/xroll/pkg/util/xsize"
)

// lumberjackRotator 基于 lumberjack 的 Rotator 实现
//
// 与 SizeRotator 的差异：
//   - 阈值按 MiB 向上取整（lumberjack 只支持 MB 粒度）
//   - 单次写入超过阈值时返回错误
//   - MaxBackups 为 0 表示保留全部归档
//   - 清理与压缩在后台 goroutine 中异步执行
//   - 备份文件名不带时区后缀（ParseArchiveTime 同样能识别）
type lumberjackRotator struct {
	logger   *lumberjack.Logger
	path     string
	fileMode os.FileMode
	onError  func(error)

	mu          sync.Mutex
	modeApplied bool
}

// NewLumberjack 创建基于 lumberjack 的轮转器，接受与 [NewSizeRotator] 相同的选项。
//
// WithRenameRetry、WithMeterProvider 对该后端无效。
func NewLumberjack(filename string, opts ...SizeOption) (Rotator, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, ErrEmptyFilename)
	}
	cfg, err := newSizeConfig(opts)
	if err != nil {
		return nil, err
	}
	path, err := xfile.ResolvePath(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := xfile.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("xrotate: create dir for %s: %w", path, err)
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    megabytesCeil(cfg.MaxSizeBytes),
			MaxBackups: cfg.MaxBackups,
		},
		path:     path,
		fileMode: cfg.FileMode,
		onError:  cfg.OnError,
	}, nil
}

// megabytesCeil 字节数按 MiB 向上取整，至少为 1
func megabytesCeil(n int64) int {
	return int(max((n+xsize.MiB-1)/xsize.MiB, 1))
}

// Write 实现 io.Writer 接口
func (r *lumberjackRotator) Write(p []byte) (int, error) {
	n, err := r.logger.Write(p)
	if err != nil {
		return n, err
	}
	r.ensureFileMode(false)
	return n, nil
}

// Close 关闭当前文件；之后的 Write 会重新打开
func (r *lumberjackRotator) Close() error {
	return r.logger.Close()
}

// Rotate 手动触发轮转
func (r *lumberjackRotator) Rotate() error {
	if err := r.logger.Rotate(); err != nil {
		return fmt.Errorf("%w: %w", ErrRotationFailed, err)
	}
	// 新文件沿用旧文件权限；首次调整失败时在这里补上
	r.ensureFileMode(true)
	return nil
}

// ensureFileMode 尽力把当前文件权限调整为 fileMode，失败只上报。
//
// lumberjack 只在文件不存在时以 0600 新建；轮转时新文件复制旧文件的权限，
// 所以首次调整成功后，自动轮转产生的文件同样是 fileMode。
func (r *lumberjackRotator) ensureFileMode(force bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.modeApplied && !force {
		return
	}
	info, err := os.Stat(r.path)
	if err != nil {
		r.report(err)
		return
	}
	if info.Mode().Perm() != r.fileMode {
		//#nosec G302 -- 日志文件权限由调用方配置决定
		if err := os.Chmod(r.path, r.fileMode); err != nil {
			r.report(err)
			return
		}
	}
	r.modeApplied = true
}

func (r *lumberjackRotator) report(err error) {
	if err != nil && r.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.onError(err)
	}
}
