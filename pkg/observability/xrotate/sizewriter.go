package xrotate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/omeyang/xroll/pkg/util/xfile"
)

// 编译时检查
var _ Rotator = (*SizeRotator)(nil)

// SizeRotator 按大小轮转的日志写入器
//
// 每次 Write 按固定顺序执行：惰性打开 → 达到阈值则轮转 → 清理多余归档 →
// 追加记录。阈值在写入前按已写字节数判断，因此当前文件最多超出阈值一条记录的长度。
//
// 归档与当前文件位于同一目录，命名为 stem-<时间戳>.ext（见 [ArchiveName]）。
// 同一路径只应由一个 SizeRotator 实例写入；跨进程共享同一文件的行为未定义。
type SizeRotator struct {
	mu  sync.Mutex
	cfg sizeConfig

	eng       *engine
	dir       string
	stem, ext string

	metrics *rotatorMetrics
}

// NewSizeRotator 创建按大小轮转的写入器
//
// filename 会被规范化为绝对路径。构造时不打开文件，首次 Write 时才创建目录和文件。
// 配置错误返回包装了 [ErrInvalidConfig] 的错误。
func NewSizeRotator(filename string, opts ...SizeOption) (*SizeRotator, error) {
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
	metrics, err := newRotatorMetrics(cfg.MeterProvider, path)
	if err != nil {
		return nil, fmt.Errorf("xrotate: create metrics: %w", err)
	}

	r := &SizeRotator{
		cfg:     cfg,
		metrics: metrics,
	}
	r.dir, r.stem, r.ext = xfile.SplitName(path)
	r.eng = &engine{
		path:           path,
		mode:           cfg.FileMode,
		maxSize:        cfg.MaxSizeBytes,
		renameAttempts: uint(max(cfg.RenameAttempts, 1)),
		renameDelay:    cfg.RenameDelay,
		now:            cfg.now,
		renameFn:       cfg.renameFn,
		report:         r.reportError,
	}
	return r, nil
}

// Filename 返回当前日志文件的绝对路径
func (r *SizeRotator) Filename() string {
	return r.eng.path
}

// Write 写入一条记录
//
// 空记录直接返回 (0, nil)，不打开文件也不触发轮转。
// 轮转失败时记录仍会追加到原文件，返回的 n 为实际写入字节数，
// err 满足 errors.Is(err, ErrRotationFailed)。
func (r *SizeRotator) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.eng.ensureOpen(); err != nil {
		return 0, err
	}

	var rotErr error
	if r.eng.shouldRotate() {
		rotErr = r.rotate()
		if !r.eng.isOpen() {
			return 0, rotErr
		}
	}
	r.prune()

	n, err := r.eng.write(p)
	r.metrics.recordWritten(n)
	if err != nil || rotErr != nil {
		return n, errors.Join(rotErr, err)
	}
	return n, nil
}

// Rotate 立即轮转，不检查大小阈值；之后执行一次清理。
//
// 文件尚未打开时会先打开（已有内容会被归档，空文件也会产生一个空归档）。
func (r *SizeRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.eng.ensureOpen(); err != nil {
		return err
	}
	err := r.rotate()
	r.prune()
	return err
}

// Close 关闭当前文件。未打开时为空操作，可重复调用。
// 之后的 Write 会重新打开文件并以文件现有大小作为初值。
func (r *SizeRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.eng.closeFile(); err != nil {
		return fmt.Errorf("xrotate: close %s: %w", r.eng.path, err)
	}
	return nil
}

func (r *SizeRotator) rotate() error {
	_, err := r.eng.rotate()
	r.metrics.recordRotation(err)
	return err
}

// prune 清理多余归档，所有失败都只通过 OnError 上报
func (r *SizeRotator) prune() {
	res, err := Prune(r.dir, r.stem, r.ext, r.cfg.MaxBackups)
	if err != nil {
		r.reportError(fmt.Errorf("%w: %w", ErrPruneFailed, err))
		return
	}
	r.metrics.recordPruned(len(res.Removed))
	r.reportError(res.Err)
}

// reportError 通过回调上报内部告警，回调 panic 被 recover 隔离
func (r *SizeRotator) reportError(err error) {
	if err != nil && r.cfg.OnError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.cfg.OnError(err)
	}
}
