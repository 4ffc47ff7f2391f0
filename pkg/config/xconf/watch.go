package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖间隔
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 配置文件变更后调用；err 非 nil 表示重载失败（旧配置保留）或监视出错
type WatchCallback func(cfg Config, err error)

// Watcher 监视配置文件并在变更后重载
type Watcher struct {
	cfg      *koanfConfig
	fw       *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
}

type WatchOption func(*Watcher)

// WithDebounce 在 d 内的连续变更只触发一次重载，d <= 0 时使用 DefaultDebounce
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watch 创建监视器，需调用 Run 开始监视。
//
// 监视的是文件所在目录而不是文件本身：编辑器保存时常常先写临时文件再 rename，
// 直接监视文件会在第一次保存后丢失后续事件。
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if callback == nil {
		return nil, errors.New("xconf: nil watch callback")
	}
	kc, ok := cfg.(*koanfConfig)
	if !ok {
		return nil, fmt.Errorf("xconf: cannot watch %T", cfg)
	}
	if kc.path == "" {
		return nil, ErrNotReloadable
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	dir := filepath.Dir(kc.path)
	if err := fw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch %s: %w", dir, err), fw.Close())
	}

	w := &Watcher{cfg: kc, fw: fw, callback: callback, debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run 阻塞监视直到 ctx 取消，返回前释放 fsnotify 资源。
// 回调在 Run 所在的 goroutine 中执行，Run 返回后不会再有回调。
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	name := filepath.Base(w.cfg.path)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name ||
				!ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.callback(w.cfg, w.cfg.Reload())

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.callback(w.cfg, fmt.Errorf("%w: %w", ErrWatch, err))
		}
	}
}

// Close 释放资源，用于创建后未调用 Run 的情况
func (w *Watcher) Close() error {
	return w.fw.Close()
}
