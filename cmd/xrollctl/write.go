package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xroll/pkg/config/xconf"
	"github.com/omeyang/xroll/pkg/observability/xlog"
	"github.com/omeyang/xroll/pkg/observability/xrotate"
)

func createWriteCommand() *cli.Command {
	flags := append(rotateFlags(),
		&cli.StringFlag{
			Name:  "backend",
			Usage: "轮转实现：native 或 lumberjack",
		},
		&cli.StringFlag{
			Name:  "rotate-cron",
			Usage: "按计划强制轮转（cron 表达式，如 \"0 0 * * *\" 或 \"@hourly\"）",
		},
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "监视配置文件，变更后以新配置重建轮转器（需要 --config）",
		},
		&cli.BoolFlag{
			Name:  "stats",
			Usage: "退出时输出轮转统计",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "诊断日志级别（debug/info/warn/error）",
		},
	)
	return &cli.Command{
		Name:      "write",
		Aliases:   []string{"w"},
		Usage:     "从标准输入逐行读取并写入轮转文件",
		ArgsUsage: "[file]",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, fc, err := loadConfig(cmd.String("config"))
			if err != nil {
				return err
			}
			overrides := writeOverrides(cmd)
			overrides(&fc)
			if fc.Rotate.File == "" {
				return usagef("write 需要日志文件路径（--file 或 rotate.file）")
			}
			if cmd.Bool("watch") && cfg == nil {
				return usagef("--watch 需要 --config")
			}

			w := &writeCmd{
				in:        cmd.Root().Reader,
				stderr:    cmd.Root().ErrWriter,
				fc:        fc,
				overrides: overrides,
				stats:     cmd.Bool("stats"),
				stdout:    cmd.Root().Writer,
			}
			if cmd.Bool("watch") {
				w.watchCfg = cfg
			}
			return w.run(ctx)
		},
	}
}

// writeOverrides 返回把命令行参数覆盖到配置上的函数，启动和每次重新加载配置时都会调用
func writeOverrides(cmd *cli.Command) func(*fileConfig) {
	return func(fc *fileConfig) {
		applyFlags(cmd, fc)
		if cmd.IsSet("backend") {
			fc.Rotate.Backend = cmd.String("backend")
		}
		if cmd.IsSet("rotate-cron") {
			fc.Rotate.RotateCron = cmd.String("rotate-cron")
		}
		if cmd.IsSet("log-level") {
			fc.Log.Level = cmd.String("log-level")
		}
	}
}

// writeCmd write 子命令的运行状态
type writeCmd struct {
	in             io.Reader
	stdout, stderr io.Writer
	fc             fileConfig
	watchCfg       xconf.Config
	stats          bool

	// overrides 命令行参数优先于配置文件，重新加载后同样生效
	overrides func(*fileConfig)

	logger xlog.Logger
	out    *swapRotator
	meter  *rotateStats
}

func (w *writeCmd) run(ctx context.Context) (err error) {
	logger, cleanup, err := newLoggerFn(w.fc.Log, w.stderr)
	if err != nil {
		return usagef("%v", err)
	}
	defer func() {
		if cerr := cleanup(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close diagnostic log: %w", cerr))
		}
	}()
	w.logger = logger

	if w.stats {
		w.meter = newRotateStats()
		defer w.meter.shutdown()
	}

	rot, err := w.newRotator(w.fc.Rotate)
	if err != nil {
		return errUsage(err)
	}
	w.out = &swapRotator{cur: rot}

	var sched *cron.Cron
	if spec := w.fc.Rotate.RotateCron; spec != "" {
		sched = cron.New()
		if _, err := sched.AddFunc(spec, w.forceRotate); err != nil {
			_ = w.out.Close()
			return usagef("invalid rotate cron %q: %v", spec, err)
		}
	}

	var watcher *xconf.Watcher
	if w.watchCfg != nil {
		watcher, err = xconf.Watch(w.watchCfg, w.reload)
		if err != nil {
			_ = w.out.Close()
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// 输入结束后停止其他 goroutine
		defer cancel()
		n, err := pump(gctx, w.in, w.out, w.warn)
		w.logger.Debug(gctx, "input finished", xlog.Count(n))
		return err
	})
	if sched != nil {
		sched.Start()
		g.Go(func() error {
			<-gctx.Done()
			<-sched.Stop().Done()
			return nil
		})
	}
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}

	err = g.Wait()
	if closeErr := w.out.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if w.meter != nil {
		w.meter.print(context.Background(), w.stdout)
	}
	return err
}

func (w *writeCmd) newRotator(rc rotateConfig) (xrotate.Rotator, error) {
	opts := []xrotate.SizeOption{xrotate.WithOnError(w.onRotateError)}
	if w.meter != nil {
		opts = append(opts, xrotate.WithMeterProvider(w.meter.provider))
	}
	return rc.newRotator(opts...)
}

// onRotateError 接收轮转器内部告警（清理失败、大小探测失败）
func (w *writeCmd) onRotateError(err error) {
	w.logger.Warn(context.Background(), "rotator warning", xlog.Err(err))
}

func (w *writeCmd) warn(err error) {
	w.logger.Warn(context.Background(), "rotation failed, record kept in live file", xlog.Err(err))
}

func (w *writeCmd) forceRotate() {
	start := time.Now()
	if err := w.out.Rotate(); err != nil {
		w.logger.Error(context.Background(), "scheduled rotation failed", xlog.Err(err))
		return
	}
	w.logger.Info(context.Background(), "scheduled rotation", xlog.Duration(time.Since(start)))
}

// reload 配置文件变更后用新配置重建轮转器；失败时保留旧的
func (w *writeCmd) reload(cfg xconf.Config, err error) {
	ctx := context.Background()
	if err != nil {
		w.logger.Warn(ctx, "config reload failed", xlog.Err(err))
		return
	}
	fc, err := decodeConfig(cfg)
	if err != nil {
		w.logger.Warn(ctx, "config decode failed", xlog.Err(err))
		return
	}
	if w.overrides != nil {
		w.overrides(&fc)
	}
	rot, err := w.newRotator(fc.Rotate)
	if err != nil {
		w.logger.Warn(ctx, "new rotator rejected", xlog.Err(err))
		return
	}
	if err := w.out.swap(rot); err != nil {
		w.logger.Warn(ctx, "close previous rotator", xlog.Err(err))
	}
	w.logger.Info(ctx, "rotator reconfigured", xlog.Path(fc.Rotate.File))
}

// swapRotator 允许在运行中替换轮转器；替换时等待进行中的写入结束
type swapRotator struct {
	mu  sync.RWMutex
	cur xrotate.Rotator
}

func (s *swapRotator) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Write(p)
}

func (s *swapRotator) Rotate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Rotate()
}

func (s *swapRotator) Close() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Close()
}

func (s *swapRotator) swap(next xrotate.Rotator) error {
	s.mu.Lock()
	prev := s.cur
	s.cur = next
	s.mu.Unlock()
	return prev.Close()
}

// pump 逐行读取 in 并写入 out，每行（含换行符）为一条记录，返回写入的行数。
//
// 轮转失败不中断（记录已写入当前文件），交给 warn；其他写错误直接返回。
// 读取在单独的 goroutine 中进行，ctx 取消后 pump 立即返回；阻塞在 Read 上的 goroutine 要等 in 关闭或进程退出。
func pump(ctx context.Context, in io.Reader, out io.Writer, warn func(error)) (int64, error) {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		br := bufio.NewReader(in)
		for {
			line, err := br.ReadBytes('\n')
			if len(line) > 0 {
				select {
				case lines <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				readErr <- err
				return
			}
		}
	}()

	var n int64
	for {
		select {
		case <-ctx.Done():
			return n, nil
		case line := <-lines:
			if _, err := out.Write(line); err != nil {
				if !errors.Is(err, xrotate.ErrRotationFailed) {
					return n, fmt.Errorf("write record: %w", err)
				}
				warn(err)
			}
			n++
		case err := <-readErr:
			if err != nil {
				return n, fmt.Errorf("read input: %w", err)
			}
			return n, nil
		}
	}
}

// newLoggerFn 测试注入点，非并发安全。
var newLoggerFn = newLogger

// newLogger 诊断日志默认写 stderr；配置了 log.file 时写入按大小轮转的文件
func newLogger(lc logConfig, stderr io.Writer) (xlog.Logger, func() error, error) {
	b := xlog.New().
		SetOutput(stderr).
		SetLevelString(lc.Level).
		SetFormat(lc.Format).
		SetAttrs(xlog.Component("xrollctl"))
	if lc.File != "" {
		var opts []xrotate.SizeOption
		if lc.MaxSize != "" {
			opts = append(opts, xrotate.WithMaxSizeSpec(lc.MaxSize))
		}
		if lc.MaxBackups > 0 {
			opts = append(opts, xrotate.WithMaxBackups(lc.MaxBackups))
		}
		b.SetRotation(lc.File, opts...)
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return logger, cleanup, nil
}
