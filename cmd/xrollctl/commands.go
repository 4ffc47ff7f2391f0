package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xroll/pkg/observability/xrotate"
	"github.com/omeyang/xroll/pkg/util/xfile"
	"github.com/omeyang/xroll/pkg/util/xsize"
)

// exitError 命令已完成输出，只需设置退出码
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 参数错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// isCLIUsageError 识别 urfave/cli 自身产生的参数错误（未知 flag、flag 值无效等）
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, p := range []string{
		"flag provided but not defined",
		"invalid value",
		"flag needs an argument",
		"No help topic for",
		"Required flag",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func createCommands() []*cli.Command {
	return []*cli.Command{
		createWriteCommand(),
		createPruneCommand(),
		createListCommand(),
		createParseSizeCommand(),
	}
}

// rotateFlags write/prune/list 共用的 flag，显式指定时覆盖配置文件
func rotateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "当前日志文件路径",
		},
		&cli.StringFlag{
			Name:    "max-size",
			Aliases: []string{"s"},
			Usage:   "轮转阈值，字节数或 5k/10m/1g",
		},
		&cli.IntFlag{
			Name:    "max-backups",
			Aliases: []string{"n"},
			Usage:   "保留的归档数量（0 表示不保留）",
		},
	}
}

// resolveConfig 读取配置文件并用命令行 flag 覆盖
func resolveConfig(cmd *cli.Command) (fileConfig, error) {
	_, fc, err := loadConfig(cmd.String("config"))
	if err != nil {
		return fc, err
	}
	applyFlags(cmd, &fc)
	return fc, nil
}

func applyFlags(cmd *cli.Command, fc *fileConfig) {
	if cmd.IsSet("file") {
		fc.Rotate.File = cmd.String("file")
	}
	if f := cmd.Args().First(); f != "" && fc.Rotate.File == "" {
		fc.Rotate.File = f
	}
	if cmd.IsSet("max-size") {
		fc.Rotate.MaxSize = cmd.String("max-size")
	}
	if cmd.IsSet("max-backups") {
		n := cmd.Int("max-backups")
		fc.Rotate.MaxBackups = &n
	}
}

func createPruneCommand() *cli.Command {
	return &cli.Command{
		Name:      "prune",
		Usage:     "按保留数量清理归档",
		ArgsUsage: "[file]",
		Flags:     rotateFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			fc, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if fc.Rotate.File == "" {
				return usagef("prune 需要日志文件路径")
			}
			return cmdPrune(cmd, fc.Rotate.File, fc.Rotate.maxBackups())
		},
	}
}

func cmdPrune(cmd *cli.Command, file string, maxBackups int) error {
	if maxBackups < 0 {
		return usagef("max-backups 不能为负数: %d", maxBackups)
	}
	path, err := xfile.ResolvePath(file)
	if err != nil {
		return usagef("%v", err)
	}
	dir, stem, ext := xfile.SplitName(path)
	res, err := xrotate.Prune(dir, stem, ext, maxBackups)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	for _, a := range res.Removed {
		fmt.Fprintf(w, "removed %s\n", a.Path)
	}
	fmt.Fprintf(w, "kept %d, removed %d\n", len(res.Kept), len(res.Removed))
	if res.Err != nil {
		fmt.Fprintln(cmd.Root().ErrWriter, res.Err)
		return &exitError{code: 1}
	}
	return nil
}

func createListCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "列出归档（从新到旧）",
		ArgsUsage: "[file]",
		Flags:     rotateFlags()[:1],
		Action: func(_ context.Context, cmd *cli.Command) error {
			fc, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if fc.Rotate.File == "" {
				return usagef("list 需要日志文件路径")
			}
			return cmdList(cmd, fc.Rotate.File)
		},
	}
}

func cmdList(cmd *cli.Command, file string) error {
	path, err := xfile.ResolvePath(file)
	if err != nil {
		return usagef("%v", err)
	}
	dir, stem, ext := xfile.SplitName(path)
	archives, err := xrotate.ListArchives(dir, stem, ext)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
	var total int64
	for _, a := range archives {
		size := "-"
		if info, err := os.Stat(a.Path); err == nil {
			size = xsize.Format(info.Size())
			total += info.Size()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Time.Format(time.RFC3339Nano), size, filepath.Base(a.Path))
	}
	fmt.Fprintf(tw, "%d archives\t%s\t\n", len(archives), xsize.Format(total))
	return tw.Flush()
}

func createParseSizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse-size",
		Usage:     "解析容量规格，输出字节数",
		ArgsUsage: "<spec>...",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return usagef("parse-size 需要至少一个参数")
			}
			w := cmd.Root().Writer
			for _, spec := range cmd.Args().Slice() {
				n, err := xsize.Parse(spec)
				if err != nil {
					return usagef("%v", err)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", spec, n, xsize.Format(n))
			}
			return nil
		},
	}
}

// setupSignalHandler 第一次信号取消 context，第二次信号直接退出（130 = 128 + SIGINT）
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}

// errUsage 判断是否应按参数错误处理
func errUsage(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, xrotate.ErrInvalidConfig) || errors.Is(err, xsize.ErrInvalidSizeSpec) ||
		errors.Is(err, errUnknownBackend) {
		return &usageError{msg: err.Error()}
	}
	return err
}
