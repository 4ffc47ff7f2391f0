// xrollctl 按大小轮转日志文件的命令行工具。
//
// 用法:
//
//	xrollctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   配置文件（YAML/JSON），也可通过 XROLL_CONFIG 指定
//
// 命令:
//
//	write          从标准输入逐行读取并写入轮转文件
//	prune          按保留数量清理归档
//	list           列出归档（从新到旧）
//	parse-size     解析容量规格（如 5k、10m）
//
// 退出码:
//
//	0: 成功
//	1: 执行失败
//	2: 参数错误
//
// 示例:
//
//	app | xrollctl write -f /var/log/app/app.log --max-size 10m --max-backups 3
//	xrollctl -c /etc/xroll.yaml write --watch
//	xrollctl list /var/log/app/app.log
//	xrollctl prune --max-backups 1 /var/log/app/app.log
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	os.Exit(run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func createApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "xrollctl",
		Usage:   "按大小轮转日志文件",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json）",
				Sources: cli.EnvVars("XROLL_CONFIG"),
			},
		},
		Commands:  createCommands(),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		// 由 run() 统一映射退出码，不让 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := createApp(stdin, stdout, stderr)
	if err := app.Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
