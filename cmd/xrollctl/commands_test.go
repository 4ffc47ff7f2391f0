package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xroll/pkg/config/xconf"
	"github.com/omeyang/xroll/pkg/observability/xlog"
	"github.com/omeyang/xroll/pkg/observability/xrotate"
	"github.com/omeyang/xroll/pkg/util/xsize"
)

// runCLI 运行命令，返回退出码、stdout 和 stderr
func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"xrollctl"}, args...),
		strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// records 生成 n 条 90 字节的记录
func records(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%-89s\n", fmt.Sprintf("record %04d", i))
	}
	return sb.String()
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestParseSizeCommand(t *testing.T) {
	code, out, _ := runCLI(t, "", "parse-size", "5k", "1.5m", "2G")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "5k\t5120\t5.0 KiB")
	assert.Contains(t, out, "1.5m\t1572864\t")
	assert.Contains(t, out, "2G\t2147483648\t")
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")

	tests := []struct {
		name string
		args []string
	}{
		{"容量规格无效", []string{"parse-size", "5x"}},
		{"parse-size 缺少参数", []string{"parse-size"}},
		{"write 缺少文件", []string{"write"}},
		{"write 阈值无效", []string{"write", "-f", file, "--max-size", "5x"}},
		{"write 阈值为零", []string{"write", "-f", file, "--max-size", "0"}},
		{"write 保留数为负", []string{"write", "-f", file, "--max-backups", "-1"}},
		{"write 后端未知", []string{"write", "-f", file, "--backend", "zstd"}},
		{"write cron 无效", []string{"write", "-f", file, "--rotate-cron", "every day"}},
		{"watch 缺少配置", []string{"write", "-f", file, "--watch"}},
		{"未知 flag", []string{"write", "--nope"}},
		{"prune 缺少文件", []string{"prune"}},
		{"list 缺少文件", []string{"list"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, "x\n", tt.args...)
			assert.Equal(t, 2, code)
		})
	}
}

func TestWriteEndToEnd(t *testing.T) {
	tests := []struct {
		name          string
		records       int
		wantArchives  int
		wantLiveLines int
	}{
		{"一次轮转", 100, 1, 43},
		{"多次轮转并清理", 300, 2, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			file := filepath.Join(dir, "app.log")

			code, _, stderr := runCLI(t, records(tt.records),
				"write", "-f", file, "--max-size", "5120", "--max-backups", "2")
			require.Equal(t, 0, code, stderr)

			archives, err := xrotate.ListArchives(dir, "app", ".log")
			require.NoError(t, err)
			assert.Len(t, archives, tt.wantArchives)

			lines := readLines(t, file)
			require.Len(t, lines, tt.wantLiveLines)
			assert.Equal(t, fmt.Sprintf("record %04d", tt.records-1), strings.TrimSpace(lines[len(lines)-1]))
		})
	}
}

func TestWriteStats(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	code, out, stderr := runCLI(t, records(300),
		"write", "-f", file, "-s", "5k", "-n", "2", "--stats")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, out, "xrotate.rotations.total 5\n")
	assert.Contains(t, out, "xrotate.archives.pruned.total 3\n")
	assert.Contains(t, out, fmt.Sprintf("xrotate.bytes.written %d\n", 300*90))
}

func TestWriteWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logs", "app.log")
	cfgPath := filepath.Join(dir, "xroll.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
rotate:
  file: %s
  max_size: 5k
  max_backups: 1
  file_mode: 0600
  rename_attempts: 2
  rename_delay: 1ms
log:
  level: debug
  format: json
`, file)), 0o600))

	code, _, stderr := runCLI(t, records(300), "-c", cfgPath, "write")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, `"msg":"input finished"`)

	archives, err := xrotate.ListArchives(filepath.Dir(file), "app", ".log")
	require.NoError(t, err)
	assert.Len(t, archives, 1)

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// 命令行 flag 覆盖配置文件
	code, _, stderr = runCLI(t, records(300), "-c", cfgPath, "write", "-n", "3")
	require.Equal(t, 0, code, stderr)
	archives, err = xrotate.ListArchives(filepath.Dir(file), "app", ".log")
	require.NoError(t, err)
	assert.Len(t, archives, 3)
}

func TestWriteDiagnosticLogFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "xroll.json")
	logFile := filepath.Join(dir, "xrollctl.log")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(
		`{"rotate":{"file":%q},"log":{"level":"debug","file":%q,"max_size":"1m","max_backups":1}}`,
		filepath.Join(dir, "app.log"), logFile)), 0o600))

	code, _, stderr := runCLI(t, "one\ntwo\n", "-c", cfgPath, "write")
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "input finished")
	assert.Contains(t, string(data), "count=2")
}

func TestWriteLumberjackBackend(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	code, _, stderr := runCLI(t, "a\nb\nlast line without newline",
		"write", "-f", file, "--backend", "lumberjack")
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nlast line without newline", string(data))
}

func TestWriteScheduledRotation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")

	pr, pw := io.Pipe()
	var stdout, stderr bytes.Buffer
	done := make(chan int, 1)
	go func() {
		done <- run(context.Background(),
			[]string{"xrollctl", "write", "-f", file, "--rotate-cron", "@every 1s", "-n", "10"},
			pr, &stdout, &stderr)
	}()

	_, err := io.WriteString(pw, "before\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		archives, err := xrotate.ListArchives(dir, "app", ".log")
		return err == nil && len(archives) > 0
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, pw.Close())
	select {
	case code := <-done:
		assert.Equal(t, 0, code, stderr.String())
	case <-time.After(5 * time.Second):
		t.Fatal("write did not exit after EOF")
	}
}

func TestListAndPrune(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(file, []byte("live\n"), 0o644))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		p := xrotate.ArchiveName(file, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, os.WriteFile(p, bytes.Repeat([]byte("x"), 1024), 0o644))
	}

	code, out, stderr := runCLI(t, "", "list", file)
	require.Equal(t, 0, code, stderr)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "2024-01-01T03:00:00Z"))
	assert.Contains(t, lines[0], "1.0 KiB")
	assert.Contains(t, lines[4], "4 archives")

	code, out, stderr = runCLI(t, "", "prune", "--max-backups", "1", file)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "kept 1, removed 3")

	archives, err := xrotate.ListArchives(dir, "app", ".log")
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.True(t, base.Add(3*time.Hour).Equal(archives[0].Time))

	// 当前文件不受影响
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "live\n", string(data))
}

func TestParseMaxSize(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{"纯数字字符串", "5120", 5120, false},
		{"带单位", "5k", 5120, false},
		{"整数", 2048, 2048, false},
		{"JSON 数字", float64(4096), 4096, false},
		{"无效单位", "5x", 0, true},
		{"类型不支持", true, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMaxSize(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, xsize.ErrInvalidSizeSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFileMode(t *testing.T) {
	tests := []struct {
		in      any
		want    os.FileMode
		wantErr bool
	}{
		{nil, 0, false},
		{"0640", 0o640, false},
		{"600", 0o600, false},
		{420, 0o644, false},
		{"rw-r--r--", 0, true},
		{-1, 0, true},
	}
	for _, tt := range tests {
		got, err := parseFileMode(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, xrotate.ErrInvalidConfig, "%v", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

// stubWriter 按预设错误返回的写入器
type stubWriter struct {
	err   error
	lines []string
}

func (s *stubWriter) Write(p []byte) (int, error) {
	s.lines = append(s.lines, string(p))
	return len(p), s.err
}

func TestPump(t *testing.T) {
	t.Run("按行写入", func(t *testing.T) {
		w := &stubWriter{}
		n, err := pump(context.Background(), strings.NewReader("a\nb\nc"), w, func(error) {})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.Equal(t, []string{"a\n", "b\n", "c"}, w.lines)
	})

	t.Run("轮转失败继续写入", func(t *testing.T) {
		w := &stubWriter{err: fmt.Errorf("%w: disk busy", xrotate.ErrRotationFailed)}
		var warned int
		n, err := pump(context.Background(), strings.NewReader("a\nb\n"), w, func(error) { warned++ })
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Equal(t, 2, warned)
	})

	t.Run("其他写错误中止", func(t *testing.T) {
		boom := errors.New("disk full")
		w := &stubWriter{err: boom}
		pr, pw := io.Pipe()
		go func() {
			_, _ = io.WriteString(pw, "a\nb\n")
			_ = pw.Close()
		}()
		_, err := pump(context.Background(), pr, w, func(error) {})
		assert.ErrorIs(t, err, boom)
		_ = pr.Close()
	})

	t.Run("取消后返回", func(t *testing.T) {
		pr, pw := io.Pipe()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := pump(ctx, pr, &stubWriter{}, func(error) {})
		assert.NoError(t, err)
		// 结束阻塞中的读取 goroutine
		_ = pw.Close()
	})
}

type closeCounter struct {
	xrotate.Rotator
	closed int
}

func (c *closeCounter) Close() error { c.closed++; return nil }

func TestReloadSwapsRotator(t *testing.T) {
	dir := t.TempDir()
	logger, cleanup, err := xlog.New().SetOutput(io.Discard).Build()
	require.NoError(t, err)
	defer cleanup()

	prev := &closeCounter{}
	w := &writeCmd{logger: logger, out: &swapRotator{cur: prev}}

	next := filepath.Join(dir, "next.log")
	cfg, err := xconf.NewFromBytes([]byte(fmt.Sprintf("rotate:\n  file: %s\n", next)), xconf.FormatYAML)
	require.NoError(t, err)
	w.reload(cfg, nil)
	assert.Equal(t, 1, prev.closed)

	_, err = w.out.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, w.out.Close())
	data, err := os.ReadFile(next)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	// 无效配置保留当前轮转器
	bad, err := xconf.NewFromBytes([]byte("rotate:\n  file: x.log\n  max_size: 0\n"), xconf.FormatYAML)
	require.NoError(t, err)
	current := w.out.cur
	w.reload(bad, nil)
	assert.Same(t, current, w.out.cur)

	w.reload(nil, errors.New("parse failed"))
	assert.Same(t, current, w.out.cur)
}

func TestReloadKeepsCommandLineOverrides(t *testing.T) {
	dir := t.TempDir()
	flagFile := filepath.Join(dir, "flag.log")
	other := filepath.Join(dir, "other.log")

	logger, cleanup, err := xlog.New().SetOutput(io.Discard).Build()
	require.NoError(t, err)
	defer cleanup()

	// 通过真实的 flag 解析得到覆盖函数
	prev := &closeCounter{}
	var w *writeCmd
	cmd := createWriteCommand()
	cmd.Writer, cmd.ErrWriter = io.Discard, io.Discard
	cmd.Action = func(_ context.Context, c *cli.Command) error {
		w = &writeCmd{logger: logger, out: &swapRotator{cur: prev}, overrides: writeOverrides(c)}
		return nil
	}
	require.NoError(t, cmd.Run(context.Background(), []string{"write", "-f", flagFile, "--max-backups", "0"}))
	require.NotNil(t, w)

	tests := []struct {
		name string
		yaml string
	}{
		{"配置指向其他文件", fmt.Sprintf("rotate:\n  file: %s\n  max_backups: 5\n", other)},
		{"配置未指定文件", "rotate:\n  max_size: 1k\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := xconf.NewFromBytes([]byte(tt.yaml), xconf.FormatYAML)
			require.NoError(t, err)

			current := w.out.cur
			w.reload(cfg, nil)
			require.NotSame(t, current, w.out.cur)

			rot, ok := w.out.cur.(*xrotate.SizeRotator)
			require.True(t, ok)
			assert.Equal(t, flagFile, rot.Filename())

			_, err = w.out.Write([]byte("hello\n"))
			require.NoError(t, err)
		})
	}
	require.NoError(t, w.out.Close())

	_, err = os.Stat(other)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, []string{"hello", "hello"}, readLines(t, flagFile))
}

func TestWriteReportsDiagnosticLogCloseError(t *testing.T) {
	orig := newLoggerFn
	t.Cleanup(func() { newLoggerFn = orig })
	newLoggerFn = func(lc logConfig, stderr io.Writer) (xlog.Logger, func() error, error) {
		logger, cleanup, err := orig(lc, stderr)
		if err != nil {
			return nil, nil, err
		}
		return logger, func() error {
			return errors.Join(cleanup(), errors.New("disk gone"))
		}, nil
	}

	file := filepath.Join(t.TempDir(), "app.log")
	code, _, stderr := runCLI(t, "line\n", "write", "-f", file)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "close diagnostic log")
	assert.Contains(t, stderr, "disk gone")

	// 记录本身已写入
	assert.Equal(t, []string{"line"}, readLines(t, file))
}
