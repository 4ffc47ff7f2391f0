package xrotate

import "errors"

// 配置校验错误（构造时同步返回，不重试）
var (
	// ErrInvalidConfig 配置无效；具体原因通过 errors.Is 进一步判断
	ErrInvalidConfig = errors.New("xrotate: invalid config")

	// ErrEmptyFilename 文件名为空（同时满足 errors.Is(err, ErrInvalidConfig)）
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidMaxSize 最大文件大小必须 > 0
	ErrInvalidMaxSize = errors.New("xrotate: invalid max size")

	// ErrInvalidMaxBackups MaxBackups 必须 >= 0
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")
)

// 运行时错误
var (
	// ErrRotationFailed 轮转时重命名或重新打开失败，由 Write/Rotate 返回给调用方。
	// 轮转器仍会尝试在原路径继续写入（降级为不轮转）。
	ErrRotationFailed = errors.New("xrotate: rotation failed")

	// ErrPruneFailed 删除过期归档失败。仅通过 OnError 回调上报，不影响写入。
	ErrPruneFailed = errors.New("xrotate: prune failed")

	// ErrSizeProbe 读取已有日志文件大小失败。仅通过 OnError 回调上报，按 0 处理。
	ErrSizeProbe = errors.New("xrotate: size probe failed")
)
