package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 配置接口
//
// 只封装加载、反序列化和重载；其余读取操作直接使用 Client() 返回的 koanf 实例。
type Config interface {
	// Client 返回当前的 koanf 实例。Reload 之后旧实例仍可读，但内容已过期。
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置反序列化到 target，path 为空表示整个配置
	Unmarshal(path string, target any) error

	// Reload 重新读取文件；从字节创建的 Config 返回 ErrNotReloadable。
	// 解析失败时保留旧配置。
	Reload() error

	// Path 配置文件路径，从字节创建时为空
	Path() string

	Format() Format
}
