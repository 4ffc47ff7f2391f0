package xsize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// 单位倍数
const (
	KiB int64 = 1 << 10
	MiB int64 = 1 << 20
	GiB int64 = 1 << 30
)

var specPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)([kmg])$`)

// Parse 将容量规格字符串解析为字节数。
//
// 小数系数的结果向零截断。结果溢出 int64 时同样返回 [ErrInvalidSizeSpec]。
func Parse(spec string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	m := specPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSizeSpec, spec)
	}

	var mult int64
	switch m[2] {
	case "k":
		mult = KiB
	case "m":
		mult = MiB
	case "g":
		mult = GiB
	default:
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidSizeSpec, spec)
	}

	// 整数系数走精确路径，避免 float64 在大数时丢精度
	if !strings.Contains(m[1], ".") {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n > math.MaxInt64/mult {
			return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSizeSpec, spec)
		}
		return n * mult, nil
	}

	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSizeSpec, spec)
	}
	v := f * float64(mult)
	if v >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSizeSpec, spec)
	}
	return int64(v), nil
}

// ParseAny 接收已是数值的字节数或容量规格字符串。
//
// 支持所有整数类型、整数值的 float64（JSON 数字）以及 string。
// 负数、非整数浮点数和其他类型返回 [ErrInvalidSizeSpec]。
func ParseAny(v any) (int64, error) {
	switch x := v.(type) {
	case string:
		return Parse(x)
	case int:
		return nonNegative(int64(x))
	case int8:
		return nonNegative(int64(x))
	case int16:
		return nonNegative(int64(x))
	case int32:
		return nonNegative(int64(x))
	case int64:
		return nonNegative(x)
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return fromUint(x)
	case float64:
		if x != math.Trunc(x) || x < 0 || x >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidSizeSpec, x)
		}
		return int64(x), nil
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidSizeSpec, v)
	}
}

func nonNegative(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative size %d", ErrInvalidSizeSpec, n)
	}
	return n, nil
}

func fromUint(n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows", ErrInvalidSizeSpec, n)
	}
	return int64(n), nil
}

// Format 返回字节数的可读表示（如 "5.0 KiB"），负数按 0 处理。
func Format(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
