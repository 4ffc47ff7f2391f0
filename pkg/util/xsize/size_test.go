package xsize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want int64
	}{
		{"千字节", "5k", 5120},
		{"兆字节", "2m", 2097152},
		{"吉字节", "1g", 1073741824},
		{"大写单位", "5K", 5120},
		{"小数截断", "1.5k", 1536},
		{"小数截断到整数", "1.0001k", 1024},
		{"首尾空白", "  3m\t", 3 * MiB},
		{"零", "0k", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{"空字符串", ""},
		{"缺少单位", "5"},
		{"系数非数字", "abck"},
		{"未知单位", "5t"},
		{"带 b 后缀", "5kb"},
		{"负数", "-5k"},
		{"单位前空格", "5 k"},
		{"只有小数点", ".5k"},
		{"尾随小数点", "5.k"},
		{"溢出", "99999999999999999999g"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSizeSpec)
		})
	}
}

func TestParseAny(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{"int", 5120, 5120, false},
		{"int64", int64(7), 7, false},
		{"uint32", uint32(9), 9, false},
		{"整数 float64", float64(4096), 4096, false},
		{"字符串", "5k", 5120, false},
		{"负数", -1, 0, true},
		{"小数 float64", 1.5, 0, true},
		{"无单位字符串", "5120", 0, true},
		{"不支持的类型", []byte("5k"), 0, true},
		{"nil", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAny(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSizeSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "5.0 KiB", Format(5120))
	assert.Equal(t, "0 B", Format(-3))
}
