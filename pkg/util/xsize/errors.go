package xsize

import "errors"

// ErrInvalidSizeSpec 容量规格格式无效（缺少单位、系数非数字、未知单位等）。
var ErrInvalidSizeSpec = errors.New("xsize: invalid size spec")
