// Package xsize 解析人类可读的容量规格（如 "5k"、"5m"、"5g"）。
//
// # 语法
//
// 字符串必须匹配 `^(\d+(\.\d+)?)([kmg])$`（大小写不敏感，首尾空白会被忽略）：
//
//	Parse("5k")   // 5120
//	Parse("2M")   // 2097152
//	Parse("1.5k") // 1536（小数系数截断为整数字节）
//	Parse("5")    // ErrInvalidSizeSpec：缺少单位
//
// 单位均为二进制倍数：k=1024、m=1024²、g=1024³。
//
// 已经是数值的字节数通过 [ParseAny] 接收，适用于 koanf 反序列化出的
// int/float64 等类型。
package xsize
