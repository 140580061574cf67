package util

import (
	"fmt"
	"math"
	"strconv"
)

// ParsePositiveInt 解析路径参数中的正整数
func ParsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q is not a positive integer", ErrInvalidRequest, s)
	}
	return n, nil
}

// ParseUint 解析 ID 参数
func ParseUint(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrInvalidRequest, s)
	}
	return uint(id), nil
}

// Round2 保留两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
