// Package mathutil provides small numeric helpers (clamping, min/max,
// overflow-checked arithmetic). Within this module the metric package's
// weight calculation uses it.
package mathutil

import (
	"errors"
	"math"
)

var (
	// ErrOverflow is returned by the checked arithmetic helpers below.
	ErrOverflow = errors.New("overflow")
)

// Add64 returns a + b, detecting overflow.
func Add64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Min returns the smaller of a and b.
func Min[T int | int64 | uint64 | float64](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T int | int64 | uint64 | float64](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Clamp constrains v to [lo, hi].
func Clamp[T int | int64 | uint64 | float64](v, lo, hi T) T {
	return Min(Max(v, lo), hi)
}
