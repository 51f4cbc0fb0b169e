package utils

import "math"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged.
func NormalizeL2(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(sum))
	for i := range x {
		x[i] *= norm
	}
}

// StableHash returns the 31-multiplier polynomial hash of s over its UTF-16 code units,
// wrapped to int32. The value never depends on process state, so it is safe to persist.
func StableHash(s string) int32 {
	var h int32
	for _, r := range s {
		if r > 0xFFFF {
			// surrogate pair
			r -= 0x10000
			h = 31*h + int32(0xD800+(r>>10))
			h = 31*h + int32(0xDC00+(r&0x3FF))
			continue
		}
		h = 31*h + int32(r)
	}
	return h
}

// AbsMod returns |v| mod n for n > 0.
func AbsMod(v int64, n int) int {
	if v < 0 {
		v = -v
	}
	return int(v % int64(n))
}
