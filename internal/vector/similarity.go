package vector

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// CosineSimilarity returns a·b/(|a||b|), clamped to [-1, 1]. It returns 0 when either
// vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na := float64(vek32.Dot(a, a))
	nb := float64(vek32.Dot(b, b))
	if na == 0 || nb == 0 {
		return 0
	}
	sim := float64(vek32.Dot(a, b)) / math.Sqrt(na*nb)
	return math.Max(-1, math.Min(1, sim))
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	return math.Sqrt(float64(vek32.Dot(x, x)))
}
