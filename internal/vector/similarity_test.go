package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_SymmetricAndBounded(t *testing.T) {
	vecs := [][]float32{
		{0.3, -1.2, 4.4, 0},
		{9, 9, -9, 1},
		{0.001, 0.002, 0.003, 0.004},
		{-5, 0, 2, 7},
	}
	for i := range vecs {
		self := CosineSimilarity(vecs[i], vecs[i])
		if math.Abs(self-1) > 1e-6 {
			t.Errorf("self similarity of %v = %v", vecs[i], self)
		}
		for j := range vecs {
			ab := CosineSimilarity(vecs[i], vecs[j])
			ba := CosineSimilarity(vecs[j], vecs[i])
			if ab != ba {
				t.Errorf("not symmetric: %v vs %v", ab, ba)
			}
			if ab < -1 || ab > 1 {
				t.Errorf("out of bounds: %v", ab)
			}
		}
	}
}

func TestL2Norm(t *testing.T) {
	if got := L2Norm([]float32{3, 4}); math.Abs(got-5) > 1e-6 {
		t.Errorf("L2Norm = %v, want 5", got)
	}
}
