package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("got %v, want [0.6 0.8]", v)
	}
	zero := []float32{0, 0, 0}
	NormalizeL2(zero)
	for _, x := range zero {
		if x != 0 {
			t.Fatalf("zero vector must stay zero, got %v", zero)
		}
	}
}

func TestStableHash(t *testing.T) {
	tests := []struct {
		in   string
		want int32
	}{
		{"", 0},
		{"a", 97},
		{"ab", 97*31 + 98},
		{"hello", 99162322},
	}
	for _, tt := range tests {
		if got := StableHash(tt.in); got != tt.want {
			t.Errorf("StableHash(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if StableHash("supplier") != StableHash("supplier") {
		t.Error("hash must be stable")
	}
}

func TestAbsMod(t *testing.T) {
	if AbsMod(-7, 5) != 2 || AbsMod(7, 5) != 2 || AbsMod(0, 5) != 0 {
		t.Error("AbsMod mismatch")
	}
	if got := AbsMod(int64(math.MinInt32), 128); got != 0 {
		t.Errorf("AbsMod(MinInt32, 128) = %d", got)
	}
}
