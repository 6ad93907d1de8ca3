package vision

import (
	"math"
	"testing"
)

func TestCosineSimilarityBounds(t *testing.T) {
	a := NormalizeEmbedding([]float32{1, 2, 3})
	b := NormalizeEmbedding([]float32{-1, -2, -3})

	// self-similarity of a unit vector is 1
	if sim := CosineSimilarity(a, a); math.Abs(sim-1) > 1e-6 {
		t.Errorf("self similarity = %v, want 1", sim)
	}

	// opposite vectors clip to 0 rather than going negative
	if sim := CosineSimilarity(a, b); sim != 0 {
		t.Errorf("opposite vector similarity = %v, want 0", sim)
	}

	// orthogonal unit vectors
	x := []float32{1, 0}
	y := []float32{0, 1}
	if sim := CosineSimilarity(x, y); sim != 0 {
		t.Errorf("orthogonal similarity = %v, want 0", sim)
	}
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"mismatched lengths", []float32{1, 0}, []float32{1, 0, 0}},
		{"both empty", nil, nil},
		{"one empty", []float32{1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if sim := CosineSimilarity(tt.a, tt.b); sim != 0 {
				t.Errorf("similarity = %v, want 0", sim)
			}
		})
	}
}

func TestNormalizeEmbedding(t *testing.T) {
	v := NormalizeEmbedding([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("normalized = %v, want [0.6 0.8]", v)
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("norm squared = %v, want 1", norm)
	}

	// zero vector passes through unchanged
	zero := []float32{0, 0, 0}
	got := NormalizeEmbedding(zero)
	for i, x := range got {
		if x != 0 {
			t.Errorf("zero vector changed at %d: %v", i, x)
		}
	}
}

func TestAverageEmbeddings(t *testing.T) {
	avg := AverageEmbeddings([][]float32{
		{1, 0},
		{0, 1},
	})
	if avg == nil {
		t.Fatal("expected non-nil average")
	}

	// mean is (0.5, 0.5), renormalized to (1/sqrt2, 1/sqrt2)
	want := float32(1 / math.Sqrt2)
	if math.Abs(float64(avg[0]-want)) > 1e-6 || math.Abs(float64(avg[1]-want)) > 1e-6 {
		t.Errorf("average = %v, want [%v %v]", avg, want, want)
	}

	if got := AverageEmbeddings(nil); got != nil {
		t.Errorf("empty input should yield nil, got %v", got)
	}
	if got := AverageEmbeddings([][]float32{{1, 0}, {1}}); got != nil {
		t.Errorf("mismatched lengths should yield nil, got %v", got)
	}
}
