package vision

import (
	"math"
	"testing"
)

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b BoundingBox
		want float64
	}{
		{
			name: "identical boxes",
			a:    BoundingBox{0, 0, 10, 10},
			b:    BoundingBox{0, 0, 10, 10},
			want: 1.0,
		},
		{
			name: "disjoint boxes",
			a:    BoundingBox{0, 0, 10, 10},
			b:    BoundingBox{20, 20, 30, 30},
			want: 0.0,
		},
		{
			name: "half overlap",
			a:    BoundingBox{0, 0, 10, 10},
			b:    BoundingBox{5, 0, 15, 10},
			want: 50.0 / 150.0,
		},
		{
			name: "zero-area boxes",
			a:    BoundingBox{5, 5, 5, 5},
			b:    BoundingBox{5, 5, 5, 5},
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IoU(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("IoU(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// symmetry
			if rev := IoU(tt.b, tt.a); math.Abs(rev-got) > 1e-9 {
				t.Errorf("IoU is not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestBoundingBoxClip(t *testing.T) {
	box := BoundingBox{-10, -5, 200, 150}
	clipped := box.Clip(100, 100)
	if clipped.X1 != 0 || clipped.Y1 != 0 || clipped.X2 != 100 || clipped.Y2 != 100 {
		t.Errorf("Clip produced %v, want box within [0,0,100,100]", clipped)
	}

	inside := BoundingBox{10, 10, 50, 50}
	if got := inside.Clip(100, 100); got != inside {
		t.Errorf("Clip changed an in-bounds box: %v", got)
	}
}

func TestDeduplicateFaces(t *testing.T) {
	faces := []DetectedFace{
		{Box: BoundingBox{0, 0, 100, 100}, Score: 0.9},
		{Box: BoundingBox{5, 5, 105, 105}, Score: 0.8},  // heavy overlap with first
		{Box: BoundingBox{200, 200, 300, 300}, Score: 0.7},
		{Box: BoundingBox{0, 0, 100, 100}, Score: 0.6},  // exact duplicate of first
	}

	deduped := DeduplicateFaces(faces, 0.5)
	if len(deduped) != 2 {
		t.Fatalf("expected 2 faces after dedup, got %d", len(deduped))
	}
	if deduped[0].Score != 0.9 {
		t.Errorf("dedup should keep the first face in order, kept score %v", deduped[0].Score)
	}

	// idempotence: deduplicating an already-deduplicated set changes nothing
	again := DeduplicateFaces(deduped, 0.5)
	if len(again) != len(deduped) {
		t.Errorf("dedup is not idempotent: %d then %d faces", len(deduped), len(again))
	}
	for i := range again {
		if again[i].Box != deduped[i].Box {
			t.Errorf("dedup reordered or replaced face %d", i)
		}
	}
}

func TestDeduplicateFacesEmpty(t *testing.T) {
	if got := DeduplicateFaces(nil, 0.5); len(got) != 0 {
		t.Errorf("expected empty result for nil input, got %v", got)
	}
}
