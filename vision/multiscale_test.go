package vision

import (
	"testing"

	"gocv.io/x/gocv"
)

// detectPass records one Detect invocation
type detectPass struct {
	Resolution int
	MinScore   float64
}

// scriptedDetector returns a fixed number of non-overlapping faces per call
// and records the passes it was asked to run
type scriptedDetector struct {
	facesPerCall int
	passes       []detectPass
}

func (s *scriptedDetector) Detect(img gocv.Mat, resolution int, minScore float64) []DetectedFace {
	s.passes = append(s.passes, detectPass{Resolution: resolution, MinScore: minScore})
	faces := make([]DetectedFace, s.facesPerCall)
	for i := range faces {
		// offset per pass so nothing deduplicates away
		x := float64(len(s.passes)*100 + i*10)
		faces[i] = DetectedFace{
			Box:   BoundingBox{X1: x, Y1: 0, X2: x + 8, Y2: 8},
			Score: minScore,
		}
	}
	return faces
}

func testImage(t *testing.T) gocv.Mat {
	t.Helper()
	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { img.Close() })
	return img
}

func denseOptions() MultiScaleOptions {
	return MultiScaleOptions{
		Scales:            []int{640, 1024},
		BaseThreshold:     0.3,
		RetryScales:       []int{320, 480},
		RetryThreshold:    0.1,
		DensityRetryFloor: 20,
		IoUThreshold:      0.5,
	}
}

func TestDetectAllSparseResultTriggersRetry(t *testing.T) {
	// 3 faces per pass over 2 primary scales falls under the floor of 20,
	// so both retry scales must run at the relaxed threshold
	stub := &scriptedDetector{facesPerCall: 3}
	detector := NewMultiScaleDetector(stub, denseOptions())

	faces := detector.DetectAll(testImage(t))

	want := []detectPass{
		{640, 0.3}, {1024, 0.3},
		{320, 0.1}, {480, 0.1},
	}
	if len(stub.passes) != len(want) {
		t.Fatalf("ran %d passes %v, want %v", len(stub.passes), stub.passes, want)
	}
	for i, pass := range stub.passes {
		if pass != want[i] {
			t.Errorf("pass %d = %+v, want %+v", i, pass, want[i])
		}
	}
	if len(faces) != 12 {
		t.Errorf("got %d faces from 4 passes of 3, want 12", len(faces))
	}
}

func TestDetectAllDenseResultSkipsRetry(t *testing.T) {
	// 10 faces per pass over 2 primary scales meets the floor exactly;
	// the relaxed-threshold pass must not run
	stub := &scriptedDetector{facesPerCall: 10}
	detector := NewMultiScaleDetector(stub, denseOptions())

	faces := detector.DetectAll(testImage(t))

	if len(stub.passes) != 2 {
		t.Fatalf("ran %d passes %v, want the 2 primary scales only", len(stub.passes), stub.passes)
	}
	for _, pass := range stub.passes {
		if pass.MinScore != 0.3 {
			t.Errorf("primary pass ran at %v, want the base threshold", pass.MinScore)
		}
	}
	if len(faces) != 20 {
		t.Errorf("got %d faces, want 20", len(faces))
	}
}

func TestDetectAllClipsToImageBounds(t *testing.T) {
	stub := &overflowDetector{}
	detector := NewMultiScaleDetector(stub, MultiScaleOptions{
		Scales:            []int{640},
		BaseThreshold:     0.3,
		DensityRetryFloor: 1,
	})

	faces := detector.DetectAll(testImage(t))
	if len(faces) != 1 {
		t.Fatalf("got %d faces, want 1", len(faces))
	}
	box := faces[0].Box
	if box.X2 > 640 || box.Y2 > 480 || box.X1 < 0 || box.Y1 < 0 {
		t.Errorf("box %+v not clipped to 640x480", box)
	}
}

// overflowDetector returns one face hanging past the image edge
type overflowDetector struct{}

func (d *overflowDetector) Detect(img gocv.Mat, resolution int, minScore float64) []DetectedFace {
	return []DetectedFace{{
		Box:   BoundingBox{X1: -10, Y1: 400, X2: 700, Y2: 520},
		Score: 0.9,
	}}
}
