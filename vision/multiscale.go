package vision

import (
	"log"

	"gocv.io/x/gocv"
)

// MultiScaleOptions are the tunables for the multi-scale detection pass
type MultiScaleOptions struct {
	Scales            []int   // working resolutions for the primary pass
	BaseThreshold     float64 // confidence floor for the primary pass
	RetryScales       []int   // smaller resolutions for the recovery pass
	RetryThreshold    float64 // relaxed confidence floor during recovery
	DensityRetryFloor int     // fewer accumulated faces than this triggers recovery
	IoUThreshold      float64 // overlap at or above this is a duplicate
}

// MultiScaleDetector produces a deduplicated set of detections for one image,
// robust to the scale and exposure variance of classroom photographs.
//
// Single-scale detection misses small or distant faces; the density-triggered
// low-threshold retry trades precision for recall only when the primary pass
// looks anomalously sparse, which bounds the false-positive cost.
type MultiScaleDetector struct {
	detector FaceDetector
	opts     MultiScaleOptions
}

// NewMultiScaleDetector wraps a single-pass detector with multi-scale
// orchestration and duplicate suppression
func NewMultiScaleDetector(detector FaceDetector, opts MultiScaleOptions) *MultiScaleDetector {
	if len(opts.Scales) == 0 {
		opts.Scales = []int{640, 1024, 1280}
	}
	if len(opts.RetryScales) == 0 {
		opts.RetryScales = []int{320, 480}
	}
	if opts.IoUThreshold <= 0 {
		opts.IoUThreshold = 0.5
	}
	if opts.DensityRetryFloor <= 0 {
		opts.DensityRetryFloor = 20
	}
	if opts.RetryThreshold <= 0 {
		opts.RetryThreshold = 0.1
	}
	return &MultiScaleDetector{detector: detector, opts: opts}
}

// DetectAll runs the full multi-scale pass over one image. A zero-face result
// is a valid outcome, logged as a warning, never an error.
func (m *MultiScaleDetector) DetectAll(img gocv.Mat) []DetectedFace {
	if img.Empty() {
		return nil
	}

	var accumulated []DetectedFace
	for _, scale := range m.opts.Scales {
		faces := m.detector.Detect(img, scale, m.opts.BaseThreshold)
		accumulated = append(accumulated, faces...)
	}

	// a sparse primary pass on a classroom photo usually means small or
	// blurred faces fell under the base threshold
	if len(accumulated) < m.opts.DensityRetryFloor {
		log.Printf("detection(multiscale): only %d faces at base threshold, retrying smaller scales at %.2f",
			len(accumulated), m.opts.RetryThreshold)
		for _, scale := range m.opts.RetryScales {
			faces := m.detector.Detect(img, scale, m.opts.RetryThreshold)
			accumulated = append(accumulated, faces...)
		}
	}

	unique := DeduplicateFaces(accumulated, m.opts.IoUThreshold)

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())
	for i := range unique {
		unique[i].Box = unique[i].Box.Clip(imgW, imgH)
	}

	if len(unique) == 0 {
		log.Printf("detection(multiscale): no faces detected in %dx%d image", img.Cols(), img.Rows())
	} else {
		log.Printf("detection(multiscale): %d unique faces from %d raw detections", len(unique), len(accumulated))
	}
	return unique
}

// DeduplicateFaces greedily keeps a face only if its IoU with every
// already-kept face is below the threshold. Running it on an already
// deduplicated set returns the same set.
func DeduplicateFaces(faces []DetectedFace, iouThreshold float64) []DetectedFace {
	var unique []DetectedFace
	for _, face := range faces {
		duplicate := false
		for _, kept := range unique {
			if IoU(face.Box, kept.Box) >= iouThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, face)
		}
	}
	return unique
}
