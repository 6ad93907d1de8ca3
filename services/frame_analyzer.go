package services

import (
	"fmt"

	"github.com/classattend/attendancebackend/vision"
)

// CaptureAnalyzer is the pipeline-backed FrameAnalyzer used during
// registration capture: decode, enhance, detect, pick the most confident
// face, align, estimate pose, run the quality gate.
type CaptureAnalyzer struct {
	preprocessor *vision.Preprocessor
	detector     *vision.MultiScaleDetector
	aligner      *vision.FaceAligner
	gate         *vision.QualityGate
}

// Ensure CaptureAnalyzer implements FrameAnalyzer
var _ FrameAnalyzer = (*CaptureAnalyzer)(nil)

// NewCaptureAnalyzer creates an analyzer over the shared vision components
func NewCaptureAnalyzer(preprocessor *vision.Preprocessor, detector *vision.MultiScaleDetector, aligner *vision.FaceAligner, gate *vision.QualityGate) *CaptureAnalyzer {
	return &CaptureAnalyzer{
		preprocessor: preprocessor,
		detector:     detector,
		aligner:      aligner,
		gate:         gate,
	}
}

// AnalyzeFrame processes one encoded still frame. A frame with no detected
// face is not an error; FaceFound is false and the caller discards it.
func (c *CaptureAnalyzer) AnalyzeFrame(imageData []byte) (*FrameAnalysis, error) {
	img, err := vision.DecodeImageBytes(imageData)
	if err != nil {
		return nil, fmt.Errorf("frame decode failed: %w", err)
	}
	defer img.Close()

	enhanced := c.preprocessor.Enhance(img)
	if enhanced.Ptr() != img.Ptr() {
		defer enhanced.Close()
	}

	faces := c.detector.DetectAll(enhanced)
	if len(faces) == 0 {
		return &FrameAnalysis{FaceFound: false}, nil
	}

	// multiple faces in a capture frame: use the most confident detection
	primary := faces[0]
	for _, face := range faces[1:] {
		if face.Score > primary.Score {
			primary = face
		}
	}

	aligned, _, err := c.aligner.Align(enhanced, primary)
	if err != nil {
		return nil, fmt.Errorf("frame alignment failed: %w", err)
	}
	defer aligned.Close()

	report := c.gate.Check(aligned)
	pose := vision.EstimateHeadPose(primary.Landmarks, enhanced.Cols(), enhanced.Rows())

	alignedJPEG, err := vision.EncodeJPEG(aligned)
	if err != nil {
		return nil, fmt.Errorf("aligned crop encode failed: %w", err)
	}

	return &FrameAnalysis{
		FaceFound:   true,
		Confidence:  primary.Score,
		Pose:        pose,
		Quality:     report,
		AlignedJPEG: alignedJPEG,
	}, nil
}

// CaptureEmbedder adapts the embedding client to the encoded-crop contract
// the liveness validator uses
type CaptureEmbedder struct {
	embedder vision.FaceEmbedder
}

// Ensure CaptureEmbedder implements FrameEmbedder
var _ FrameEmbedder = (*CaptureEmbedder)(nil)

// NewCaptureEmbedder wraps an embedding client
func NewCaptureEmbedder(embedder vision.FaceEmbedder) *CaptureEmbedder {
	return &CaptureEmbedder{embedder: embedder}
}

// EmbedAligned decodes an aligned crop and extracts its embedding
func (c *CaptureEmbedder) EmbedAligned(alignedJPEG []byte) ([]float32, error) {
	aligned, err := vision.DecodeImageBytes(alignedJPEG)
	if err != nil {
		return nil, fmt.Errorf("aligned crop decode failed: %w", err)
	}
	defer aligned.Close()
	return c.embedder.Embed(aligned)
}
