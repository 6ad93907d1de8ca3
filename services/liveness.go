package services

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/classattend/attendancebackend/vision"
)

// Required pose labels for a registration capture session
const (
	PoseCenter    = "center"
	PoseTiltDown  = "tilt_down"
	PoseTurnRight = "turn_right"
	PoseTurnLeft  = "turn_left"
)

// RequiredPoses lists every pose a subject must demonstrate, in the order
// they are reported when missing
var RequiredPoses = []string{PoseCenter, PoseTiltDown, PoseTurnRight, PoseTurnLeft}

// AngleRange is an inclusive [Min, Max] band in degrees
type AngleRange struct {
	Min float64
	Max float64
}

// Contains reports whether v falls inside the inclusive range
func (r AngleRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// PoseRange constrains yaw and pitch for one pose label
type PoseRange struct {
	Yaw   AngleRange
	Pitch AngleRange
}

// DefaultPoseRanges returns the yaw/pitch bands for each required pose
func DefaultPoseRanges() map[string]PoseRange {
	return map[string]PoseRange{
		PoseCenter:    {Yaw: AngleRange{-15, 15}, Pitch: AngleRange{-15, 15}},
		PoseTiltDown:  {Yaw: AngleRange{-15, 15}, Pitch: AngleRange{15, 45}},
		PoseTurnRight: {Yaw: AngleRange{20, 50}, Pitch: AngleRange{-15, 15}},
		PoseTurnLeft:  {Yaw: AngleRange{-50, -20}, Pitch: AngleRange{-15, 15}},
	}
}

// FrameAnalysis is the per-frame output of the capture pipeline: the most
// confident face in the frame, its estimated head pose, the quality report
// of the aligned crop, and the crop itself
type FrameAnalysis struct {
	FaceFound   bool
	Confidence  float64
	Pose        vision.PoseAngles
	Quality     vision.QualityReport
	AlignedJPEG []byte
}

// FrameAnalyzer runs detection, alignment, pose estimation and quality
// checks on one encoded still frame
type FrameAnalyzer interface {
	AnalyzeFrame(imageData []byte) (*FrameAnalysis, error)
}

// FrameEmbedder extracts an embedding from an encoded aligned face crop
type FrameEmbedder interface {
	EmbedAligned(alignedJPEG []byte) ([]float32, error)
}

// PoseEmbedding pairs an extracted embedding with the pose it came from
type PoseEmbedding struct {
	PoseLabel string
	Embedding []float32
}

// LivenessOutcome is the decision for one capture session
type LivenessOutcome struct {
	IsLive        bool                   `json:"is_live"`
	PoseValid     map[string]bool        `json:"pose_valid"`
	AcceptedCount map[string]int         `json:"accepted_count"`
	MissingPoses  []string               `json:"missing_poses,omitempty"`
	Reason        string                 `json:"reason"`
	Embeddings    []PoseEmbedding        `json:"-"`
}

// LivenessValidator decides whether a set of pose-labelled frame batches
// proves a live, cooperative subject. Poses may arrive in any order; each
// pose bucket is judged independently and the final verdict is the
// conjunction of all of them.
type LivenessValidator struct {
	analyzer        FrameAnalyzer
	embedder        FrameEmbedder
	ranges          map[string]PoseRange
	confidenceFloor float64
	minFrames       int
	topFrames       int
}

// NewLivenessValidator creates a validator with the given pipeline
// components and thresholds
func NewLivenessValidator(analyzer FrameAnalyzer, embedder FrameEmbedder, confidenceFloor float64, minFrames, topFrames int) *LivenessValidator {
	return &LivenessValidator{
		analyzer:        analyzer,
		embedder:        embedder,
		ranges:          DefaultPoseRanges(),
		confidenceFloor: confidenceFloor,
		minFrames:       minFrames,
		topFrames:       topFrames,
	}
}

// acceptedFrame is a frame that passed every per-frame check for its pose
type acceptedFrame struct {
	sharpness   float64
	alignedJPEG []byte
}

// validatePose filters one pose bucket down to its accepted frames
func (v *LivenessValidator) validatePose(label string, frames [][]byte) []acceptedFrame {
	poseRange, ok := v.ranges[label]
	if !ok {
		log.Printf("liveness: unknown pose label %q, discarding %d frames", label, len(frames))
		return nil
	}

	var accepted []acceptedFrame
	for i, frame := range frames {
		analysis, err := v.analyzer.AnalyzeFrame(frame)
		if err != nil {
			log.Printf("liveness: pose %s frame %d analysis failed: %v", label, i, err)
			continue
		}
		if !analysis.FaceFound || analysis.Confidence < v.confidenceFloor {
			continue
		}
		if !poseRange.Yaw.Contains(analysis.Pose.Yaw) || !poseRange.Pitch.Contains(analysis.Pose.Pitch) {
			continue
		}
		if !analysis.Quality.Pass() {
			continue
		}
		accepted = append(accepted, acceptedFrame{
			sharpness:   analysis.Quality.Sharpness,
			alignedJPEG: analysis.AlignedJPEG,
		})
	}
	return accepted
}

// Validate judges a capture session. framesByPose maps pose labels to the
// encoded frames the caller collected for that pose; a required pose with
// no entry simply has zero accepted frames.
func (v *LivenessValidator) Validate(framesByPose map[string][][]byte) LivenessOutcome {
	outcome := LivenessOutcome{
		PoseValid:     make(map[string]bool),
		AcceptedCount: make(map[string]int),
	}

	selected := make(map[string][]acceptedFrame)
	for _, label := range RequiredPoses {
		accepted := v.validatePose(label, framesByPose[label])
		outcome.AcceptedCount[label] = len(accepted)
		if len(accepted) >= v.minFrames {
			outcome.PoseValid[label] = true
			sort.Slice(accepted, func(i, j int) bool {
				return accepted[i].sharpness > accepted[j].sharpness
			})
			if len(accepted) > v.topFrames {
				accepted = accepted[:v.topFrames]
			}
			selected[label] = accepted
		} else {
			outcome.PoseValid[label] = false
			outcome.MissingPoses = append(outcome.MissingPoses, label)
		}
	}

	if len(outcome.MissingPoses) > 0 {
		outcome.IsLive = false
		outcome.Reason = fmt.Sprintf("incomplete pose coverage: %s", strings.Join(outcome.MissingPoses, ", "))
		return outcome
	}

	for _, label := range RequiredPoses {
		for _, frame := range selected[label] {
			embedding, err := v.embedder.EmbedAligned(frame.alignedJPEG)
			if err != nil {
				log.Printf("liveness: embedding extraction failed for pose %s: %v", label, err)
				continue
			}
			outcome.Embeddings = append(outcome.Embeddings, PoseEmbedding{
				PoseLabel: label,
				Embedding: embedding,
			})
		}
	}

	if len(outcome.Embeddings) == 0 {
		outcome.IsLive = false
		outcome.Reason = "all poses valid but no embeddings could be extracted"
		return outcome
	}

	outcome.IsLive = true
	outcome.Reason = "all poses validated"
	return outcome
}
