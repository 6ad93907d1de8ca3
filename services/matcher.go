package services

import (
	"github.com/classattend/attendancebackend/vision"
)

// RosterMember is a registered student with their reference embeddings, as
// snapshotted at the start of a session
type RosterMember struct {
	StudentID       uint
	AdmissionNumber string
	FullName        string
	Embeddings      [][]float32
}

// FaceObservation is one detected, aligned, quality-passing face from a
// classroom photo together with its embedding
type FaceObservation struct {
	Box       vision.BoundingBox
	Score     float64
	Embedding []float32
	CropJPEG  []byte
}

// MatchCandidate is a student successfully claimed by a face in one photo
type MatchCandidate struct {
	StudentID  uint
	Similarity float64
	Face       FaceObservation
}

// UnmatchedFace is a face no student claimed, kept for manual review
type UnmatchedFace struct {
	Face           FaceObservation
	BestSimilarity float64
}

// PhotoResult holds the outcome of matching all faces of a single photo
type PhotoResult struct {
	PhotoIndex int
	Matches    []MatchCandidate
	Unknown    []UnmatchedFace
}

// Matcher assigns face observations to roster members by embedding
// similarity
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher with the given acceptance threshold
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// bestAgainstMember scores a face against every reference embedding of one
// student and returns the highest similarity
func (m *Matcher) bestAgainstMember(embedding []float32, member RosterMember) float64 {
	best := 0.0
	for _, ref := range member.Embeddings {
		if sim := vision.CosineSimilarity(embedding, ref); sim > best {
			best = sim
		}
	}
	return best
}

// MatchPhoto matches faces against the roster within one photo. Faces are
// considered in detection order; once a face claims a student, later faces
// in the same photo cannot claim them, even at higher similarity. A face
// whose best roster entry is below the threshold, or already claimed by an
// earlier face, is unknown. Unknown faces are never reassigned to a weaker
// candidate.
func (m *Matcher) MatchPhoto(photoIndex int, faces []FaceObservation, roster []RosterMember) PhotoResult {
	result := PhotoResult{PhotoIndex: photoIndex}
	claimed := make(map[uint]bool)

	for _, face := range faces {
		var bestID uint
		bestSim := 0.0
		found := false

		for _, member := range roster {
			sim := m.bestAgainstMember(face.Embedding, member)
			if sim > bestSim {
				bestSim = sim
				bestID = member.StudentID
				found = true
			}
		}

		if found && bestSim >= m.threshold && !claimed[bestID] {
			claimed[bestID] = true
			result.Matches = append(result.Matches, MatchCandidate{
				StudentID:  bestID,
				Similarity: bestSim,
				Face:       face,
			})
		} else {
			result.Unknown = append(result.Unknown, UnmatchedFace{
				Face:           face,
				BestSimilarity: bestSim,
			})
		}
	}
	return result
}
