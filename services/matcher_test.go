package services

import (
	"testing"

	"github.com/classattend/attendancebackend/vision"
)

// unitVec returns a 4-dim unit vector pointing along the given axis
func unitVec(axis int) []float32 {
	v := make([]float32, 4)
	v[axis] = 1
	return v
}

// blend mixes two unit axes and renormalizes, giving a controllable
// similarity against each
func blend(axisA, axisB int, weightA float32) []float32 {
	v := make([]float32, 4)
	v[axisA] = weightA
	v[axisB] = 1 - weightA
	return vision.NormalizeEmbedding(v)
}

func TestMatchPhotoThresholdGate(t *testing.T) {
	roster := []RosterMember{
		{StudentID: 1, Embeddings: [][]float32{unitVec(0)}},
	}
	// similarity of blend(0,1,0.4) against axis 0 is 0.4/sqrt(0.4²+0.6²) ≈ 0.55
	// and against nothing else, so a high threshold must reject it
	matcher := NewMatcher(0.9)
	faces := []FaceObservation{{Embedding: blend(0, 1, 0.4)}}

	result := matcher.MatchPhoto(0, faces, roster)
	if len(result.Matches) != 0 {
		t.Fatalf("below-threshold candidate was matched: %+v", result.Matches)
	}
	if len(result.Unknown) != 1 {
		t.Fatalf("expected 1 unknown face, got %d", len(result.Unknown))
	}
	if result.Unknown[0].BestSimilarity <= 0 {
		t.Errorf("unknown face should carry its best similarity, got %v", result.Unknown[0].BestSimilarity)
	}
}

func TestMatchPhotoBestOfSet(t *testing.T) {
	// student 1 owns two reference embeddings; the face is close to the
	// second, so the best of the set must win
	roster := []RosterMember{
		{StudentID: 1, Embeddings: [][]float32{unitVec(0), unitVec(1)}},
		{StudentID: 2, Embeddings: [][]float32{unitVec(2)}},
	}
	matcher := NewMatcher(0.5)
	faces := []FaceObservation{{Embedding: unitVec(1)}}

	result := matcher.MatchPhoto(0, faces, roster)
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].StudentID != 1 {
		t.Errorf("matched student %d, want 1", result.Matches[0].StudentID)
	}
	if result.Matches[0].Similarity < 0.999 {
		t.Errorf("similarity = %v, want ~1 from the second reference", result.Matches[0].Similarity)
	}
}

func TestMatchPhotoFirstClaim(t *testing.T) {
	// two faces both resemble student 1; the first in detection order
	// claims them and the second cannot
	roster := []RosterMember{
		{StudentID: 1, Embeddings: [][]float32{unitVec(0)}},
	}
	matcher := NewMatcher(0.5)
	faces := []FaceObservation{
		{Embedding: blend(0, 1, 0.8)}, // similar to student 1
		{Embedding: unitVec(0)},       // even more similar, but arrives second
	}

	result := matcher.MatchPhoto(0, faces, roster)
	if len(result.Matches) != 1 {
		t.Fatalf("expected exactly 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].Face.Embedding[1] == 0 {
		t.Errorf("the first face in detection order should hold the claim")
	}
	if len(result.Unknown) != 1 {
		t.Errorf("the losing face should become unknown, got %d unknowns", len(result.Unknown))
	}
}

func TestMatchPhotoClaimedBestIsNotReassigned(t *testing.T) {
	// the second face's best entry is student 1, already claimed by the
	// first face; it must become unknown even though student 2 also scores
	// above the threshold
	roster := []RosterMember{
		{StudentID: 1, Embeddings: [][]float32{unitVec(0)}},
		{StudentID: 2, Embeddings: [][]float32{blend(0, 1, 0.5)}},
	}
	matcher := NewMatcher(0.5)
	faces := []FaceObservation{
		{Embedding: unitVec(0)},       // claims student 1 exactly
		{Embedding: blend(0, 1, 0.8)}, // closest to student 1, still ~0.86 to student 2
	}

	result := matcher.MatchPhoto(0, faces, roster)
	if len(result.Matches) != 1 || result.Matches[0].StudentID != 1 {
		t.Fatalf("matches = %+v, want only student 1", result.Matches)
	}
	if len(result.Unknown) != 1 {
		t.Fatalf("expected the losing face to be unknown, got %d unknowns", len(result.Unknown))
	}
	if result.Unknown[0].BestSimilarity < 0.9 {
		t.Errorf("unknown face should record its similarity against the claimed entry, got %v",
			result.Unknown[0].BestSimilarity)
	}
}

func TestMatchPhotoTwoStudents(t *testing.T) {
	roster := []RosterMember{
		{StudentID: 1, Embeddings: [][]float32{unitVec(0)}},
		{StudentID: 2, Embeddings: [][]float32{unitVec(1)}},
	}
	matcher := NewMatcher(0.5)
	faces := []FaceObservation{
		{Embedding: unitVec(1)},
		{Embedding: unitVec(0)},
		{Embedding: unitVec(3)}, // resembles nobody
	}

	result := matcher.MatchPhoto(0, faces, roster)
	if len(result.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matches))
	}
	seen := map[uint]bool{}
	for _, m := range result.Matches {
		if seen[m.StudentID] {
			t.Errorf("student %d matched twice in one photo", m.StudentID)
		}
		seen[m.StudentID] = true
	}
	if len(result.Unknown) != 1 {
		t.Errorf("expected 1 unknown face, got %d", len(result.Unknown))
	}
}

func TestMatchPhotoEmptyRoster(t *testing.T) {
	matcher := NewMatcher(0.5)
	faces := []FaceObservation{{Embedding: unitVec(0)}}

	result := matcher.MatchPhoto(0, faces, nil)
	if len(result.Matches) != 0 {
		t.Errorf("empty roster produced matches: %+v", result.Matches)
	}
	if len(result.Unknown) != 1 {
		t.Errorf("every face should be unknown against an empty roster")
	}
}
