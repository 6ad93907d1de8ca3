package services

import (
	"testing"
)

func testRoster(ids ...uint) []RosterMember {
	roster := make([]RosterMember, 0, len(ids))
	for _, id := range ids {
		roster = append(roster, RosterMember{StudentID: id})
	}
	return roster
}

func presentIDs(result SessionResult) map[uint]bool {
	ids := make(map[uint]bool, len(result.Present))
	for _, p := range result.Present {
		ids[p.StudentID] = true
	}
	return ids
}

func TestMergeSessionUnion(t *testing.T) {
	roster := testRoster(1, 2, 3)
	photoA := PhotoResult{PhotoIndex: 0, Matches: []MatchCandidate{
		{StudentID: 1, Similarity: 0.7},
	}}
	photoB := PhotoResult{PhotoIndex: 1, Matches: []MatchCandidate{
		{StudentID: 1, Similarity: 0.9},
		{StudentID: 2, Similarity: 0.6},
	}}

	result := MergeSession(roster, []PhotoResult{photoA, photoB})

	if result.TotalRegistered != 3 {
		t.Errorf("total registered = %d, want 3", result.TotalRegistered)
	}
	if len(result.Present) != 2 {
		t.Fatalf("present count = %d, want 2", len(result.Present))
	}

	// student 1 keeps the better of 0.7 and 0.9
	for _, p := range result.Present {
		if p.StudentID == 1 && p.Similarity != 0.9 {
			t.Errorf("student 1 similarity = %v, want the best across photos 0.9", p.Similarity)
		}
	}

	if len(result.AbsentIDs) != 1 || result.AbsentIDs[0] != 3 {
		t.Errorf("absent = %v, want [3]", result.AbsentIDs)
	}
}

func TestMergeSessionCommutative(t *testing.T) {
	roster := testRoster(1, 2, 3, 4)
	photoA := PhotoResult{PhotoIndex: 0, Matches: []MatchCandidate{
		{StudentID: 1, Similarity: 0.8},
		{StudentID: 2, Similarity: 0.6},
	}}
	photoB := PhotoResult{PhotoIndex: 1, Matches: []MatchCandidate{
		{StudentID: 2, Similarity: 0.9},
		{StudentID: 3, Similarity: 0.7},
	}}

	ab := MergeSession(roster, []PhotoResult{photoA, photoB})
	ba := MergeSession(roster, []PhotoResult{photoB, photoA})

	idsAB, idsBA := presentIDs(ab), presentIDs(ba)
	if len(idsAB) != len(idsBA) {
		t.Fatalf("present sets differ by order: %v vs %v", idsAB, idsBA)
	}
	for id := range idsAB {
		if !idsBA[id] {
			t.Errorf("student %d present in A,B order but not B,A", id)
		}
	}
}

func TestMergeSessionIdempotent(t *testing.T) {
	roster := testRoster(1, 2)
	photo := PhotoResult{PhotoIndex: 0, Matches: []MatchCandidate{
		{StudentID: 1, Similarity: 0.8},
	}}

	once := MergeSession(roster, []PhotoResult{photo})
	twice := MergeSession(roster, []PhotoResult{photo, photo})

	if len(once.Present) != len(twice.Present) {
		t.Errorf("merging the same photo twice grew the present set: %d vs %d",
			len(once.Present), len(twice.Present))
	}
}

func TestMergeSessionPartition(t *testing.T) {
	roster := testRoster(1, 2, 3, 4, 5)
	photo := PhotoResult{PhotoIndex: 0, Matches: []MatchCandidate{
		{StudentID: 2, Similarity: 0.8},
		{StudentID: 4, Similarity: 0.6},
	}}

	result := MergeSession(roster, []PhotoResult{photo})

	present := presentIDs(result)
	for _, id := range result.AbsentIDs {
		if present[id] {
			t.Errorf("student %d is both present and absent", id)
		}
	}
	if len(result.Present)+len(result.AbsentIDs) != len(roster) {
		t.Errorf("present (%d) + absent (%d) != roster (%d)",
			len(result.Present), len(result.AbsentIDs), len(roster))
	}
}

func TestMergeSessionZeroPhotos(t *testing.T) {
	roster := testRoster(1, 2, 3)

	result := MergeSession(roster, nil)

	if len(result.Present) != 0 {
		t.Errorf("zero photos should yield no present students, got %d", len(result.Present))
	}
	if len(result.AbsentIDs) != 3 {
		t.Errorf("zero photos should mark the whole roster absent, got %d", len(result.AbsentIDs))
	}
	if len(result.Unknown) != 0 {
		t.Errorf("zero photos should yield no unknown faces, got %d", len(result.Unknown))
	}
}

func TestMergeSessionUnknownConcatenation(t *testing.T) {
	roster := testRoster(1)
	photoA := PhotoResult{PhotoIndex: 0, Unknown: []UnmatchedFace{
		{BestSimilarity: 0.3},
	}}
	photoB := PhotoResult{PhotoIndex: 1, Unknown: []UnmatchedFace{
		{BestSimilarity: 0.2},
		{BestSimilarity: 0.4},
	}}

	result := MergeSession(roster, []PhotoResult{photoA, photoB})

	if len(result.Unknown) != 3 {
		t.Fatalf("unknown faces should concatenate without dedup, got %d", len(result.Unknown))
	}
	if result.Unknown[0].PhotoIndex != 0 || result.Unknown[2].PhotoIndex != 1 {
		t.Errorf("unknown faces lost their photo index: %+v", result.Unknown)
	}
}
