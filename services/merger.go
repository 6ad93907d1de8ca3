package services

import (
	"sort"
)

// PresentStudent is a roster member recognized in at least one photo,
// carrying the best match observed across the session
type PresentStudent struct {
	StudentID  uint
	Similarity float64
	PhotoIndex int
}

// SessionUnknown is one unmatched face with its source photo index
type SessionUnknown struct {
	Face           FaceObservation
	BestSimilarity float64
	PhotoIndex     int
}

// SessionResult is the merged outcome of all photos in a session
type SessionResult struct {
	TotalRegistered int
	Present         []PresentStudent
	AbsentIDs       []uint
	Unknown         []SessionUnknown
}

// MergeSession reconciles per-photo results into one session outcome.
// A student counts present if recognized in any photo; when recognized
// in several, the highest-similarity match is kept. Absent is recomputed
// as roster minus the present union. Unknown faces are concatenated
// without cross-photo dedup. With zero photo results the whole roster
// is absent.
func MergeSession(roster []RosterMember, photos []PhotoResult) SessionResult {
	result := SessionResult{TotalRegistered: len(roster)}

	best := make(map[uint]PresentStudent)
	for _, photo := range photos {
		for _, match := range photo.Matches {
			existing, seen := best[match.StudentID]
			if !seen || match.Similarity > existing.Similarity {
				best[match.StudentID] = PresentStudent{
					StudentID:  match.StudentID,
					Similarity: match.Similarity,
					PhotoIndex: photo.PhotoIndex,
				}
			}
		}
		for _, unknown := range photo.Unknown {
			result.Unknown = append(result.Unknown, SessionUnknown{
				Face:           unknown.Face,
				BestSimilarity: unknown.BestSimilarity,
				PhotoIndex:     photo.PhotoIndex,
			})
		}
	}

	for _, member := range roster {
		if present, ok := best[member.StudentID]; ok {
			result.Present = append(result.Present, present)
		} else {
			result.AbsentIDs = append(result.AbsentIDs, member.StudentID)
		}
	}

	sort.Slice(result.Present, func(i, j int) bool {
		return result.Present[i].StudentID < result.Present[j].StudentID
	})
	return result
}
