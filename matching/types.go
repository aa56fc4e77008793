package matching

import "time"

// SegmentMatch is one collapsed run of consecutive trip points matched to
// the same street segment. StartIdx/EndIdx are inclusive indexes into the
// trip's points.
type SegmentMatch struct {
	SegmentID  string
	StartIdx   int
	EndIdx     int
	Confidence float64 // mean point confidence over the run's matched points
	FirstTime  time.Time
	LastTime   time.Time
	MeanDistM  float64
}

// PointRange marks a run of trip points that matched nothing within
// tolerance. Gaps are expected data-quality outcomes, never errors.
type PointRange struct {
	StartIdx int
	EndIdx   int
}

// MatchResult is the ordered outcome of map-matching one WALK trip.
type MatchResult struct {
	TripID    string
	TraceID   string
	City      string
	TripStart time.Time

	Matches []SegmentMatch
	Gaps    []PointRange

	UnmatchedPoints      int // points with no candidate within tolerance
	LowConfidenceDropped int // ranges removed for confidence below the floor
	TotalPoints          int
}

// SegmentIDs returns the distinct matched segment IDs in first-seen order.
func (r MatchResult) SegmentIDs() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range r.Matches {
		if !seen[m.SegmentID] {
			seen[m.SegmentID] = true
			out = append(out, m.SegmentID)
		}
	}
	return out
}
