package matching

import (
	"fmt"

	"github.com/aviseth/street-tracker/streets"
	"github.com/aviseth/street-tracker/trips"
)

// Matcher snaps a WALK trip's points onto street segments of one city's
// index. Matching is fully deterministic: candidate order comes from the
// index (nearest first, then segment ID), and the previous point's segment
// wins over strictly-nearest whenever it is still within tolerance, which
// stops flip-flopping between parallel streets.
type Matcher struct {
	Index           *streets.Index
	RadiusM         float64 // match tolerance around each point
	MinConfidence   float64 // ranges below this never reach the aggregator
	BridgeMaxPoints int     // unmatched runs up to this length may be bridged
}

// pointAssign is the per-point matching state before runs are collapsed.
type pointAssign struct {
	segID   string
	distM   float64
	conf    float64
	bridged bool
}

// Match maps one WALK trip onto the street network. Trips that are not
// WALK, or that belong to a different city than the index, are programming
// errors on the caller's side.
func (m *Matcher) Match(t trips.Trip) (MatchResult, error) {
	res := MatchResult{
		TripID:      t.ID,
		TraceID:     t.TraceID,
		City:        m.Index.City(),
		TripStart:   t.Start(),
		TotalPoints: len(t.Points),
	}

	if t.Mode != trips.ModeWalk {
		return res, fmt.Errorf("map matcher called for %s trip %s; only WALK trips are matched", t.Mode, t.ID)
	}
	if t.City != "" && t.City != m.Index.City() {
		return res, fmt.Errorf("trip %s belongs to %s but the index holds %s", t.ID, t.City, m.Index.City())
	}

	assigned := make([]pointAssign, len(t.Points))
	prevSeg := ""
	for i, p := range t.Points {
		candidates := m.Index.NearestSegments(p.Point(), m.RadiusM)
		if len(candidates) == 0 {
			prevSeg = ""
			continue
		}

		chosen := candidates[0]
		if prevSeg != "" {
			for _, c := range candidates {
				if c.Segment.ID == prevSeg {
					chosen = c
					break
				}
			}
		}

		assigned[i] = pointAssign{
			segID: chosen.Segment.ID,
			distM: chosen.DistanceM,
			conf:  pointConfidence(chosen.DistanceM, m.RadiusM),
		}
		prevSeg = chosen.Segment.ID
	}

	m.bridgeGaps(assigned)
	m.collapse(t, assigned, &res)
	return res, nil
}

// pointConfidence is the inverse of distance, capped: 1 at the segment,
// 0 at the tolerance edge.
func pointConfidence(distM, radiusM float64) float64 {
	if radiusM <= 0 {
		return 0
	}
	c := 1 - distM/radiusM
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// bridgeGaps fills unmatched runs of at most BridgeMaxPoints points when
// the same segment sits on both sides. Bridged points extend the match span
// but contribute no confidence. Longer runs, and runs whose sides disagree,
// stay unmatched.
func (m *Matcher) bridgeGaps(assigned []pointAssign) {
	i := 0
	for i < len(assigned) {
		if assigned[i].segID != "" {
			i++
			continue
		}
		start := i
		for i < len(assigned) && assigned[i].segID == "" {
			i++
		}
		runLen := i - start
		if runLen > m.BridgeMaxPoints || start == 0 || i == len(assigned) {
			continue
		}
		left, right := assigned[start-1].segID, assigned[i].segID
		if left != right {
			continue
		}
		for j := start; j < i; j++ {
			assigned[j] = pointAssign{segID: left, bridged: true}
		}
	}
}

// collapse folds per-point assignments into ordered segment ranges and gap
// ranges, applies the confidence floor, and fills the result counters.
func (m *Matcher) collapse(t trips.Trip, assigned []pointAssign, res *MatchResult) {
	i := 0
	for i < len(assigned) {
		start := i
		seg := assigned[i].segID

		for i < len(assigned) && assigned[i].segID == seg {
			i++
		}
		end := i - 1

		if seg == "" {
			res.Gaps = append(res.Gaps, PointRange{StartIdx: start, EndIdx: end})
			res.UnmatchedPoints += end - start + 1
			continue
		}

		confSum, distSum := 0.0, 0.0
		contributing := 0
		for j := start; j <= end; j++ {
			if assigned[j].bridged {
				continue
			}
			confSum += assigned[j].conf
			distSum += assigned[j].distM
			contributing++
		}

		match := SegmentMatch{
			SegmentID: seg,
			StartIdx:  start,
			EndIdx:    end,
			FirstTime: t.Points[start].Time,
			LastTime:  t.Points[end].Time,
		}
		if contributing > 0 {
			match.Confidence = confSum / float64(contributing)
			match.MeanDistM = distSum / float64(contributing)
		}

		if match.Confidence < m.MinConfidence {
			res.LowConfidenceDropped++
			continue
		}
		res.Matches = append(res.Matches, match)
	}
}
