package trips

import (
	"time"

	"github.com/aviseth/street-tracker/geo"
	"github.com/aviseth/street-tracker/trace"
)

// Segmenter splits a trace into trips at recording gaps. A gap is any
// adjacent-point pair whose elapsed time exceeds MaxGap or whose
// great-circle distance exceeds MaxGapMeters; either covers device dropout
// and activity-switch boundaries.
type Segmenter struct {
	MaxGap        time.Duration
	MaxGapMeters  float64
	MinTripPoints int
}

// Segment splits the trace into non-overlapping trips, in order, covering
// the full trace. Runs with fewer than MinTripPoints points are discarded
// as noise; the second return reports how many were dropped. Identical
// input always yields identical trip boundaries and IDs.
func (s Segmenter) Segment(tr trace.Trace) ([]Trip, int) {
	if len(tr.Points) == 0 {
		return nil, 0
	}

	var trips []Trip
	discarded := 0
	runStart := 0

	flush := func(end int) {
		run := tr.Points[runStart:end]
		if len(run) < s.MinTripPoints {
			if len(run) > 0 {
				discarded++
			}
			return
		}
		trips = append(trips, newTrip(tr, len(trips), run))
	}

	for i := 1; i < len(tr.Points); i++ {
		prev, cur := tr.Points[i-1], tr.Points[i]
		if s.isGap(prev, cur) {
			flush(i)
			runStart = i
		}
	}
	flush(len(tr.Points))

	return trips, discarded
}

func (s Segmenter) isGap(a, b trace.GeoPoint) bool {
	if s.MaxGap > 0 && b.Time.Sub(a.Time) > s.MaxGap {
		return true
	}
	if s.MaxGapMeters > 0 && geo.DistanceMeters(a.Point(), b.Point()) > s.MaxGapMeters {
		return true
	}
	return false
}
