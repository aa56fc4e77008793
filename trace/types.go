package trace

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/paulmach/orb"
)

// GeoPoint is one recorded GPS fix, immutable once recorded.
type GeoPoint struct {
	Time      time.Time
	Lat       float64
	Lon       float64
	Elevation float64
}

// Point returns the fix as an orb point (lon, lat order).
func (p GeoPoint) Point() orb.Point { return orb.Point{p.Lon, p.Lat} }

// Trace is one recorded activity's full point sequence, ordered by
// timestamp.
type Trace struct {
	ID       string
	City     string
	Source   string // gpx | tcx | timeline
	Activity string // sport or activity type as recorded, may be empty
	Points   []GeoPoint
}

// Start returns the first fix time, or the zero time for an empty trace.
func (t *Trace) Start() time.Time {
	if len(t.Points) == 0 {
		return time.Time{}
	}
	return t.Points[0].Time
}

// End returns the last fix time, or the zero time for an empty trace.
func (t *Trace) End() time.Time {
	if len(t.Points) == 0 {
		return time.Time{}
	}
	return t.Points[len(t.Points)-1].Time
}

// Duration returns End minus Start.
func (t *Trace) Duration() time.Duration { return t.End().Sub(t.Start()) }

// MalformedTraceError reports a trace that violates the input contract.
// It is fatal for that trace only; processing continues for others.
type MalformedTraceError struct {
	TraceID string
	Reason  string
}

func (e *MalformedTraceError) Error() string {
	if e.TraceID == "" {
		return fmt.Sprintf("malformed trace: %s", e.Reason)
	}
	return fmt.Sprintf("malformed trace %s: %s", e.TraceID, e.Reason)
}

// Validate checks the pipeline input contract: at least two points,
// non-decreasing timestamps, coordinates in range, and non-degenerate
// geometry (not every point identical).
func (t *Trace) Validate() error {
	if len(t.Points) < 2 {
		return &MalformedTraceError{TraceID: t.ID, Reason: "fewer than two points"}
	}

	allSame := true
	first := t.Points[0]
	for i, p := range t.Points {
		if math.Abs(p.Lat) > 90 || math.Abs(p.Lon) > 180 ||
			math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
			return &MalformedTraceError{TraceID: t.ID, Reason: fmt.Sprintf("coordinate out of range at point %d", i)}
		}
		if p.Time.IsZero() {
			return &MalformedTraceError{TraceID: t.ID, Reason: fmt.Sprintf("missing timestamp at point %d", i)}
		}
		if i > 0 && p.Time.Before(t.Points[i-1].Time) {
			return &MalformedTraceError{TraceID: t.ID, Reason: fmt.Sprintf("timestamps go backwards at point %d", i)}
		}
		if p.Lat != first.Lat || p.Lon != first.Lon {
			allSame = false
		}
	}
	if allSame {
		return &MalformedTraceError{TraceID: t.ID, Reason: "degenerate geometry: all points identical"}
	}
	return nil
}

// normalizePoints sorts fixes by timestamp and drops duplicate timestamps,
// keeping the first occurrence. Readers apply this before handing a trace
// to the pipeline.
func normalizePoints(points []GeoPoint) []GeoPoint {
	if len(points) == 0 {
		return points
	}
	sorted := make([]GeoPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, p)
	}
	return out
}
