package trips

import (
	"fmt"
	"time"

	"github.com/aviseth/street-tracker/geo"
	"github.com/aviseth/street-tracker/trace"
)

// Transport mode labels assigned by the classifier.
const (
	ModeWalk    = "WALK"
	ModeTransit = "TRANSIT"
	ModeUnknown = "UNKNOWN"
)

// Trip is one contiguous sub-sequence of a trace with derived movement
// statistics. Trips are created by the segmenter, classified, matched, and
// then discarded; they are never persisted.
type Trip struct {
	ID      string
	TraceID string
	City    string
	Index   int
	Mode    string // set after classification, ModeUnknown until then
	Points  []trace.GeoPoint

	PathDistanceM   float64
	DirectDistanceM float64
	Duration        time.Duration
	AvgSpeedMS      float64
	P90SpeedMS      float64
	Sinuosity       float64   // path distance over direct distance
	LegSpeedsMS     []float64 // instantaneous speed per adjacent pair
}

// Start returns the first fix time.
func (t *Trip) Start() time.Time {
	if len(t.Points) == 0 {
		return time.Time{}
	}
	return t.Points[0].Time
}

// End returns the last fix time.
func (t *Trip) End() time.Time {
	if len(t.Points) == 0 {
		return time.Time{}
	}
	return t.Points[len(t.Points)-1].Time
}

// newTrip derives per-leg and whole-trip statistics for one point run. The
// trip ID embeds the trace ID, the trip's position within the trace and the
// start timestamp, so identical input always yields the identical ID.
func newTrip(tr trace.Trace, index int, points []trace.GeoPoint) Trip {
	t := Trip{
		TraceID: tr.ID,
		City:    tr.City,
		Index:   index,
		Mode:    ModeUnknown,
		Points:  points,
	}
	if len(points) == 0 {
		return t
	}

	t.LegSpeedsMS = make([]float64, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		d := geo.DistanceMeters(points[i].Point(), points[i+1].Point())
		dt := points[i+1].Time.Sub(points[i].Time).Seconds()
		t.PathDistanceM += d
		t.LegSpeedsMS = append(t.LegSpeedsMS, geo.SpeedMS(d, dt))
	}

	t.DirectDistanceM = geo.DistanceMeters(points[0].Point(), points[len(points)-1].Point())
	t.Duration = points[len(points)-1].Time.Sub(points[0].Time)
	if secs := t.Duration.Seconds(); secs > 0 {
		t.AvgSpeedMS = t.PathDistanceM / secs
	}
	t.P90SpeedMS = percentile(t.LegSpeedsMS, 0.90)
	if t.DirectDistanceM > 0 {
		t.Sinuosity = t.PathDistanceM / t.DirectDistanceM
	}

	t.ID = fmt.Sprintf("%s#%d@%d", tr.ID, index, t.Start().Unix())
	return t
}
