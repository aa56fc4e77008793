// Package export renders coverage state into the GeoJSON and stats
// artifacts the visualization frontend consumes. Artifact contents are
// deterministic: streets follow index order, walks sort by start time,
// so re-exporting unchanged state produces byte-identical files.
package export

import (
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/aviseth/street-tracker/coverage"
	"github.com/aviseth/street-tracker/streets"
)

// Walk is one merged WALK trip in exportable form.
type Walk struct {
	TripID     string
	City       string
	Start      time.Time
	DistanceM  float64
	Duration   time.Duration
	AvgSpeedMS float64
	Line       orb.LineString
}

// BuildWalks returns one LineString feature per merged walk.
func BuildWalks(walks []Walk) *geojson.FeatureCollection {
	ordered := make([]Walk, len(walks))
	copy(ordered, walks)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].Start.Before(ordered[j].Start)
		}
		return ordered[i].TripID < ordered[j].TripID
	})

	fc := geojson.NewFeatureCollection()
	for _, w := range ordered {
		f := geojson.NewFeature(w.Line)
		f.Properties = geojson.Properties{
			"trip_id":      w.TripID,
			"start":        w.Start.UTC().Format(time.RFC3339),
			"distance_m":   w.DistanceM,
			"duration_s":   int(w.Duration.Seconds()),
			"avg_speed_ms": w.AvgSpeedMS,
		}
		fc.Append(f)
	}
	return fc
}

// BuildCoveredStreets returns the covered part of the network with each
// segment's walking history attached.
func BuildCoveredStreets(idx *streets.Index, snap coverage.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range idx.Segments {
		seg := &idx.Segments[i]
		sc, ok := snap.Segments[seg.ID]
		if !ok || !sc.Covered {
			continue
		}
		f := geojson.NewFeature(seg.Geometry)
		f.Properties = geojson.Properties{
			"street_id":        seg.ID,
			"name":             seg.Name,
			"length_m":         seg.LengthM,
			"times_walked":     sc.TimesWalked,
			"first_covered_at": sc.FirstCoveredAt,
			"last_walked_at":   sc.LastWalkedAt,
		}
		fc.Append(f)
	}
	return fc
}

// BuildUncoveredStreets returns everything not yet walked.
func BuildUncoveredStreets(idx *streets.Index, snap coverage.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range idx.Segments {
		seg := &idx.Segments[i]
		if sc, ok := snap.Segments[seg.ID]; ok && sc.Covered {
			continue
		}
		f := geojson.NewFeature(seg.Geometry)
		f.Properties = geojson.Properties{
			"street_id": seg.ID,
			"name":      seg.Name,
			"length_m":  seg.LengthM,
		}
		fc.Append(f)
	}
	return fc
}
