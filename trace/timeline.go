package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

type timelineFile struct {
	TimelineObjects []timelineObject `json:"timelineObjects"`
}

type timelineObject struct {
	ActivitySegment *activitySegment `json:"activitySegment"`
}

type activitySegment struct {
	StartLocation     *timelineLocation  `json:"startLocation"`
	EndLocation       *timelineLocation  `json:"endLocation"`
	Duration          *timelineDuration  `json:"duration"`
	ActivityType      string             `json:"activityType"`
	SimplifiedRawPath *simplifiedRawPath `json:"simplifiedRawPath"`
}

type timelineLocation struct {
	LatitudeE7  int64 `json:"latitudeE7"`
	LongitudeE7 int64 `json:"longitudeE7"`
}

type timelineDuration struct {
	StartTimestamp string `json:"startTimestamp"`
	EndTimestamp   string `json:"endTimestamp"`
}

type simplifiedRawPath struct {
	Points []rawPathPoint `json:"points"`
}

type rawPathPoint struct {
	LatE7     int64  `json:"latE7"`
	LngE7     int64  `json:"lngE7"`
	Timestamp string `json:"timestamp"`
}

// ParseTimeline decodes Google Semantic Location History JSON into one
// trace per activity segment. Place visits carry no movement and are
// ignored. Segments keep their recorded activityType verbatim, including
// vehicular ones: whether an IN_TRAIN segment actually moved like a train
// is the classifier's call, not the parser's.
//
// A file that decodes fine but holds no usable movement (a quiet month)
// returns an empty slice, not an error.
func ParseTimeline(r io.Reader) ([]Trace, error) {
	var doc timelineFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &MalformedTraceError{Reason: fmt.Sprintf("unparseable timeline json: %v", err)}
	}

	var traces []Trace
	for _, obj := range doc.TimelineObjects {
		seg := obj.ActivitySegment
		if seg == nil {
			continue
		}
		points := normalizePoints(seg.pathPoints())
		if len(points) < 2 {
			continue
		}
		traces = append(traces, Trace{
			Source:   "timeline",
			Activity: seg.ActivityType,
			Points:   points,
		})
	}
	return traces, nil
}

// pathPoints extracts the segment's movement: the simplified raw path
// when it has at least two timestamped points, otherwise the segment's
// start/end locations stamped with its duration.
func (s *activitySegment) pathPoints() []GeoPoint {
	var pts []GeoPoint
	if s.SimplifiedRawPath != nil {
		for _, p := range s.SimplifiedRawPath.Points {
			ts, err := time.Parse(time.RFC3339, p.Timestamp)
			if err != nil {
				continue
			}
			pts = append(pts, GeoPoint{
				Time: ts.UTC(),
				Lat:  e7(p.LatE7),
				Lon:  e7(p.LngE7),
			})
		}
	}
	if len(pts) >= 2 {
		return pts
	}

	if s.StartLocation == nil || s.EndLocation == nil || s.Duration == nil {
		return nil
	}
	start, err := time.Parse(time.RFC3339, s.Duration.StartTimestamp)
	if err != nil {
		return nil
	}
	end, err := time.Parse(time.RFC3339, s.Duration.EndTimestamp)
	if err != nil {
		return nil
	}
	return []GeoPoint{
		{Time: start.UTC(), Lat: e7(s.StartLocation.LatitudeE7), Lon: e7(s.StartLocation.LongitudeE7)},
		{Time: end.UTC(), Lat: e7(s.EndLocation.LatitudeE7), Lon: e7(s.EndLocation.LongitudeE7)},
	}
}

// e7 converts Google's degrees×1e7 integers. Some exports store western
// longitudes wrapped around 2^32; unwrap before scaling.
func e7(v int64) float64 {
	if v > 1800000000 {
		v -= 4294967296
	}
	return float64(v) / 1e7
}
