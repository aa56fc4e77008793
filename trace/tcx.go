package trace

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

type tcxFile struct {
	XMLName    xml.Name      `xml:"TrainingCenterDatabase"`
	Activities []tcxActivity `xml:"Activities>Activity"`
}

type tcxActivity struct {
	Sport string   `xml:"Sport,attr"`
	ID    string   `xml:"Id"`
	Laps  []tcxLap `xml:"Lap"`
}

type tcxLap struct {
	Tracks []tcxTrack `xml:"Track"`
}

type tcxTrack struct {
	Points []tcxTrackpoint `xml:"Trackpoint"`
}

type tcxTrackpoint struct {
	Time     string       `xml:"Time"`
	Position *tcxPosition `xml:"Position"`
	Altitude float64      `xml:"AltitudeMeters"`
}

type tcxPosition struct {
	Lat float64 `xml:"LatitudeDegrees"`
	Lon float64 `xml:"LongitudeDegrees"`
}

// ParseTCX decodes a Garmin Training Center document into a single trace.
// Trackpoints without a Position element (heart-rate-only samples) are
// skipped, as are points without a parseable timestamp.
func ParseTCX(r io.Reader) (Trace, error) {
	var doc tcxFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return Trace{}, &MalformedTraceError{Reason: fmt.Sprintf("unparseable tcx: %v", err)}
	}

	tr := Trace{Source: "tcx"}
	for _, act := range doc.Activities {
		if tr.Activity == "" {
			tr.Activity = act.Sport
		}
		for _, lap := range act.Laps {
			for _, track := range lap.Tracks {
				for _, pt := range track.Points {
					if pt.Position == nil {
						continue
					}
					ts, err := time.Parse(time.RFC3339, pt.Time)
					if err != nil {
						continue
					}
					tr.Points = append(tr.Points, GeoPoint{
						Time:      ts.UTC(),
						Lat:       pt.Position.Lat,
						Lon:       pt.Position.Lon,
						Elevation: pt.Altitude,
					})
				}
			}
		}
	}

	tr.Points = normalizePoints(tr.Points)
	if len(tr.Points) == 0 {
		return Trace{}, &MalformedTraceError{Reason: "tcx document contains no positioned track points"}
	}
	return tr, nil
}
