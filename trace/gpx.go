package trace

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

type gpxFile struct {
	XMLName xml.Name `xml:"gpx"`
	Tracks  []gpxTrk `xml:"trk"`
}

type gpxTrk struct {
	Name     string      `xml:"name"`
	Type     string      `xml:"type"`
	Segments []gpxTrkSeg `xml:"trkseg"`
}

type gpxTrkSeg struct {
	Points []gpxTrkPt `xml:"trkpt"`
}

type gpxTrkPt struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Ele  float64 `xml:"ele"`
	Time string  `xml:"time"`
}

// ParseGPX decodes a GPX 1.1 document into a single trace. All tracks and
// track segments in the file are concatenated; points without a parseable
// timestamp are skipped.
func ParseGPX(r io.Reader) (Trace, error) {
	var doc gpxFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return Trace{}, &MalformedTraceError{Reason: fmt.Sprintf("unparseable gpx: %v", err)}
	}

	tr := Trace{Source: "gpx"}
	for _, trk := range doc.Tracks {
		if tr.Activity == "" {
			if trk.Type != "" {
				tr.Activity = trk.Type
			} else if trk.Name != "" {
				tr.Activity = trk.Name
			}
		}
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				ts, err := time.Parse(time.RFC3339, pt.Time)
				if err != nil {
					continue
				}
				tr.Points = append(tr.Points, GeoPoint{
					Time:      ts.UTC(),
					Lat:       pt.Lat,
					Lon:       pt.Lon,
					Elevation: pt.Ele,
				})
			}
		}
	}

	tr.Points = normalizePoints(tr.Points)
	if len(tr.Points) == 0 {
		return Trace{}, &MalformedTraceError{Reason: "gpx document contains no timestamped track points"}
	}
	return tr, nil
}
