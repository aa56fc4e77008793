package streets

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/aviseth/street-tracker/geo"
)

// minSegmentLengthM drops degenerate slivers the OSM export sometimes
// contains; they can never be meaningfully walked or matched.
const minSegmentLengthM = 1.0

// ReadNetworkBytes reads a street network source from an HTTP(S) URL or a
// local file path.
func ReadNetworkBytes(urlOrPath string) ([]byte, error) {
	if !strings.HasPrefix(urlOrPath, "http://") && !strings.HasPrefix(urlOrPath, "https://") {
		return os.ReadFile(urlOrPath)
	}
	resp, err := http.Get(urlOrPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlOrPath, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, urlOrPath)
	}
	return io.ReadAll(resp.Body)
}

// LoadNetwork reads a GeoJSON FeatureCollection of street geometry and
// returns the city's segments. LineString features become one segment,
// MultiLineString features one segment per part. Features without a name
// get "Unknown", matching the upstream OSM export convention.
func LoadNetwork(urlOrPath, city string) ([]Segment, error) {
	data, err := ReadNetworkBytes(urlOrPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read street network for %s: %w", city, err)
	}
	return ParseNetwork(data, city)
}

// ParseNetwork decodes GeoJSON street network bytes into segments.
func ParseNetwork(data []byte, city string) ([]Segment, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse street network for %s: %w", city, err)
	}

	var segments []Segment
	seenIDs := map[string]int{}

	appendSegment := func(id, name string, ls orb.LineString) {
		if len(ls) < 2 {
			return
		}
		length := geo.LengthMeters(ls)
		if length < minSegmentLengthM {
			return
		}
		n := seenIDs[id]
		seenIDs[id] = n + 1
		if n > 0 {
			id = fmt.Sprintf("%s#%d", id, n)
		}
		segments = append(segments, Segment{
			ID:       id,
			Name:     name,
			City:     city,
			Geometry: ls,
			LengthM:  length,
		})
	}

	for i, f := range fc.Features {
		id := featureID(f, city, i)
		name := featureName(f)

		switch g := f.Geometry.(type) {
		case orb.LineString:
			appendSegment(id, name, g)
		case orb.MultiLineString:
			for part, ls := range g {
				appendSegment(fmt.Sprintf("%s:%d", id, part), name, ls)
			}
		}
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("street network for %s contains no usable line geometry", city)
	}
	return segments, nil
}

func featureID(f *geojson.Feature, city string, position int) string {
	if id := propString(f.Properties, "street_id", "id", "osmid"); id != "" {
		return id
	}
	if f.ID != nil {
		if id := anyToString(f.ID); id != "" {
			return id
		}
	}
	return fmt.Sprintf("%s-%06d", city, position)
}

func featureName(f *geojson.Feature) string {
	if name := propString(f.Properties, "name"); name != "" {
		return name
	}
	return "Unknown"
}

func propString(props geojson.Properties, keys ...string) string {
	for _, k := range keys {
		v, ok := props[k]
		if !ok {
			continue
		}
		if s := anyToString(v); s != "" {
			return s
		}
	}
	return ""
}

func anyToString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case []interface{}:
		if len(t) > 0 {
			return anyToString(t[0])
		}
	}
	return ""
}
