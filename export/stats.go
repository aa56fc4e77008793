package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/aviseth/street-tracker/coverage"
	"github.com/aviseth/street-tracker/streets"
)

// Stats is the per-city coverage summary document. Percentages are
// length-weighted: walking every alley counts less than walking every
// avenue.
type Stats struct {
	City            string  `json:"city"`
	TotalStreets    int     `json:"total_streets"`
	CoveredStreets  int     `json:"covered_streets"`
	TotalKM         float64 `json:"total_km"`
	CoveredKM       float64 `json:"covered_km"`
	CoveragePercent float64 `json:"coverage_percent"`
	TripsMerged     int     `json:"trips_merged"`
	GeneratedAt     string  `json:"generated_at"`
}

// BuildStats summarizes one city's coverage against its street network.
// Segments in the snapshot that the index no longer knows (a network
// re-export can drop streets) are ignored rather than counted.
func BuildStats(idx *streets.Index, snap coverage.Snapshot, now time.Time) Stats {
	s := Stats{
		City:         snap.City,
		TotalStreets: idx.Count(),
		TotalKM:      idx.TotalLengthKM(),
		TripsMerged:  snap.TripsMerged,
		GeneratedAt:  now.UTC().Format(time.RFC3339),
	}
	for i := range idx.Segments {
		sc, ok := snap.Segments[idx.Segments[i].ID]
		if !ok || !sc.Covered {
			continue
		}
		s.CoveredStreets++
		s.CoveredKM += idx.Segments[i].LengthM / 1000.0
	}
	if s.TotalKM > 0 {
		s.CoveragePercent = s.CoveredKM / s.TotalKM * 100.0
	}
	return s
}

// Artifacts bundles one city's export set.
type Artifacts struct {
	City      string
	Walks     *geojson.FeatureCollection
	Covered   *geojson.FeatureCollection
	Uncovered *geojson.FeatureCollection
	Stats     Stats
}

// Build assembles the full artifact set for one city.
func Build(idx *streets.Index, snap coverage.Snapshot, walks []Walk, now time.Time) Artifacts {
	return Artifacts{
		City:      snap.City,
		Walks:     BuildWalks(walks),
		Covered:   BuildCoveredStreets(idx, snap),
		Uncovered: BuildUncoveredStreets(idx, snap),
		Stats:     BuildStats(idx, snap, now),
	}
}

// Write writes the four artifact files into dir, creating it if needed,
// and returns the written paths in write order.
func (a Artifacts) Write(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export dir %s: %w", dir, err)
	}
	city := strings.ToLower(a.City)

	var written []string
	writeJSON := func(name string, v interface{}) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	if err := writeJSON(city+"_walks.geojson", a.Walks); err != nil {
		return written, err
	}
	if err := writeJSON(city+"_covered_streets.geojson", a.Covered); err != nil {
		return written, err
	}
	if err := writeJSON(city+"_uncovered_streets.geojson", a.Uncovered); err != nil {
		return written, err
	}
	if err := writeJSON(city+"_stats.json", a.Stats); err != nil {
		return written, err
	}
	return written, nil
}
