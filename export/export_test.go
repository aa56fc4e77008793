package export

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/aviseth/street-tracker/coverage"
	"github.com/aviseth/street-tracker/streets"
)

var exportNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func exportIndex(t *testing.T) *streets.Index {
	t.Helper()
	segments := []streets.Segment{
		{ID: "seg-a", Name: "Alpha Road", Geometry: orb.LineString{{0, 0}, {0.001, 0}}, LengthM: 100},
		{ID: "seg-b", Name: "Beta Lane", Geometry: orb.LineString{{0, 0.001}, {0.001, 0.001}}, LengthM: 200},
		{ID: "seg-c", Name: "Gamma Way", Geometry: orb.LineString{{0, 0.002}, {0.001, 0.002}}, LengthM: 300},
	}
	return streets.NewIndex("testville", segments, 250)
}

func exportSnapshot() coverage.Snapshot {
	return coverage.Snapshot{
		City:        "testville",
		Generation:  3,
		TripsMerged: 2,
		Segments: map[string]coverage.SegmentCoverage{
			"seg-a": {SegmentID: "seg-a", Covered: true, FirstCoveredAt: 1700000000, LastWalkedAt: 1700090000, TimesWalked: 2},
			"seg-c": {SegmentID: "seg-c", Covered: true, FirstCoveredAt: 1700000000, LastWalkedAt: 1700000600, TimesWalked: 1},
		},
	}
}

func TestBuildCoveredStreets(t *testing.T) {
	fc := BuildCoveredStreets(exportIndex(t), exportSnapshot())

	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 covered features, got %d", len(fc.Features))
	}
	// index order, not map order
	if got := fc.Features[0].Properties["street_id"]; got != "seg-a" {
		t.Errorf("expected seg-a first, got %v", got)
	}
	if got := fc.Features[1].Properties["street_id"]; got != "seg-c" {
		t.Errorf("expected seg-c second, got %v", got)
	}

	props := fc.Features[0].Properties
	if props["name"] != "Alpha Road" {
		t.Errorf("expected name Alpha Road, got %v", props["name"])
	}
	if props["times_walked"] != 2 {
		t.Errorf("expected times_walked 2, got %v", props["times_walked"])
	}
	if props["first_covered_at"] != int64(1700000000) {
		t.Errorf("expected first_covered_at 1700000000, got %v", props["first_covered_at"])
	}
}

func TestBuildUncoveredStreets(t *testing.T) {
	fc := BuildUncoveredStreets(exportIndex(t), exportSnapshot())

	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 uncovered feature, got %d", len(fc.Features))
	}
	props := fc.Features[0].Properties
	if props["street_id"] != "seg-b" || props["name"] != "Beta Lane" {
		t.Errorf("expected seg-b / Beta Lane, got %v / %v", props["street_id"], props["name"])
	}
	if _, ok := props["times_walked"]; ok {
		t.Error("uncovered streets must not carry walk history")
	}
}

func TestBuildStats(t *testing.T) {
	s := BuildStats(exportIndex(t), exportSnapshot(), exportNow)

	if s.City != "testville" {
		t.Errorf("expected city testville, got %s", s.City)
	}
	if s.TotalStreets != 3 || s.CoveredStreets != 2 {
		t.Errorf("expected 2/3 streets covered, got %d/%d", s.CoveredStreets, s.TotalStreets)
	}
	if math.Abs(s.TotalKM-0.6) > 1e-9 || math.Abs(s.CoveredKM-0.4) > 1e-9 {
		t.Errorf("expected 0.4/0.6 km, got %f/%f", s.CoveredKM, s.TotalKM)
	}
	if math.Abs(s.CoveragePercent-100.0*0.4/0.6) > 1e-9 {
		t.Errorf("expected length-weighted percent %.4f, got %.4f", 100.0*0.4/0.6, s.CoveragePercent)
	}
	if s.TripsMerged != 2 {
		t.Errorf("expected 2 merged trips, got %d", s.TripsMerged)
	}
	if s.GeneratedAt != "2024-03-10T12:00:00Z" {
		t.Errorf("unexpected generated_at %q", s.GeneratedAt)
	}
}

func TestBuildStats_EmptyNetwork(t *testing.T) {
	idx := streets.NewIndex("empty", nil, 250)
	s := BuildStats(idx, coverage.Snapshot{City: "empty"}, exportNow)

	if s.CoveragePercent != 0 {
		t.Errorf("expected 0%% for an empty network, got %f", s.CoveragePercent)
	}
}

func TestBuildWalks_OrdersByStart(t *testing.T) {
	walks := []Walk{
		{TripID: "late", Start: exportNow.Add(time.Hour), Line: orb.LineString{{0, 0}, {0.001, 0}}},
		{TripID: "early", Start: exportNow, Line: orb.LineString{{0, 0}, {0.001, 0}}},
		{TripID: "early-b", Start: exportNow, Line: orb.LineString{{0, 0}, {0.001, 0}}},
	}
	fc := BuildWalks(walks)

	if len(fc.Features) != 3 {
		t.Fatalf("expected 3 walk features, got %d", len(fc.Features))
	}
	order := []string{"early", "early-b", "late"}
	for i, want := range order {
		if got := fc.Features[i].Properties["trip_id"]; got != want {
			t.Errorf("feature %d: expected trip %s, got %v", i, want, got)
		}
	}
}

func TestBuildWalks_Properties(t *testing.T) {
	w := Walk{
		TripID:     "w1",
		City:       "testville",
		Start:      exportNow,
		DistanceM:  693.5,
		Duration:   495 * time.Second,
		AvgSpeedMS: 1.4,
		Line:       orb.LineString{{0, 0}, {0.006, 0}},
	}
	fc := BuildWalks([]Walk{w})

	props := fc.Features[0].Properties
	if props["start"] != "2024-03-10T12:00:00Z" {
		t.Errorf("unexpected start %v", props["start"])
	}
	if props["duration_s"] != 495 {
		t.Errorf("expected duration_s 495, got %v", props["duration_s"])
	}
	if props["distance_m"] != 693.5 {
		t.Errorf("expected distance_m 693.5, got %v", props["distance_m"])
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	idx := exportIndex(t)
	snap := exportSnapshot()

	walks := []Walk{{
		TripID: "w1", City: "testville", Start: exportNow,
		DistanceM: 500, Duration: 6 * time.Minute, AvgSpeedMS: 1.39,
		Line: orb.LineString{{0, 0}, {0.004, 0}},
	}}
	a := Build(idx, snap, walks, exportNow)

	paths, err := a.Write(dir)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("expected 4 artifacts, got %d", len(paths))
	}

	want := []string{
		"testville_walks.geojson",
		"testville_covered_streets.geojson",
		"testville_uncovered_streets.geojson",
		"testville_stats.json",
	}
	for i, name := range want {
		if filepath.Base(paths[i]) != name {
			t.Errorf("artifact %d: expected %s, got %s", i, name, filepath.Base(paths[i]))
		}
	}

	covered, err := os.ReadFile(filepath.Join(dir, "testville_covered_streets.geojson"))
	if err != nil {
		t.Fatalf("failed to read covered artifact: %v", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(covered)
	if err != nil {
		t.Fatalf("covered artifact is not valid GeoJSON: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("expected 2 covered features on disk, got %d", len(fc.Features))
	}

	statsData, err := os.ReadFile(filepath.Join(dir, "testville_stats.json"))
	if err != nil {
		t.Fatalf("failed to read stats artifact: %v", err)
	}
	var s Stats
	if err := json.Unmarshal(statsData, &s); err != nil {
		t.Fatalf("stats artifact is not valid JSON: %v", err)
	}
	if s.CoveredStreets != 2 || s.TripsMerged != 2 {
		t.Errorf("unexpected stats on disk: %+v", s)
	}
}
