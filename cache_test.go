package streettracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/paulmach/orb/geojson"

	"github.com/aviseth/street-tracker/trace"
)

func sideWalkTrace(id string) trace.Trace {
	return trace.Trace{ID: id, Source: "gpx", Points: northPoints(2000, 100, 2, 1.4)}
}

func TestSnapshotCache_ServesCachedPayload(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	if err := e.ProcessTraces(ctx, []trace.Trace{walkTrace("walk-1")}); err != nil {
		t.Fatalf("ProcessTraces: %v", err)
	}
	sc := NewSnapshotCache(e)

	buf1, err := sc.GetCoverageResponse("testville", "covered")
	if err != nil {
		t.Fatalf("GetCoverageResponse: %v", err)
	}
	buf2, err := sc.GetCoverageResponse("testville", "covered")
	if err != nil {
		t.Fatalf("GetCoverageResponse again: %v", err)
	}
	if !bytes.Equal(buf1, buf2) {
		t.Error("expected identical cached payload for unchanged generation")
	}

	fc, err := geojson.UnmarshalFeatureCollection(buf1)
	if err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 covered street, got %d", len(fc.Features))
	}
}

func TestSnapshotCache_RebuildsAfterMerge(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	if err := e.ProcessTraces(ctx, []trace.Trace{walkTrace("walk-1")}); err != nil {
		t.Fatalf("ProcessTraces: %v", err)
	}
	sc := NewSnapshotCache(e)

	buf1, err := sc.GetCoverageResponse("testville", "covered")
	if err != nil {
		t.Fatalf("GetCoverageResponse: %v", err)
	}

	if err := e.ProcessTraces(ctx, []trace.Trace{sideWalkTrace("walk-2")}); err != nil {
		t.Fatalf("second walk: %v", err)
	}
	buf2, err := sc.GetCoverageResponse("testville", "covered")
	if err != nil {
		t.Fatalf("GetCoverageResponse after merge: %v", err)
	}
	if bytes.Equal(buf1, buf2) {
		t.Fatal("expected payload to be rebuilt after a merge")
	}

	fc, err := geojson.UnmarshalFeatureCollection(buf2)
	if err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("expected 2 covered streets, got %d", len(fc.Features))
	}
}

func TestSnapshotCache_UnknownCityAndKind(t *testing.T) {
	e := newTestEngine(t)
	sc := NewSnapshotCache(e)

	var qe *QueryError
	if _, err := sc.GetCoverageResponse("atlantis", "covered"); !errors.As(err, &qe) {
		t.Errorf("expected QueryError for unknown city, got %v", err)
	}
	if _, err := sc.GetCoverageResponse("testville", "sideways"); !errors.As(err, &qe) {
		t.Errorf("expected QueryError for unknown kind, got %v", err)
	}
}

func TestSnapshotCache_CitiesPayloadTracksMerges(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	sc := NewSnapshotCache(e)

	decode := func(buf []byte) citiesResponse {
		var resp citiesResponse
		if err := json.Unmarshal(buf, &resp); err != nil {
			t.Fatalf("failed to decode cities payload: %v", err)
		}
		return resp
	}

	buf, err := sc.GetCitiesResponse()
	if err != nil {
		t.Fatalf("GetCitiesResponse: %v", err)
	}
	if got := decode(buf).Cities[0].CoveredStreets; got != 0 {
		t.Errorf("expected 0 covered streets before any merge, got %d", got)
	}

	if err := e.ProcessTraces(ctx, []trace.Trace{walkTrace("walk-1")}); err != nil {
		t.Fatalf("ProcessTraces: %v", err)
	}
	buf, err = sc.GetCitiesResponse()
	if err != nil {
		t.Fatalf("GetCitiesResponse after merge: %v", err)
	}
	if got := decode(buf).Cities[0].CoveredStreets; got != 1 {
		t.Errorf("expected 1 covered street after merge, got %d", got)
	}
}
