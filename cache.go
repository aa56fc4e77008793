package streettracker

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/aviseth/street-tracker/export"
)

type cachedResponse struct {
	generation uint64
	buf        []byte
}

// SnapshotCache memoizes rendered API payloads per city and artifact kind.
// Entries are keyed to the coverage generation that produced them, so a
// payload is rebuilt only after new trips merge.
type SnapshotCache struct {
	engine        *Engine
	mu            sync.Mutex
	responseCache map[string]cachedResponse
}

func NewSnapshotCache(e *Engine) *SnapshotCache {
	return &SnapshotCache{engine: e, responseCache: map[string]cachedResponse{}}
}

func (sc *SnapshotCache) memoKey(args ...string) string {
	var b bytes.Buffer
	for i, a := range args {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(a)
	}
	return b.String()
}

func (sc *SnapshotCache) lookup(key string, gen uint64) ([]byte, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if e, ok := sc.responseCache[key]; ok && e.generation == gen {
		return e.buf, true
	}
	return nil, false
}

func (sc *SnapshotCache) store(key string, gen uint64, buf []byte) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.responseCache[key] = cachedResponse{generation: gen, buf: buf}
}

// GetCoverageResponse returns the rendered covered/uncovered/stats payload
// for a city, rebuilding it when the city's coverage generation moved.
func (sc *SnapshotCache) GetCoverageResponse(city, kind string) ([]byte, error) {
	gen := sc.engine.Generation(city)
	key := sc.memoKey("coverage", city, kind)
	if buf, ok := sc.lookup(key, gen); ok {
		return buf, nil
	}

	idx := sc.engine.Index(city)
	snap, ok := sc.engine.Snapshot(city)
	if idx == nil || !ok {
		return nil, &QueryError{Msg: "No such city: " + city + "."}
	}

	var buf []byte
	var err error
	switch kind {
	case "covered":
		buf, err = json.Marshal(export.BuildCoveredStreets(idx, snap))
	case "uncovered":
		buf, err = json.Marshal(export.BuildUncoveredStreets(idx, snap))
	case "stats":
		buf, err = json.Marshal(export.BuildStats(idx, snap, time.Now().UTC()))
	default:
		return nil, &QueryError{Msg: "Unknown coverage artifact: " + kind + "."}
	}
	if err != nil {
		return nil, err
	}

	sc.store(key, gen, buf)
	return buf, nil
}

// GetCitiesResponse returns the per-city summary payload. The key covers
// every city's generation so any merge anywhere invalidates it.
func (sc *SnapshotCache) GetCitiesResponse() ([]byte, error) {
	var gen uint64
	for _, city := range sc.engine.Cities() {
		gen += sc.engine.Generation(city)
	}
	key := sc.memoKey("cities")
	if buf, ok := sc.lookup(key, gen); ok {
		return buf, nil
	}

	buf, err := buildCitiesResponse(sc.engine)
	if err != nil {
		return nil, err
	}

	sc.store(key, gen, buf)
	return buf, nil
}
