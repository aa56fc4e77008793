package coverage

import (
	"fmt"
	"sync"

	"github.com/aviseth/street-tracker/matching"
)

// Aggregator folds match results into one city's coverage state. It is
// the single mutation path for State and is safe for concurrent use:
// parallel matcher workers all merge through the same mutex.
//
// Merge is idempotent (a trip merges once, ever) and commutative (only
// min, max, sum and one-way OR touch the state), so replaying results in
// any order converges on the same state.
type Aggregator struct {
	mu         sync.Mutex
	state      *State
	generation uint64
}

// NewAggregator wraps an existing state, typically loaded from the
// store, or a fresh NewState.
func NewAggregator(state *State) *Aggregator {
	return &Aggregator{state: state}
}

// Merge applies one trip's match result. It returns false when the trip
// was already merged, and an error only for a city mismatch, which is a
// programming error upstream, never a data condition.
func (a *Aggregator) Merge(res matching.MatchResult) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if res.City != a.state.City {
		return false, fmt.Errorf("cannot merge %s trip %s into %s coverage state", res.City, res.TripID, a.state.City)
	}
	if _, done := a.state.Processed[res.TripID]; done {
		return false, nil
	}

	for _, span := range segmentSpans(res) {
		sc, ok := a.state.Segments[span.segID]
		if !ok {
			sc = &SegmentCoverage{SegmentID: span.segID}
			a.state.Segments[span.segID] = sc
		}
		if !sc.Covered {
			sc.Covered = true
			sc.FirstCoveredAt = span.first
			sc.LastWalkedAt = span.last
		} else {
			if span.first < sc.FirstCoveredAt {
				sc.FirstCoveredAt = span.first
			}
			if span.last > sc.LastWalkedAt {
				sc.LastWalkedAt = span.last
			}
		}
		sc.TimesWalked++
	}

	a.state.Processed[res.TripID] = res.TripStart.Unix()
	a.generation++
	return true, nil
}

// Generation returns the monotonic merge counter. Cached responses keyed
// on it go stale exactly when a merge lands.
func (a *Aggregator) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// Snapshot is a read-only copy of the aggregator's state at one
// generation. Mutating a snapshot never touches the live state.
type Snapshot struct {
	City        string
	Generation  uint64
	TripsMerged int
	Segments    map[string]SegmentCoverage
}

// Snapshot deep-copies the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	segs := make(map[string]SegmentCoverage, len(a.state.Segments))
	for id, sc := range a.state.Segments {
		segs[id] = *sc
	}
	return Snapshot{
		City:        a.state.City,
		Generation:  a.generation,
		TripsMerged: len(a.state.Processed),
		Segments:    segs,
	}
}

// segmentSpan is one distinct segment's time envelope within a single
// match result: across a trip, a revisited segment counts once, with the
// earliest and latest touch times.
type segmentSpan struct {
	segID string
	first int64
	last  int64
}

func segmentSpans(res matching.MatchResult) []segmentSpan {
	byID := map[string]int{}
	var spans []segmentSpan
	for _, m := range res.Matches {
		first, last := m.FirstTime.Unix(), m.LastTime.Unix()
		i, ok := byID[m.SegmentID]
		if !ok {
			byID[m.SegmentID] = len(spans)
			spans = append(spans, segmentSpan{segID: m.SegmentID, first: first, last: last})
			continue
		}
		if first < spans[i].first {
			spans[i].first = first
		}
		if last > spans[i].last {
			spans[i].last = last
		}
	}
	return spans
}
