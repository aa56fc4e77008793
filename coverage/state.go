package coverage

// SegmentCoverage is the accumulated walking history of one street
// segment. Covered is one-way: once a walk touches a segment it stays
// covered forever, and no field ever moves backwards.
type SegmentCoverage struct {
	SegmentID      string
	Covered        bool
	FirstCoveredAt int64 // unix seconds of the earliest matched walk
	LastWalkedAt   int64 // unix seconds of the latest matched walk
	TimesWalked    int   // distinct merged trips that touched the segment
}

// State is one city's coverage ground truth. Processed maps merged trip
// IDs to their trip start (unix seconds); its keys are what make merging
// idempotent. Mutate State only through Aggregator.Merge.
type State struct {
	City      string
	Segments  map[string]*SegmentCoverage
	Processed map[string]int64
}

// NewState returns an empty coverage state for a city.
func NewState(city string) *State {
	return &State{
		City:      city,
		Segments:  map[string]*SegmentCoverage{},
		Processed: map[string]int64{},
	}
}

// CoveredCount returns how many segments are covered so far.
func (s *State) CoveredCount() int {
	n := 0
	for _, sc := range s.Segments {
		if sc.Covered {
			n++
		}
	}
	return n
}
