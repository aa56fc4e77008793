package streettracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/aviseth/street-tracker/coverage"
	"github.com/aviseth/street-tracker/export"
	"github.com/aviseth/street-tracker/matching"
	"github.com/aviseth/street-tracker/streets"
	"github.com/aviseth/street-tracker/trace"
	"github.com/aviseth/street-tracker/trips"
)

// attributionProbePoints bounds how many leading fixes are tested against
// city boxes before a trace is declared out of area.
const attributionProbePoints = 10

// cityPipeline bundles the per-city components that share one street index.
type cityPipeline struct {
	cfg        CityConfig
	index      *streets.Index
	classifier trips.Classifier
	matcher    *matching.Matcher
	agg        *coverage.Aggregator
	bound      orb.Bound // attribution box: config override or network extent
}

// Report summarizes one processing run.
type Report struct {
	TracesRead     int
	TripsSegmented int
	ShortDiscarded int
	WalkTrips      int
	TransitTrips   int
	UnknownTrips   int
	TripsMerged    int
	Duplicates     int
}

func (r *Report) add(o Report) {
	r.TracesRead += o.TracesRead
	r.TripsSegmented += o.TripsSegmented
	r.ShortDiscarded += o.ShortDiscarded
	r.WalkTrips += o.WalkTrips
	r.TransitTrips += o.TransitTrips
	r.UnknownTrips += o.UnknownTrips
	r.TripsMerged += o.TripsMerged
	r.Duplicates += o.Duplicates
}

// Engine drives the trace pipeline: read, segment, classify, match, merge.
// One Engine handles every configured city; each trace is attributed to a
// city by bounding box and flows through that city's components. Safe for
// concurrent use by the worker pool and the HTTP handlers.
type Engine struct {
	cfg       AppConfig
	store     *coverage.Store // nil keeps coverage in memory only
	runID     string
	started   time.Time
	cities    []string // configured order, lowercased
	pipes     map[string]*cityPipeline
	segmenter trips.Segmenter
	warnings  *WarningAggregator
	forced    string // non-empty pins attribution to one city

	mu     sync.Mutex
	walks  map[string][]export.Walk // city -> walks merged this run
	report Report
}

// NewEngine loads every configured city's street network and prior coverage
// state. store may be nil for in-memory runs.
func NewEngine(cfg AppConfig, store *coverage.Store) (*Engine, error) {
	if len(cfg.Cities) == 0 {
		return nil, errors.New("no cities configured")
	}

	e := &Engine{
		cfg:     cfg,
		store:   store,
		runID:   uuid.New().String(),
		started: time.Now().UTC(),
		pipes:   make(map[string]*cityPipeline, len(cfg.Cities)),
		segmenter: trips.Segmenter{
			MaxGap:        time.Duration(cfg.Engine.MaxGapSeconds) * time.Second,
			MaxGapMeters:  cfg.Engine.MaxGapMeters,
			MinTripPoints: cfg.Engine.MinTripPoints,
		},
		warnings: NewWarningAggregator(),
		walks:    make(map[string][]export.Walk),
	}

	for _, c := range cfg.Cities {
		name := strings.ToLower(c.Name)
		if _, dup := e.pipes[name]; dup {
			return nil, fmt.Errorf("duplicate city %q in config", name)
		}

		idx, err := loadCityIndex(c, name, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load street network for %s: %w", name, err)
		}

		state := coverage.NewState(name)
		if store != nil {
			state, err = store.LoadState(context.Background(), name)
			if err != nil {
				return nil, fmt.Errorf("failed to load coverage state for %s: %w", name, err)
			}
		}

		pipe := &cityPipeline{
			cfg:   c,
			index: idx,
			classifier: trips.Classifier{
				MaxWalkSpeedMS:       c.MaxWalkSpeedMS,
				MinWalkSpeedMS:       c.MinWalkSpeedMS,
				TransitPointFraction: cfg.Engine.TransitPointFraction,
				MaxDirectDistanceM:   c.MaxDirectDistanceM,
				MinSinuosity:         c.MinSinuosity,
				StraightLineMinM:     cfg.Engine.StraightLineMinM,
				CrawlDirectMinM:      cfg.Engine.CrawlDirectMinM,
				MinWalkDurationS:     cfg.Engine.MinWalkDurationS,
				MinWalkDistanceM:     cfg.Engine.MinWalkDistanceM,
				MinSpeedPoints:       cfg.Engine.MinTripPoints,
			},
			matcher: &matching.Matcher{
				Index:           idx,
				RadiusM:         c.MatchRadiusM,
				MinConfidence:   cfg.Engine.MinMatchConfidence,
				BridgeMaxPoints: cfg.Engine.GapBridgePoints,
			},
			agg: coverage.NewAggregator(state),
		}
		if b, ok := c.Bound(); ok {
			pipe.bound = b
		} else {
			pipe.bound = idx.BBox
		}

		e.pipes[name] = pipe
		e.cities = append(e.cities, name)
		log.Printf("Loaded street network for %s: %d segments (%.1f km), %d trips already merged",
			name, idx.Count(), idx.TotalLengthKM(), len(state.Processed))
	}

	return e, nil
}

// loadCityIndex builds the street index, going through the serialized cache
// when one is configured and still newer than the network source.
func loadCityIndex(c CityConfig, name string, cfg AppConfig) (*streets.Index, error) {
	var cachePath string
	if cfg.Storage.CacheDir != "" {
		cachePath = filepath.Join(cfg.Storage.CacheDir, name+".streets.gob")
		if idx, err := streets.LoadIndexIfFresh(cachePath, c.NetworkPath); err == nil && idx != nil {
			return idx, nil
		}
	}

	segments, err := streets.LoadNetwork(c.NetworkPath, name)
	if err != nil {
		return nil, err
	}
	idx := streets.NewIndex(name, segments, cfg.Engine.GridCellM)

	if cachePath != "" {
		err := os.MkdirAll(cfg.Storage.CacheDir, 0755)
		if err == nil {
			err = streets.SaveIndexFile(idx, cachePath)
		}
		if err != nil {
			log.Printf("Failed to cache street index for %s: %v", name, err)
		}
	}
	return idx, nil
}

// RunID identifies this engine's processing run.
func (e *Engine) RunID() string { return e.runID }

// Cities returns the configured city names in config order.
func (e *Engine) Cities() []string {
	out := make([]string, len(e.cities))
	copy(out, e.cities)
	return out
}

// HasCity reports whether a city is configured.
func (e *Engine) HasCity(name string) bool {
	_, ok := e.pipes[strings.ToLower(name)]
	return ok
}

// Index returns a city's street index, or nil for unknown cities.
func (e *Engine) Index(city string) *streets.Index {
	if pipe := e.pipes[strings.ToLower(city)]; pipe != nil {
		return pipe.index
	}
	return nil
}

// Snapshot returns a copy of a city's coverage state.
func (e *Engine) Snapshot(city string) (coverage.Snapshot, bool) {
	pipe := e.pipes[strings.ToLower(city)]
	if pipe == nil {
		return coverage.Snapshot{}, false
	}
	return pipe.agg.Snapshot(), true
}

// Generation returns a city's merge generation counter.
func (e *Engine) Generation(city string) uint64 {
	if pipe := e.pipes[strings.ToLower(city)]; pipe != nil {
		return pipe.agg.Generation()
	}
	return 0
}

// Walks returns the walks merged for a city during this run.
func (e *Engine) Walks(city string) []export.Walk {
	e.mu.Lock()
	defer e.mu.Unlock()
	walks := e.walks[strings.ToLower(city)]
	out := make([]export.Walk, len(walks))
	copy(out, walks)
	return out
}

// Report returns the run counters so far.
func (e *Engine) Report() Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report
}

// Warnings exposes the run's warning aggregator.
func (e *Engine) Warnings() *WarningAggregator { return e.warnings }

// ForceCity pins every trace to one configured city, skipping bounding-box
// attribution.
func (e *Engine) ForceCity(name string) error {
	name = strings.ToLower(name)
	if _, ok := e.pipes[name]; !ok {
		return fmt.Errorf("unknown city %q", name)
	}
	e.forced = name
	return nil
}

// cityFor attributes a trace to the first configured city whose box contains
// one of its leading fixes. Config order breaks ties between overlapping
// boxes; the empty string means out of area.
func (e *Engine) cityFor(tr trace.Trace) string {
	if e.forced != "" {
		return e.forced
	}
	if tr.City != "" && e.HasCity(tr.City) {
		return strings.ToLower(tr.City)
	}
	limit := len(tr.Points)
	if limit > attributionProbePoints {
		limit = attributionProbePoints
	}
	for _, name := range e.cities {
		pipe := e.pipes[name]
		for i := 0; i < limit; i++ {
			if pipe.bound.Contains(tr.Points[i].Point()) {
				return name
			}
		}
	}
	return ""
}

// ProcessFiles reads every trace file and feeds the traces through the
// pipeline. Unreadable files and files without movement are logged and
// skipped; storage failures abort the run.
func (e *Engine) ProcessFiles(ctx context.Context, paths []string) error {
	var all []trace.Trace
	for _, path := range paths {
		traces, err := trace.ReadFile(path)
		if err != nil {
			e.warnings.Add(WarningMalformedTrace, filepath.Base(path))
			continue
		}
		if len(traces) == 0 {
			e.warnings.Add(WarningEmptyTrace, filepath.Base(path))
			continue
		}
		all = append(all, traces...)
	}
	log.Printf("Run %s: processing %d traces from %d files", e.runID, len(all), len(paths))
	return e.ProcessTraces(ctx, all)
}

// ProcessTraces fans the traces out over the worker pool. The first fatal
// error is returned after all workers drain; per-trace data problems become
// warnings instead.
func (e *Engine) ProcessTraces(ctx context.Context, traces []trace.Trace) error {
	workers := e.cfg.Engine.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan trace.Trace)
	errc := make(chan error, 1)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tr := range jobs {
				if err := e.processTrace(ctx, tr); err != nil {
					select {
					case errc <- err:
					default:
					}
				}
			}
		}()
	}

feed:
	for _, tr := range traces {
		select {
		case jobs <- tr:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errc:
		return err
	default:
	}
	return ctx.Err()
}

// processTrace runs one trace through segment, classify, match and merge.
// Returned errors are fatal to the run; anything recoverable is a warning.
func (e *Engine) processTrace(ctx context.Context, tr trace.Trace) error {
	var stats Report
	var newWalks []export.Walk
	stats.TracesRead = 1

	defer func() {
		e.mu.Lock()
		e.report.add(stats)
		for _, w := range newWalks {
			e.walks[w.City] = append(e.walks[w.City], w)
		}
		e.mu.Unlock()
	}()

	if err := tr.Validate(); err != nil {
		e.warnings.Add(WarningMalformedTrace, tr.ID)
		return nil
	}

	city := e.cityFor(tr)
	if city == "" {
		e.warnings.Add(WarningUnknownCity, tr.ID)
		return nil
	}
	tr.City = city
	pipe := e.pipes[city]

	segmented, discarded := e.segmenter.Segment(tr)
	stats.TripsSegmented += len(segmented)
	stats.ShortDiscarded += discarded
	if discarded > 0 {
		e.warnings.Add(WarningShortTripsDiscarded, fmt.Sprintf("%s (%d)", tr.ID, discarded))
	}

	for i := range segmented {
		t := &segmented[i]
		res := pipe.classifier.Classify(*t)
		t.Mode = res.Mode

		switch res.Mode {
		case trips.ModeTransit:
			stats.TransitTrips++
			e.warnings.Add(WarningTransitExcluded, fmt.Sprintf("%s (%s)", t.ID, res.Rule))
			continue
		case trips.ModeUnknown:
			stats.UnknownTrips++
			e.warnings.Add(WarningUnknownModeExcluded, fmt.Sprintf("%s (%s)", t.ID, res.Rule))
			continue
		}
		stats.WalkTrips++

		match, err := pipe.matcher.Match(*t)
		if err != nil {
			return fmt.Errorf("failed to match trip %s: %w", t.ID, err)
		}
		if match.UnmatchedPoints > 0 {
			e.warnings.Add(WarningUnmatchedPoints, fmt.Sprintf("%s (%d points)", t.ID, match.UnmatchedPoints))
		}
		if match.LowConfidenceDropped > 0 {
			e.warnings.Add(WarningLowConfidence, fmt.Sprintf("%s (%d ranges)", t.ID, match.LowConfidenceDropped))
		}

		merged, err := pipe.agg.Merge(match)
		if err != nil {
			return fmt.Errorf("failed to merge trip %s: %w", t.ID, err)
		}
		if !merged {
			stats.Duplicates++
			e.warnings.Add(WarningDuplicateTrip, t.ID)
			continue
		}
		if e.store != nil {
			if _, err := e.store.MergeResult(ctx, e.runID, match); err != nil {
				return fmt.Errorf("failed to persist trip %s: %w", t.ID, err)
			}
		}
		stats.TripsMerged++
		newWalks = append(newWalks, walkFromTrip(t))
	}
	return nil
}

func walkFromTrip(t *trips.Trip) export.Walk {
	line := make(orb.LineString, len(t.Points))
	for i, p := range t.Points {
		line[i] = p.Point()
	}
	return export.Walk{
		TripID:     t.ID,
		City:       t.City,
		Start:      t.Start(),
		DistanceM:  t.PathDistanceM,
		Duration:   t.Duration,
		AvgSpeedMS: t.AvgSpeedMS,
		Line:       line,
	}
}

// ExportCity writes the four coverage artifacts for one city.
func (e *Engine) ExportCity(city, dir string) ([]string, error) {
	city = strings.ToLower(city)
	pipe := e.pipes[city]
	if pipe == nil {
		return nil, fmt.Errorf("unknown city %q", city)
	}
	artifacts := export.Build(pipe.index, pipe.agg.Snapshot(), e.Walks(city), time.Now().UTC())
	return artifacts.Write(dir)
}

// ExportAll writes artifacts for every configured city.
func (e *Engine) ExportAll(dir string) ([]string, error) {
	var written []string
	for _, city := range e.cities {
		paths, err := e.ExportCity(city, dir)
		if err != nil {
			return written, err
		}
		written = append(written, paths...)
	}
	return written, nil
}

// FinishRun logs the consolidated warnings and the run counters, then
// records one audit row per city that merged trips when a store is attached.
func (e *Engine) FinishRun(ctx context.Context) error {
	e.warnings.LogAll(e.runID)
	rep := e.Report()
	log.Printf("Run %s: %d traces, %d trips (%d walk, %d transit, %d unknown), %d merged, %d duplicates, %d short segments discarded",
		e.runID, rep.TracesRead, rep.TripsSegmented, rep.WalkTrips, rep.TransitTrips,
		rep.UnknownTrips, rep.TripsMerged, rep.Duplicates, rep.ShortDiscarded)

	if e.store == nil {
		return nil
	}
	finished := time.Now().UTC()
	for _, city := range e.cities {
		merged := len(e.Walks(city))
		if merged == 0 {
			continue
		}
		sum := coverage.RunSummary{
			RunID:       e.runID,
			City:        city,
			StartedAt:   e.started,
			FinishedAt:  finished,
			Traces:      rep.TracesRead,
			TripsMerged: merged,
		}
		if err := e.store.RecordRun(ctx, sum); err != nil {
			return fmt.Errorf("failed to record run for %s: %w", city, err)
		}
	}
	return nil
}
