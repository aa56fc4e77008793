package streettracker

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Warning type constants
const (
	// trace intake warnings
	WarningMalformedTrace = "malformed_trace"
	WarningEmptyTrace     = "empty_trace"
	WarningUnknownCity    = "unknown_city"

	// segmentation and classification warnings
	WarningShortTripsDiscarded = "short_trips_discarded"
	WarningTransitExcluded     = "transit_trip_excluded"
	WarningUnknownModeExcluded = "unknown_mode_excluded"

	// matching and merge warnings
	WarningDuplicateTrip   = "duplicate_trip"
	WarningUnmatchedPoints = "unmatched_points"
	WarningLowConfidence   = "low_confidence_dropped"
)

// warningInfo holds aggregated information about a specific warning type
type warningInfo struct {
	count    int
	examples []string
}

// WarningAggregator collects warnings during a run and outputs consolidated
// summaries instead of one log line per trace. Safe for concurrent use.
type WarningAggregator struct {
	mu       sync.Mutex
	warnings map[string]*warningInfo
}

// NewWarningAggregator creates a new warning aggregator
func NewWarningAggregator() *WarningAggregator {
	return &WarningAggregator{
		warnings: make(map[string]*warningInfo),
	}
}

// Add records a warning occurrence with an example ID
func (w *WarningAggregator) Add(warningType, exampleID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.warnings[warningType] == nil {
		w.warnings[warningType] = &warningInfo{
			examples: make([]string, 0, 3),
		}
	}

	info := w.warnings[warningType]
	info.count++

	// Store up to 3 examples
	if len(info.examples) < 3 {
		info.examples = append(info.examples, exampleID)
	}
}

// Count returns how many occurrences of a warning type were recorded.
func (w *WarningAggregator) Count(warningType string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if info := w.warnings[warningType]; info != nil {
		return info.count
	}
	return 0
}

// LogAll outputs all collected warnings in consolidated format
func (w *WarningAggregator) LogAll(runID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.warnings) == 0 {
		return
	}

	for warningType, info := range w.warnings {
		message := w.formatWarningMessage(warningType, runID, info)
		log.Printf("%s", message)
	}
}

// formatWarningMessage creates a human-readable warning message
func (w *WarningAggregator) formatWarningMessage(warningType, runID string, info *warningInfo) string {
	var description, action string

	switch warningType {
	case WarningMalformedTrace:
		description = "trace files that failed parsing or validation"
		action = "Skipping the trace"
	case WarningEmptyTrace:
		description = "trace files with no usable movement"
		action = "Skipping the file"
	case WarningUnknownCity:
		description = "traces outside every configured city"
		action = "Skipping the trace"
	case WarningShortTripsDiscarded:
		description = "traces with segments below the minimum point count"
		action = "Dropping the short segments as GPS noise"
	case WarningTransitExcluded:
		description = "trips classified as transit"
		action = "Excluding them from street coverage"
	case WarningUnknownModeExcluded:
		description = "trips too ambiguous to classify"
		action = "Excluding them from street coverage"
	case WarningDuplicateTrip:
		description = "trips already merged into coverage"
		action = "Keeping the existing coverage untouched"
	case WarningUnmatchedPoints:
		description = "walk trips with points matching no street"
		action = "Recording the unmatched runs as gaps"
	case WarningLowConfidence:
		description = "matched ranges below the confidence floor"
		action = "Dropping the ranges from coverage"
	default:
		description = "unknown issue"
		action = "Continuing with fallback behavior"
	}

	examplesStr := strings.Join(info.examples, ", ")

	return fmt.Sprintf("Run %s has %s (%d occurrences). %s. Examples: %s",
		runID, description, info.count, action, examplesStr)
}
