package trips

import (
	"math"
	"sort"
)

// Rule names recorded on classification results.
const (
	RuleTooFewPoints = "too_few_points"
	RuleAvgSpeed     = "avg_speed_above_ceiling"
	RuleFastFraction = "fast_point_fraction"
	RuleTooFar       = "direct_distance_too_far"
	RuleStraightLine = "straight_line"
	RuleCrawl        = "vehicle_crawl"
	RuleTooShort     = "too_short_to_trust"
	RuleWalk         = "walk"
)

// Confidence bounds for rule-based classification.
const (
	minRuleConfidence = 0.50
	maxRuleConfidence = 0.99
)

// Classifier labels a trip WALK, TRANSIT or UNKNOWN from its speed and
// shape statistics. Thresholds are per-city tuning values; nothing here is
// hard-coded. Transit trips must never contribute street coverage, so every
// rule errs toward TRANSIT or UNKNOWN when in doubt.
type Classifier struct {
	MaxWalkSpeedMS       float64 // per-city walking-speed ceiling
	MinWalkSpeedMS       float64 // below this a moving trip is a vehicle crawl
	TransitPointFraction float64 // fraction of legs above the ceiling that flips to TRANSIT
	MaxDirectDistanceM   float64 // nobody walks farther than this in one trip
	MinSinuosity         float64 // long near-perfect lines are rail
	StraightLineMinM     float64 // direct distance before the sinuosity rule applies
	CrawlDirectMinM      float64 // direct distance before the crawl rule applies
	MinWalkDurationS     float64
	MinWalkDistanceM     float64
	MinSpeedPoints       int // fewer points than this is UNKNOWN
}

// Result is one classification outcome: the mode, the first rule that
// matched, and a rule-specific confidence in [0.5, 0.99].
type Result struct {
	Mode       string
	Rule       string
	Confidence float64
}

// Classify labels a trip. Rules apply in priority order; the first match
// wins.
func (c Classifier) Classify(t Trip) Result {
	if len(t.Points) < c.MinSpeedPoints || t.Duration <= 0 {
		return Result{Mode: ModeUnknown, Rule: RuleTooFewPoints, Confidence: minRuleConfidence}
	}

	if c.MaxWalkSpeedMS > 0 && t.AvgSpeedMS > c.MaxWalkSpeedMS {
		margin := t.AvgSpeedMS/c.MaxWalkSpeedMS - 1
		return Result{Mode: ModeTransit, Rule: RuleAvgSpeed, Confidence: clampConfidence(0.7 + margin*0.5)}
	}

	if frac := c.fastLegFraction(t); c.TransitPointFraction > 0 && frac > c.TransitPointFraction {
		return Result{Mode: ModeTransit, Rule: RuleFastFraction, Confidence: clampConfidence(0.6 + frac*0.4)}
	}

	if c.MaxDirectDistanceM > 0 && t.DirectDistanceM > c.MaxDirectDistanceM {
		margin := t.DirectDistanceM/c.MaxDirectDistanceM - 1
		return Result{Mode: ModeTransit, Rule: RuleTooFar, Confidence: clampConfidence(0.75 + margin*0.25)}
	}

	if c.MinSinuosity > 0 && t.Sinuosity > 0 && t.Sinuosity < c.MinSinuosity &&
		t.DirectDistanceM > c.StraightLineMinM {
		return Result{Mode: ModeTransit, Rule: RuleStraightLine, Confidence: clampConfidence(0.65 + (c.MinSinuosity-t.Sinuosity)*4)}
	}

	if c.MinWalkSpeedMS > 0 && t.AvgSpeedMS < c.MinWalkSpeedMS &&
		t.DirectDistanceM > c.CrawlDirectMinM {
		return Result{Mode: ModeTransit, Rule: RuleCrawl, Confidence: clampConfidence(0.6 + (c.MinWalkSpeedMS-t.AvgSpeedMS)*0.5)}
	}

	if t.Duration.Seconds() < c.MinWalkDurationS || t.PathDistanceM < c.MinWalkDistanceM {
		return Result{Mode: ModeUnknown, Rule: RuleTooShort, Confidence: minRuleConfidence}
	}

	// how far below the ceiling the trip sits scales walk confidence
	conf := 0.8
	if c.MaxWalkSpeedMS > 0 {
		conf += 0.15 * (1 - t.AvgSpeedMS/c.MaxWalkSpeedMS)
	}
	return Result{Mode: ModeWalk, Rule: RuleWalk, Confidence: clampConfidence(conf)}
}

// fastLegFraction returns the fraction of legs faster than the walking
// ceiling. A brief walk bracketing a transit ride keeps the trip average
// low; the per-leg fraction still exposes the ride.
func (c Classifier) fastLegFraction(t Trip) float64 {
	if len(t.LegSpeedsMS) == 0 || c.MaxWalkSpeedMS <= 0 {
		return 0
	}
	fast := 0
	for _, v := range t.LegSpeedsMS {
		if v > c.MaxWalkSpeedMS {
			fast++
		}
	}
	return float64(fast) / float64(len(t.LegSpeedsMS))
}

func clampConfidence(v float64) float64 {
	if v > maxRuleConfidence {
		return maxRuleConfidence
	}
	if v < minRuleConfidence {
		return minRuleConfidence
	}
	return v
}

// percentile returns the p-th percentile of values using the sorted-index
// method. An empty slice yields 0.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Floor(float64(len(sorted)) * p))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
