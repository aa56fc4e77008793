package trips

import (
	"testing"
	"time"

	"github.com/aviseth/street-tracker/trace"
)

func testClassifier() Classifier {
	// london tuning values
	return Classifier{
		MaxWalkSpeedMS:       2.5,
		MinWalkSpeedMS:       0.2,
		TransitPointFraction: 0.3,
		MaxDirectDistanceM:   8000,
		MinSinuosity:         1.05,
		StraightLineMinM:     2000,
		CrawlDirectMinM:      500,
		MinWalkDurationS:     60,
		MinWalkDistanceM:     100,
		MinSpeedPoints:       5,
	}
}

// tripFrom builds a single classified-ready trip from raw points.
func tripFrom(t *testing.T, points []trace.GeoPoint) Trip {
	t.Helper()
	return newTrip(trace.Trace{ID: "test-trace"}, 0, points)
}

// alternatingPoints interleaves slow and fast legs: slowM meters then fastM
// meters, each over the step interval.
func alternatingPoints(t *testing.T, n int, slowM, fastM float64, step time.Duration) []trace.GeoPoint {
	t.Helper()
	pts := make([]trace.GeoPoint, n)
	lon := 0.0
	for i := range pts {
		pts[i] = trace.GeoPoint{Time: segStart.Add(time.Duration(i) * step), Lat: 0, Lon: lon}
		if i%2 == 0 {
			lon += slowM / 111320.0
		} else {
			lon += fastM / 111320.0
		}
	}
	return pts
}

func TestClassify_Rules(t *testing.T) {
	c := testClassifier()

	tests := []struct {
		name     string
		trip     Trip
		wantMode string
		wantRule string
	}{
		{
			name:     "steady walk",
			trip:     tripFrom(t, walkPoints(t, segStart, 0, 100, 7, 5*time.Second)), // 1.4 m/s, 693 m
			wantMode: ModeWalk,
			wantRule: RuleWalk,
		},
		{
			name:     "bus ride by average speed",
			trip:     tripFrom(t, walkPoints(t, segStart, 0, 60, 40, 5*time.Second)), // 8 m/s
			wantMode: ModeTransit,
			wantRule: RuleAvgSpeed,
		},
		{
			name: "fast legs flip a slow average",
			// legs alternate 1.0 and 3.0 m/s: avg 2.0 is under the 2.5
			// ceiling but half the legs are over it
			trip:     tripFrom(t, alternatingPoints(t, 80, 5, 15, 5*time.Second)),
			wantMode: ModeTransit,
			wantRule: RuleFastFraction,
		},
		{
			name:     "too few points",
			trip:     tripFrom(t, walkPoints(t, segStart, 0, 3, 7, 5*time.Second)),
			wantMode: ModeUnknown,
			wantRule: RuleTooFewPoints,
		},
		{
			name:     "too short to trust",
			trip:     tripFrom(t, walkPoints(t, segStart, 0, 8, 6, 5*time.Second)), // 35 s, 42 m
			wantMode: ModeUnknown,
			wantRule: RuleTooShort,
		},
		{
			name: "long perfect line is rail",
			// 2.0 m/s dead straight for 2.5 km: under the speed ceiling but
			// no street walk is that straight for that long
			trip:     tripFrom(t, walkPoints(t, segStart, 0, 251, 10, 5*time.Second)),
			wantMode: ModeTransit,
			wantRule: RuleStraightLine,
		},
		{
			name:     "stop-and-go vehicle crawl",
			trip:     tripFrom(t, walkPoints(t, segStart, 0, 511, 1, 10*time.Second)), // 0.1 m/s over 510 m
			wantMode: ModeTransit,
			wantRule: RuleCrawl,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.trip)
			if got.Mode != tt.wantMode {
				t.Errorf("expected mode %s, got %s (rule %s)", tt.wantMode, got.Mode, got.Rule)
			}
			if got.Rule != tt.wantRule {
				t.Errorf("expected rule %s, got %s", tt.wantRule, got.Rule)
			}
			if got.Confidence < minRuleConfidence || got.Confidence > maxRuleConfidence {
				t.Errorf("confidence %.3f outside [%.2f, %.2f]", got.Confidence, minRuleConfidence, maxRuleConfidence)
			}
		})
	}
}

func TestClassify_FastTripsNeverWalk(t *testing.T) {
	c := testClassifier()

	// every speed above the ceiling must classify as TRANSIT
	for _, speedMS := range []float64{2.6, 4, 8, 15, 30} {
		stepM := speedMS * 5
		trip := tripFrom(t, walkPoints(t, segStart, 0, 50, stepM, 5*time.Second))
		got := c.Classify(trip)
		if got.Mode == ModeWalk {
			t.Errorf("trip at %.1f m/s classified WALK; transit must never count as coverage", speedMS)
		}
	}
}

func TestClassify_ZeroDurationIsUnknown(t *testing.T) {
	pts := walkPoints(t, segStart, 0, 10, 7, 0)
	got := testClassifier().Classify(tripFrom(t, pts))
	if got.Mode != ModeUnknown {
		t.Errorf("expected UNKNOWN for a zero-duration trip, got %s", got.Mode)
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{name: "empty", values: nil, p: 0.9, want: 0},
		{name: "single", values: []float64{1.4}, p: 0.9, want: 1.4},
		{name: "p90 of ten", values: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, p: 0.9, want: 10},
		{name: "p50 of five", values: []float64{5, 1, 3, 2, 4}, p: 0.5, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(tt.values, tt.p); got != tt.want {
				t.Errorf("expected %.1f, got %.1f", tt.want, got)
			}
		})
	}
}
