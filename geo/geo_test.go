package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name      string
		a, b      orb.Point
		wantM     float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         orb.Point{-0.1276, 51.5072},
			b:         orb.Point{-0.1276, 51.5072},
			wantM:     0,
			tolerance: 0.001,
		},
		{
			name:      "one millidegree of latitude at the equator",
			a:         orb.Point{0, 0},
			b:         orb.Point{0, 0.001},
			wantM:     111.2,
			tolerance: 1.2,
		},
		{
			name:      "trafalgar square to leicester square",
			a:         orb.Point{-0.1281, 51.5080},
			b:         orb.Point{-0.1301, 51.5103},
			wantM:     290,
			tolerance: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.a, tt.b)
			if math.Abs(got-tt.wantM) > tt.tolerance {
				t.Errorf("expected %.1f m (±%.1f), got %.2f m", tt.wantM, tt.tolerance, got)
			}
		})
	}
}

func TestLengthMeters(t *testing.T) {
	ls := orb.LineString{{0, 0}, {0, 0.001}, {0, 0.002}}
	got := LengthMeters(ls)
	want := 2 * 111.2
	if math.Abs(got-want) > 2.5 {
		t.Errorf("expected ~%.1f m, got %.2f m", want, got)
	}

	if got := LengthMeters(orb.LineString{{0, 0}}); got != 0 {
		t.Errorf("expected 0 for single-point line, got %f", got)
	}
}

func TestClosestPointOnSegment(t *testing.T) {
	a := orb.Point{0, 0}
	b := orb.Point{0.001, 0}

	tests := []struct {
		name     string
		p        orb.Point
		wantPt   orb.Point
		wantDist float64
	}{
		{
			name:     "perpendicular to the middle",
			p:        orb.Point{0.0005, 0.0001},
			wantPt:   orb.Point{0.0005, 0},
			wantDist: 11.1,
		},
		{
			name:     "beyond the far endpoint clamps to b",
			p:        orb.Point{0.002, 0},
			wantPt:   b,
			wantDist: 111.2,
		},
		{
			name:     "before the near endpoint clamps to a",
			p:        orb.Point{-0.001, 0},
			wantPt:   a,
			wantDist: 111.2,
		},
		{
			name:     "on the segment",
			p:        orb.Point{0.0003, 0},
			wantPt:   orb.Point{0.0003, 0},
			wantDist: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, d := ClosestPointOnSegment(tt.p, a, b)
			if math.Abs(pt[0]-tt.wantPt[0]) > 1e-9 || math.Abs(pt[1]-tt.wantPt[1]) > 1e-9 {
				t.Errorf("expected closest point %v, got %v", tt.wantPt, pt)
			}
			if math.Abs(d-tt.wantDist) > 1.5 {
				t.Errorf("expected distance ~%.1f m, got %.2f m", tt.wantDist, d)
			}
		})
	}
}

func TestDistanceToPolyline(t *testing.T) {
	ls := orb.LineString{{0, 0}, {0.001, 0}, {0.001, 0.001}}

	d, pt := DistanceToPolyline(orb.Point{0.0005, 0.0001}, ls)
	if math.Abs(d-11.1) > 1.5 {
		t.Errorf("expected ~11.1 m to first leg, got %.2f", d)
	}
	if math.Abs(pt[0]-0.0005) > 1e-9 || math.Abs(pt[1]) > 1e-9 {
		t.Errorf("expected closest point on first leg, got %v", pt)
	}

	d, _ = DistanceToPolyline(orb.Point{0, 0}, orb.LineString{{0, 0}})
	if !math.IsInf(d, 1) {
		t.Errorf("expected +Inf for degenerate polyline, got %f", d)
	}
}

func TestSpeedMS(t *testing.T) {
	tests := []struct {
		name      string
		distanceM float64
		seconds   float64
		want      float64
	}{
		{name: "steady walk", distanceM: 140, seconds: 100, want: 1.4},
		{name: "zero duration", distanceM: 100, seconds: 0, want: 0},
		{name: "negative duration", distanceM: 100, seconds: -5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpeedMS(tt.distanceM, tt.seconds); got != tt.want {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}
