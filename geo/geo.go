package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

const degToRad = math.Pi / 180.0

// DistanceMeters returns the great-circle distance between two points.
func DistanceMeters(a, b orb.Point) float64 {
	return orbgeo.DistanceHaversine(a, b)
}

// LengthMeters returns the haversine length of a polyline.
func LengthMeters(ls orb.LineString) float64 {
	total := 0.0
	for i := 0; i+1 < len(ls); i++ {
		total += orbgeo.DistanceHaversine(ls[i], ls[i+1])
	}
	return total
}

// ClosestPointOnSegment projects p onto the segment a-b and returns the
// closest point together with the distance to it in meters. The projection
// is planar with longitudes scaled by cos(lat), which is accurate at street
// scale; the returned distance is the true haversine distance.
func ClosestPointOnSegment(p, a, b orb.Point) (orb.Point, float64) {
	scale := math.Cos((a[1] + b[1]) / 2 * degToRad)

	vx := (b[0] - a[0]) * scale
	vy := b[1] - a[1]
	wx := (p[0] - a[0]) * scale
	wy := p[1] - a[1]

	denom := vx*vx + vy*vy
	t := 0.0
	if denom > 0 {
		t = (wx*vx + wy*vy) / denom
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	closest := orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
	return closest, orbgeo.DistanceHaversine(p, closest)
}

// DistanceToPolyline returns the minimum distance in meters from p to any
// segment of the polyline, and the closest point on it. A polyline with
// fewer than two points yields +Inf.
func DistanceToPolyline(p orb.Point, ls orb.LineString) (float64, orb.Point) {
	best := math.Inf(1)
	var bestPt orb.Point
	for i := 0; i+1 < len(ls); i++ {
		pt, d := ClosestPointOnSegment(p, ls[i], ls[i+1])
		if d < best {
			best = d
			bestPt = pt
		}
	}
	return best, bestPt
}

// SpeedMS returns meters-per-second for a distance covered over a duration
// in seconds, or 0 when the duration is not positive.
func SpeedMS(distanceM, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return distanceM / seconds
}
