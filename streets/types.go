package streets

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Segment is one addressable, immutable piece of street geometry. IDs are
// stable and unique within a city; geometry never changes after the index
// is built.
type Segment struct {
	ID       string
	Name     string
	City     string
	Geometry orb.LineString
	LengthM  float64
}

// Candidate is one nearest-segment query result.
type Candidate struct {
	Segment   *Segment
	DistanceM float64
	Nearest   orb.Point
}

// UnknownCityError reports an operation against a city that has no
// configured street network.
type UnknownCityError struct {
	City string
}

func (e *UnknownCityError) Error() string {
	return fmt.Sprintf("unknown city: %q", e.City)
}
