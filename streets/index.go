package streets

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/aviseth/street-tracker/geo"
)

const metersPerDegreeLat = 111320.0

// CellKey addresses one grid cell of the spatial index.
type CellKey struct {
	X int
	Y int
}

// Index is a read-only spatial index over one city's street segments.
// Fields are exported for serialization; mutate nothing after NewIndex.
type Index struct {
	CityName   string
	CellSizeM  float64
	CellLatDeg float64 // cell height in degrees latitude
	CellLonDeg float64 // cell width in degrees longitude at the city's latitude
	Origin     orb.Point
	BBox       orb.Bound
	Segments   []Segment
	Cells      map[CellKey][]int // cell -> indexes into Segments
	IDIndex    map[string]int    // segment id -> index into Segments
	TotalKM    float64
}

// NewIndex builds the grid index for a city. cellSizeM controls bucket
// granularity; zero or negative falls back to 250 m. Segments without a
// precomputed length get one here.
func NewIndex(city string, segments []Segment, cellSizeM float64) *Index {
	if cellSizeM <= 0 {
		cellSizeM = 250
	}

	segs := make([]Segment, len(segments))
	copy(segs, segments)

	idx := &Index{
		CityName:  city,
		CellSizeM: cellSizeM,
		Segments:  segs,
		Cells:     map[CellKey][]int{},
		IDIndex:   map[string]int{},
	}

	if len(segs) == 0 {
		idx.CellLatDeg = cellSizeM / metersPerDegreeLat
		idx.CellLonDeg = idx.CellLatDeg
		return idx
	}

	bbox := segs[0].Geometry.Bound()
	for i := 1; i < len(segs); i++ {
		bbox = bbox.Union(segs[i].Geometry.Bound())
	}
	idx.BBox = bbox
	idx.Origin = bbox.Min

	refLat := (bbox.Min[1] + bbox.Max[1]) / 2
	idx.CellLatDeg = cellSizeM / metersPerDegreeLat
	idx.CellLonDeg = cellSizeM / (metersPerDegreeLat * cosLat(refLat))

	for i := range segs {
		segs[i].City = city
		if segs[i].LengthM == 0 {
			segs[i].LengthM = geo.LengthMeters(segs[i].Geometry)
		}
		idx.TotalKM += segs[i].LengthM / 1000.0
		idx.IDIndex[segs[i].ID] = i

		b := segs[i].Geometry.Bound()
		lo := idx.cellOf(b.Min)
		hi := idx.cellOf(b.Max)
		for x := lo.X; x <= hi.X; x++ {
			for y := lo.Y; y <= hi.Y; y++ {
				key := CellKey{X: x, Y: y}
				idx.Cells[key] = append(idx.Cells[key], i)
			}
		}
	}
	return idx
}

func cosLat(lat float64) float64 {
	c := math.Cos(lat * math.Pi / 180.0)
	if c < 0.01 {
		c = 0.01
	}
	return c
}

func (x *Index) cellOf(p orb.Point) CellKey {
	return CellKey{
		X: int(math.Floor((p[0] - x.Origin[0]) / x.CellLonDeg)),
		Y: int(math.Floor((p[1] - x.Origin[1]) / x.CellLatDeg)),
	}
}

// NearestSegments returns every segment within radiusM of p, nearest first.
// Equal distances break to the lexicographically smallest segment ID, so
// the ordering is deterministic. The result is empty when nothing is in
// range.
func (x *Index) NearestSegments(p orb.Point, radiusM float64) []Candidate {
	if radiusM <= 0 || len(x.Segments) == 0 {
		return nil
	}

	latPad := radiusM / metersPerDegreeLat
	lonPad := radiusM / (metersPerDegreeLat * cosLat(p[1]))
	lo := x.cellOf(orb.Point{p[0] - lonPad, p[1] - latPad})
	hi := x.cellOf(orb.Point{p[0] + lonPad, p[1] + latPad})

	seen := map[int]bool{}
	var out []Candidate
	for cx := lo.X; cx <= hi.X; cx++ {
		for cy := lo.Y; cy <= hi.Y; cy++ {
			for _, i := range x.Cells[CellKey{X: cx, Y: cy}] {
				if seen[i] {
					continue
				}
				seen[i] = true
				d, nearest := geo.DistanceToPolyline(p, x.Segments[i].Geometry)
				if d <= radiusM {
					out = append(out, Candidate{Segment: &x.Segments[i], DistanceM: d, Nearest: nearest})
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceM != out[j].DistanceM {
			return out[i].DistanceM < out[j].DistanceM
		}
		return out[i].Segment.ID < out[j].Segment.ID
	})
	return out
}

// City returns the city this index was built for.
func (x *Index) City() string { return x.CityName }

// Segment looks a segment up by ID.
func (x *Index) Segment(id string) (*Segment, bool) {
	i, ok := x.IDIndex[id]
	if !ok {
		return nil, false
	}
	return &x.Segments[i], true
}

// Count returns the number of indexed segments.
func (x *Index) Count() int { return len(x.Segments) }

// TotalLengthKM returns the summed length of the network.
func (x *Index) TotalLengthKM() float64 { return x.TotalKM }

// Contains reports whether p falls inside the network's bounding box.
func (x *Index) Contains(p orb.Point) bool {
	if len(x.Segments) == 0 {
		return false
	}
	return x.BBox.Contains(p)
}
