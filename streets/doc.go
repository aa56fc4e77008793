/*
Package streets holds a city's street network as immutable segments with a
grid spatial index for nearest-segment queries.

The index is data-source agnostic: it is built from a slice of Segments,
normally produced by LoadNetwork from a GeoJSON FeatureCollection exported
from OpenStreetMap.

Basic usage:

	segments, err := streets.LoadNetwork("data/london_streets.geojson", "london")
	if err != nil {
	    log.Fatal(err)
	}
	index := streets.NewIndex("london", segments, 250)

	candidates := index.NearestSegments(orb.Point{-0.1276, 51.5072}, 8)
	for _, c := range candidates {
	    fmt.Println(c.Segment.ID, c.DistanceM)
	}

Build the index once per city and keep it in memory; construction walks the
whole network but queries only touch the cells around the query point. For
large networks SaveIndexFile/LoadIndexIfFresh cache the built index on disk
so repeated runs skip GeoJSON parsing.

NearestSegments returns candidates nearest-first with ties broken by
segment ID, so identical inputs always yield identical orderings.
*/
package streets
