// Package geo provides the small set of geodesic primitives the rest of
// the module shares: haversine distances, polyline lengths, point-to-segment
// projection and speed computation.
//
// All distances are meters, all speeds meters per second. Projection is
// planar with longitude scaled by cos(lat), which is accurate at the street
// scales this module works at.
package geo
