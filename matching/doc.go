// Package matching snaps walk trips onto a city's street network.
//
// Each GPS point is matched to the nearest street segment within a
// city-tuned tolerance, with a continuity bias so a walk does not
// flip-flop between parallel streets. Consecutive points on the same
// segment collapse into ranges; short GPS dropouts are bridged when
// both sides of the dropout sit on the same segment. Ranges whose mean
// confidence falls below the configured floor are discarded rather than
// reported as coverage.
package matching
