// Package trips segments traces into trips and classifies each trip's
// transport mode.
//
// The segmenter breaks a trace at recording gaps (time or distance) and
// derives per-trip movement statistics. The classifier applies city-tuned
// rules in priority order to label each trip WALK, TRANSIT or UNKNOWN;
// only WALK trips continue to map matching, so misclassifying transit as
// walking is the failure mode every rule guards against.
package trips
