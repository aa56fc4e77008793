// Package trace ingests recorded GPS activity files into ordered point
// sequences. Three source formats are supported: GPX 1.1 tracks, Garmin
// TCX activities, and Google Timeline semantic location history JSON.
//
// Readers own the input contract of the processing pipeline: points come
// out sorted by timestamp with duplicate timestamps dropped, and trace IDs
// are deterministic (UUIDv5 over source name and first fix), so the same
// file always produces the same trace and downstream merges stay
// idempotent. Validate rejects what normalization cannot fix, with
// MalformedTraceError.
package trace
