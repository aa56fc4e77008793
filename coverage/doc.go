// Package coverage accumulates which street segments have been walked.
//
// The aggregator is the in-memory ground truth for one city and the only
// mutation path into it; the store mirrors the same merge semantics into
// SQLite so coverage survives across runs. Both sides are idempotent per
// trip and commutative across trips: merging the same results in any
// order, any number of times, converges on identical state.
package coverage
