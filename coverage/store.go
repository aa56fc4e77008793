package coverage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aviseth/street-tracker/matching"
)

// schemaSQL is the single source of truth for the database layout,
// embedded at compile time from schema.sql.
//
//go:embed schema.sql
var schemaSQL string

// Store persists coverage state across runs in SQLite. The same
// idempotence rule the in-memory aggregator enforces holds at the SQL
// level: the processed_trips primary key guards every coverage upsert,
// so replaying a run (or racing two runs) never double-counts a trip.
type Store struct {
	db *sql.DB

	// SQLite allows one writer at a time; a single connection plus this
	// mutex keeps concurrent merges from interleaving transactions.
	writeMu sync.Mutex
}

// OpenStore opens (creating if needed) the coverage database at path and
// ensures the schema. Use ":memory:" for throwaway stores.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coverage db: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping coverage db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure coverage schema: %w", err)
	}

	log.Printf("Coverage store ready: %s", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MergeResult persists one trip's match result, mirroring
// Aggregator.Merge. It returns false without touching coverage when the
// trip was already recorded by any earlier run.
func (s *Store) MergeResult(ctx context.Context, runID string, res matching.MatchResult) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback()

	guard, err := tx.ExecContext(ctx, `
		INSERT INTO processed_trips (city, trip_id, trace_id, run_id, trip_start, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (city, trip_id) DO NOTHING
	`, res.City, res.TripID, res.TraceID, runID, res.TripStart.Unix(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("failed to record trip %s: %w", res.TripID, err)
	}
	inserted, err := guard.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check trip guard for %s: %w", res.TripID, err)
	}
	if inserted == 0 {
		return false, nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segment_coverage (city, segment_id, covered, first_covered_at, last_walked_at, times_walked)
		VALUES (?, ?, 1, ?, ?, 1)
		ON CONFLICT (city, segment_id) DO UPDATE SET
			covered          = 1,
			first_covered_at = MIN(first_covered_at, excluded.first_covered_at),
			last_walked_at   = MAX(last_walked_at, excluded.last_walked_at),
			times_walked     = times_walked + 1
	`)
	if err != nil {
		return false, fmt.Errorf("failed to prepare coverage upsert: %w", err)
	}
	defer stmt.Close()

	for _, span := range segmentSpans(res) {
		if _, err := stmt.ExecContext(ctx, res.City, span.segID, span.first, span.last); err != nil {
			return false, fmt.Errorf("failed to upsert coverage for %s: %w", span.segID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit merge for %s: %w", res.TripID, err)
	}
	return true, nil
}

// LoadState reads one city's accumulated coverage back into memory.
// A city with no history loads as an empty state, not an error.
func (s *Store) LoadState(ctx context.Context, city string) (*State, error) {
	state := NewState(city)

	rows, err := s.db.QueryContext(ctx, `
		SELECT segment_id, covered, first_covered_at, last_walked_at, times_walked
		FROM segment_coverage
		WHERE city = ?
	`, city)
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage for %s: %w", city, err)
	}
	defer rows.Close()

	for rows.Next() {
		sc := &SegmentCoverage{}
		var covered int
		if err := rows.Scan(&sc.SegmentID, &covered, &sc.FirstCoveredAt, &sc.LastWalkedAt, &sc.TimesWalked); err != nil {
			return nil, fmt.Errorf("failed to scan coverage row: %w", err)
		}
		sc.Covered = covered != 0
		state.Segments[sc.SegmentID] = sc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read coverage rows: %w", err)
	}

	trips, err := s.db.QueryContext(ctx, `
		SELECT trip_id, trip_start FROM processed_trips WHERE city = ?
	`, city)
	if err != nil {
		return nil, fmt.Errorf("failed to query processed trips for %s: %w", city, err)
	}
	defer trips.Close()

	for trips.Next() {
		var tripID string
		var tripStart int64
		if err := trips.Scan(&tripID, &tripStart); err != nil {
			return nil, fmt.Errorf("failed to scan processed trip: %w", err)
		}
		state.Processed[tripID] = tripStart
	}
	if err := trips.Err(); err != nil {
		return nil, fmt.Errorf("failed to read processed trips: %w", err)
	}

	return state, nil
}

// RunSummary is the audit record of one engine run against one city.
type RunSummary struct {
	RunID       string
	City        string
	StartedAt   time.Time
	FinishedAt  time.Time
	Traces      int
	TripsMerged int
}

// RecordRun appends one run's audit row.
func (s *Store) RecordRun(ctx context.Context, run RunSummary) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, city, started_at, finished_at, traces, trips_merged)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.RunID, run.City,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Traces, run.TripsMerged)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.RunID, err)
	}
	return nil
}
