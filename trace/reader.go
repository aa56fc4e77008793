package trace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TraceID derives a trace's deterministic identity: UUIDv5 over the
// source file name, the segment index within it, and the first fix time.
// Re-ingesting the same file yields the same IDs, which is what keeps
// downstream merges idempotent across runs.
func TraceID(sourceName string, index int, first time.Time) string {
	name := fmt.Sprintf("street-tracker/%s#%d@%d", sourceName, index, first.Unix())
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// ReadFile parses one activity file by extension: .gpx and .tcx yield a
// single trace, .json (Google Timeline) zero or more. Returned traces
// carry their deterministic IDs; Source stays the format name set by the
// parser.
func ReadFile(path string) ([]Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	base := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpx":
		tr, err := ParseGPX(f)
		if err != nil {
			return nil, err
		}
		tr.ID = TraceID(base, 0, tr.Start())
		return []Trace{tr}, nil
	case ".tcx":
		tr, err := ParseTCX(f)
		if err != nil {
			return nil, err
		}
		tr.ID = TraceID(base, 0, tr.Start())
		return []Trace{tr}, nil
	case ".json":
		traces, err := ParseTimeline(f)
		if err != nil {
			return nil, err
		}
		for i := range traces {
			traces[i].ID = TraceID(base, i, traces[i].Start())
		}
		return traces, nil
	default:
		return nil, fmt.Errorf("unsupported trace format %q", filepath.Ext(path))
	}
}
