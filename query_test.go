package streettracker

import (
	"encoding/json"
	"testing"
)

func TestParseAndValidateCoverageQuery(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		name    string
		params  map[string]string
		wantErr string
		want    string
	}{
		{
			name:   "lowercase city",
			params: map[string]string{"city": "testville"},
			want:   "testville",
		},
		{
			name:   "mixed case key and value",
			params: map[string]string{"City": " TestVille "},
			want:   "testville",
		},
		{
			name:    "missing city",
			params:  map[string]string{},
			wantErr: "You must provide a city.",
		},
		{
			name:    "unknown city",
			params:  map[string]string{"city": "atlantis"},
			wantErr: "No such city: atlantis.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := parseAndValidateCoverageQuery(tc.params, e)
			if tc.wantErr != "" {
				if err == nil || err.Error() != tc.wantErr {
					t.Fatalf("expected error %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m["city"] != tc.want {
				t.Errorf("expected city %q, got %q", tc.want, m["city"])
			}
		})
	}
}

func TestLower(t *testing.T) {
	cases := map[string]string{
		"City":      "city",
		"ABCdef123": "abcdef123",
		"":          "",
		"already":   "already",
	}
	for in, want := range cases {
		if got := lower(in); got != want {
			t.Errorf("lower(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestBuildErrorPayload(t *testing.T) {
	buf := buildErrorPayload("No such city: atlantis.")
	var payload struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
	}
	if err := json.Unmarshal(buf, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.Error.Description != "No such city: atlantis." {
		t.Errorf("unexpected description %q", payload.Error.Description)
	}
}
