package streettracker

import (
	"encoding/json"
	"time"

	"github.com/aviseth/street-tracker/export"
)

type cityInfo struct {
	Name            string  `json:"name"`
	Streets         int     `json:"streets"`
	TotalKM         float64 `json:"total_km"`
	CoveredStreets  int     `json:"covered_streets"`
	CoveragePercent float64 `json:"coverage_percent"`
	TripsMerged     int     `json:"trips_merged"`
	LastWalkedAt    string  `json:"last_walked_at,omitempty"`
}

type citiesResponse struct {
	Cities []cityInfo `json:"cities"`
}

// buildCitiesResponse renders the per-city summary, one row per configured
// city in config order.
func buildCitiesResponse(e *Engine) ([]byte, error) {
	resp := citiesResponse{Cities: []cityInfo{}}
	for _, city := range e.Cities() {
		idx := e.Index(city)
		snap, ok := e.Snapshot(city)
		if idx == nil || !ok {
			continue
		}
		stats := export.BuildStats(idx, snap, time.Now().UTC())

		var lastWalked int64
		for _, sc := range snap.Segments {
			if sc.Covered && sc.LastWalkedAt > lastWalked {
				lastWalked = sc.LastWalkedAt
			}
		}

		resp.Cities = append(resp.Cities, cityInfo{
			Name:            city,
			Streets:         stats.TotalStreets,
			TotalKM:         stats.TotalKM,
			CoveredStreets:  stats.CoveredStreets,
			CoveragePercent: stats.CoveragePercent,
			TripsMerged:     snap.TripsMerged,
			LastWalkedAt:    iso8601FromUnixSeconds(lastWalked),
		})
	}
	return json.Marshal(resp)
}
