package streettracker

import (
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status      string `json:"status"`
	Cities      int    `json:"cities"`
	TripsMerged int    `json:"trips_merged"`
	Timestamp   string `json:"timestamp"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := healthResponse{
		Status:    "ok",
		Timestamp: iso8601Now(),
	}
	if serveEngine != nil {
		cities := serveEngine.Cities()
		resp.Cities = len(cities)
		for _, city := range cities {
			if snap, ok := serveEngine.Snapshot(city); ok {
				resp.TripsMerged += snap.TripsMerged
			}
		}
	}
	_ = json.NewEncoder(w).Encode(resp)
}
