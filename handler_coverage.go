package streettracker

import (
	"net/http"
)

func queryParams(r *http.Request) map[string]string {
	params := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

func handleCoverageArtifact(w http.ResponseWriter, r *http.Request, kind string) {
	w.Header().Set("Content-Type", "application/json")
	params := queryParams(r)
	m, err := parseAndValidateCoverageQuery(params, serveEngine)
	if err != nil {
		w.WriteHeader(400)
		_, _ = w.Write(buildErrorPayload(err.Error()))
		return
	}
	buf, err := serveCache.GetCoverageResponse(m["city"], kind)
	if err != nil {
		w.WriteHeader(500)
		_, _ = w.Write(buildErrorPayload(err.Error()))
		return
	}
	_, _ = w.Write(buf)
}

func handleCoveredStreets(w http.ResponseWriter, r *http.Request) {
	handleCoverageArtifact(w, r, "covered")
}

func handleUncoveredStreets(w http.ResponseWriter, r *http.Request) {
	handleCoverageArtifact(w, r, "uncovered")
}

func handleCoverageStats(w http.ResponseWriter, r *http.Request) {
	handleCoverageArtifact(w, r, "stats")
}

func handleCities(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	buf, err := serveCache.GetCitiesResponse()
	if err != nil {
		w.WriteHeader(500)
		_, _ = w.Write(buildErrorPayload(err.Error()))
		return
	}
	_, _ = w.Write(buf)
}
