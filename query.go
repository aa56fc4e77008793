package streettracker

import (
	"encoding/json"
	"strings"
)

type QueryError struct{ Msg string }

func (e *QueryError) Error() string { return e.Msg }

func ensureCityExists(city string, e *Engine) error {
	if city == "" {
		return &QueryError{Msg: "You must provide a city."}
	}
	if !e.HasCity(city) {
		return &QueryError{Msg: "No such city: " + city + "."}
	}
	return nil
}

// parseAndValidateCoverageQuery lower-cases the parameter names, trims the
// values and checks the city against the configured set.
func parseAndValidateCoverageQuery(params map[string]string, e *Engine) (map[string]string, error) {
	m := map[string]string{}
	for k, v := range params {
		m[lower(k)] = strings.TrimSpace(v)
	}
	if err := ensureCityExists(m["city"], e); err != nil {
		return nil, err
	}
	m["city"] = lower(m["city"])
	return m, nil
}

func lower(s string) string {
	bs := []rune(s)
	for i, r := range bs {
		if r >= 'A' && r <= 'Z' {
			bs[i] = r + 32
		}
	}
	return string(bs)
}

func buildErrorPayload(msg string) []byte {
	type apiErr struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
	}
	var e apiErr
	e.Error.Description = msg
	b, _ := json.Marshal(e)
	return b
}
