package health

import (
	"encoding/json"
	"net/http"
)

// Handler returns an http.HandlerFunc that runs the registry's checks and
// writes the Report as JSON, using 503 when unhealthy.
func Handler(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := reg.Run(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if !report.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	}
}
