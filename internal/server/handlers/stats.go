package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/graphgate/graphgate/internal/graph/metrics"
	"github.com/graphgate/graphgate/internal/graph/ratelimit"
)

// StatsResponse is the wire shape of the /stats endpoint.
type StatsResponse struct {
	Timestamp    string                             `json:"timestamp"`
	Global       metrics.Snapshot                   `json:"global"`
	Endpoints    map[string]metrics.Snapshot        `json:"endpoints"`
	RateLimiters map[string]ratelimit.LimiterStatus `json:"rate_limiters"`
}

// NewStatsHandler serves aggregated upstream call statistics together with the
// current fill level of every rate limiter that has been exercised.
func NewStatsHandler(collector *metrics.Collector, limits *ratelimit.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limiters := make(map[string]ratelimit.LimiterStatus)
		if limits != nil {
			for _, status := range limits.Snapshot() {
				limiters[status.Category] = status
			}
		}

		response := StatsResponse{
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			Global:       collector.Global(),
			Endpoints:    collector.Endpoints(),
			RateLimiters: limiters,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
