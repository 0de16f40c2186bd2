package output

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// StatsSnapshot mirrors the /stats endpoint payload.
type StatsSnapshot struct {
	Timestamp    string                     `json:"timestamp"`
	Global       EndpointStats              `json:"global"`
	Endpoints    map[string]EndpointStats   `json:"endpoints"`
	RateLimiters map[string]RateLimiterInfo `json:"rate_limiters"`
}

// EndpointStats is one aggregate row, global or per endpoint.
type EndpointStats struct {
	Count        int64   `json:"count"`
	Success      int64   `json:"success_count"`
	Errors       int64   `json:"error_count"`
	RateLimited  int64   `json:"rate_limit_count"`
	ServerErrors int64   `json:"server_error_count"`
	SuccessRate  float64 `json:"success_rate"`
	AvgDuration  float64 `json:"avg_duration_seconds"`
	MinDuration  float64 `json:"min_duration_seconds"`
	MaxDuration  float64 `json:"max_duration_seconds"`
}

// RateLimiterInfo is one limiter's configuration and fill level.
type RateLimiterInfo struct {
	Category    string `json:"category"`
	MaxRequests int    `json:"max_rate"`
	WindowSecs  int    `json:"window"`
	Level       int    `json:"current_level"`
}

// FormatStats renders a stats snapshot in the requested format.
func FormatStats(format Format, snapshot *StatsSnapshot) (string, error) {
	if snapshot == nil {
		return "", nil
	}

	if format == FormatJSON {
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	return renderStatsTables(snapshot), nil
}
