package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *StatsSnapshot {
	return &StatsSnapshot{
		Timestamp: "2026-08-28T10:00:00Z",
		Global: EndpointStats{
			Count:       3,
			Success:     2,
			Errors:      1,
			SuccessRate: 66.67,
			AvgDuration: 0.1234,
		},
		Endpoints: map[string]EndpointStats{
			"/users": {
				Count:       2,
				Success:     2,
				SuccessRate: 100,
				AvgDuration: 0.08,
			},
			"/users/u-1/messages": {
				Count:       1,
				Errors:      1,
				RateLimited: 1,
				SuccessRate: 0,
			},
		},
		RateLimiters: map[string]RateLimiterInfo{
			"mail": {Category: "mail", MaxRequests: 10000, WindowSecs: 600, Level: 1},
		},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestFormatStatsJSON(t *testing.T) {
	rendered, err := FormatStats(FormatJSON, sampleSnapshot())
	require.NoError(t, err)

	var decoded StatsSnapshot
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Equal(t, int64(3), decoded.Global.Count)
	require.Equal(t, 66.67, decoded.Global.SuccessRate)
	require.Contains(t, decoded.Endpoints, "/users")
}

func TestFormatStatsTable(t *testing.T) {
	rendered, err := FormatStats(FormatTable, sampleSnapshot())
	require.NoError(t, err)

	require.True(t, strings.Contains(rendered, "/users"))
	require.True(t, strings.Contains(rendered, "mail"))
	require.True(t, strings.Contains(rendered, "600"))
	require.True(t, strings.Contains(rendered, "66.67"))
}

func TestFormatStatsNilSnapshot(t *testing.T) {
	rendered, err := FormatStats(FormatTable, nil)
	require.NoError(t, err)
	require.Empty(t, rendered)
}
