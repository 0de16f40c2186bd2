package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderStatsTables renders the endpoint aggregates and limiter state as
// two ASCII tables.
func renderStatsTables(snapshot *StatsSnapshot) string {
	var b strings.Builder

	b.WriteString("Upstream calls")
	if snapshot.Timestamp != "" {
		b.WriteString(" (" + snapshot.Timestamp + ")")
	}
	b.WriteString("\n")
	b.WriteString(renderEndpointTable(snapshot))
	b.WriteString("\n\nRate limiters\n")
	b.WriteString(renderLimiterTable(snapshot))

	return b.String()
}

func renderEndpointTable(snapshot *StatsSnapshot) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Endpoint", "Calls", "OK", "Errors", "429s", "Success %", "Avg (s)"})

	paths := make([]string, 0, len(snapshot.Endpoints))
	for path := range snapshot.Endpoints {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		t.AppendRow(statsRow(path, snapshot.Endpoints[path]))
	}

	t.AppendFooter(statsRow("total", snapshot.Global))

	return t.Render()
}

func statsRow(label string, stats EndpointStats) table.Row {
	return table.Row{
		label,
		stats.Count,
		stats.Success,
		stats.Errors,
		stats.RateLimited,
		fmt.Sprintf("%.2f", stats.SuccessRate),
		fmt.Sprintf("%.4f", stats.AvgDuration),
	}
}

func renderLimiterTable(snapshot *StatsSnapshot) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Category", "Max", "Window (s)", "Level"})

	categories := make([]string, 0, len(snapshot.RateLimiters))
	for category := range snapshot.RateLimiters {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		lim := snapshot.RateLimiters[category]
		t.AppendRow(table.Row{category, lim.MaxRequests, lim.WindowSecs, lim.Level})
	}

	return t.Render()
}
