package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

// Error-type tags recorded per logical call. Empty means the call succeeded
// or never produced a classifiable outcome.
const (
	ErrTypeRateLimit   = "rate_limit"
	ErrTypeServerError = "server_error"
	ErrTypeClientError = "client_error"
)

// Aggregate accumulates outcomes for one scope. All counters are cumulative
// since process start.
type Aggregate struct {
	Count        int64
	Success      int64
	Errors       int64
	RateLimited  int64
	ServerErrors int64
	DurationSum  time.Duration
	DurationMin  time.Duration
	DurationMax  time.Duration
}

// Snapshot is the read-side view of an Aggregate with derived fields
// computed at read time.
type Snapshot struct {
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

// Collector aggregates request outcomes, one sample per logical call. It is
// safe for concurrent use.
type Collector struct {
	mu         sync.Mutex
	global     Aggregate
	byEndpoint map[string]*Aggregate
}

// NewCollector builds an empty collector.
func NewCollector() *Collector {
	return &Collector{byEndpoint: make(map[string]*Aggregate)}
}

// Record adds one sample covering a whole logical call: total elapsed time
// across all attempts, the terminal status (0 if no response was ever
// obtained) and the terminal error-type tag. Updates both the global
// aggregate and the named endpoint aggregate.
func (c *Collector) Record(endpoint string, status int, errType string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.global.record(status, errType, duration)

	agg, ok := c.byEndpoint[endpoint]
	if !ok {
		agg = &Aggregate{}
		c.byEndpoint[endpoint] = agg
	}
	agg.record(status, errType, duration)
}

func (a *Aggregate) record(status int, errType string, duration time.Duration) {
	a.Count++
	a.DurationSum += duration
	if a.DurationMin == 0 || duration < a.DurationMin {
		a.DurationMin = duration
	}
	if duration > a.DurationMax {
		a.DurationMax = duration
	}

	switch {
	case status >= 200 && status < 300:
		a.Success++
	case errType != "":
		a.Errors++
		switch errType {
		case ErrTypeRateLimit:
			a.RateLimited++
		case ErrTypeServerError:
			a.ServerErrors++
		}
	default:
		// No response and no classified failure. Totals only.
	}
}

// Global returns the cross-endpoint snapshot.
func (c *Collector) Global() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global.snapshot()
}

// Endpoints returns per-endpoint snapshots keyed by endpoint path.
func (c *Collector) Endpoints() map[string]Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]Snapshot, len(c.byEndpoint))
	for ep, agg := range c.byEndpoint {
		out[ep] = agg.snapshot()
	}
	return out
}

// LogSummary writes the current global aggregate to the logger. Called by an
// external ticker; the collector has no timer of its own.
func (c *Collector) LogSummary(logger *logging.Logger) {
	if logger == nil {
		return
	}
	s := c.Global()
	logger.Info("Request metrics summary",
		zap.Int64("count", s.Count),
		zap.Int64("success", s.Success),
		zap.Int64("errors", s.Errors),
		zap.Int64("rate_limited", s.RateLimited),
		zap.Int64("server_errors", s.ServerErrors),
		zap.Float64("success_rate", s.SuccessRate),
		zap.Float64("avg_duration_seconds", s.AvgDuration),
	)
}

func (a *Aggregate) snapshot() Snapshot {
	s := Snapshot{
		Count:        a.Count,
		Success:      a.Success,
		Errors:       a.Errors,
		RateLimited:  a.RateLimited,
		ServerErrors: a.ServerErrors,
		MinDuration:  a.DurationMin.Seconds(),
		MaxDuration:  a.DurationMax.Seconds(),
	}
	if a.Count > 0 {
		s.SuccessRate = round2(100 * float64(a.Success) / float64(a.Count))
	}
	if a.Count > 0 {
		s.AvgDuration = round4(a.DurationSum.Seconds() / float64(a.Count))
	}
	return s
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
