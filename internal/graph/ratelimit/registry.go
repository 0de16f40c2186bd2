package ratelimit

import (
	"sync"
	"time"
)

// Registry owns one Limiter per request category, created lazily from the
// raw "max,window_seconds" config strings. Categories with no configured
// entry get DefaultLimit.
type Registry struct {
	Clock func() time.Time

	mu       sync.Mutex
	raw      map[string]string
	limiters map[string]*Limiter

	// parseErrs remembers which categories fell back to DefaultLimit so the
	// caller can log them once at startup.
	parseErrs map[string]error
}

// NewRegistry builds a registry over the raw per-category limit strings.
func NewRegistry(raw map[string]string) *Registry {
	return &Registry{
		raw:       raw,
		limiters:  make(map[string]*Limiter),
		parseErrs: make(map[string]error),
	}
}

// Get returns the limiter for a category, creating it on first use. The same
// limiter instance is returned for every subsequent call.
func (r *Registry) Get(category string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lim, ok := r.limiters[category]; ok {
		return lim
	}

	limit := DefaultLimit
	if raw, ok := r.raw[category]; ok {
		parsed, err := ParseLimit(raw)
		if err != nil {
			r.parseErrs[category] = err
		}
		limit = parsed
	}

	lim := NewLimiter(limit)
	lim.Clock = r.Clock
	r.limiters[category] = lim
	return lim
}

// ParseErrors returns the categories whose configured limits were malformed,
// mapped to the parse error. Used for startup warnings only.
func (r *Registry) ParseErrors() map[string]error {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]error, len(r.parseErrs))
	for k, v := range r.parseErrs {
		out[k] = v
	}
	return out
}

// LimiterStatus is a point-in-time view of one category's limiter.
type LimiterStatus struct {
	Category    string `json:"category"`
	MaxRequests int    `json:"max_rate"`
	WindowSecs  int    `json:"window"`
	Level       int    `json:"current_level"`
}

// Snapshot reports the state of every limiter created so far.
func (r *Registry) Snapshot() []LimiterStatus {
	r.mu.Lock()
	limiters := make(map[string]*Limiter, len(r.limiters))
	for k, v := range r.limiters {
		limiters[k] = v
	}
	r.mu.Unlock()

	out := make([]LimiterStatus, 0, len(limiters))
	for category, lim := range limiters {
		limit := lim.Limit()
		out = append(out, LimiterStatus{
			Category:    category,
			MaxRequests: limit.MaxRequests,
			WindowSecs:  int(limit.Window / time.Second),
			Level:       lim.Level(),
		})
	}
	return out
}
