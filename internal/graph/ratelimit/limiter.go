package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultLimit is applied when a configured limit string is missing or
// malformed.
var DefaultLimit = Limit{MaxRequests: 100, Window: time.Minute}

// Limit is a fixed admission window: at most MaxRequests admissions per
// Window.
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

func (l Limit) String() string {
	return fmt.Sprintf("%d/%s", l.MaxRequests, l.Window)
}

// ParseLimit parses a "max_requests,window_seconds" pair. Malformed input
// falls back to DefaultLimit rather than failing startup.
func ParseLimit(raw string) (Limit, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return DefaultLimit, fmt.Errorf("ratelimit: expected \"max,window_seconds\", got %q", raw)
	}

	maxReq, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || maxReq <= 0 {
		return DefaultLimit, fmt.Errorf("ratelimit: invalid max requests in %q", raw)
	}
	windowSec, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || windowSec <= 0 {
		return DefaultLimit, fmt.Errorf("ratelimit: invalid window seconds in %q", raw)
	}

	return Limit{MaxRequests: maxReq, Window: time.Duration(windowSec) * time.Second}, nil
}

// Limiter admits at most limit.MaxRequests callers per fixed window. The
// window resets when its duration has fully elapsed; admissions are never
// forgotten mid-window.
type Limiter struct {
	Clock func() time.Time

	mu          sync.Mutex
	limit       Limit
	windowStart time.Time
	admitted    int
}

// NewLimiter builds a limiter for the given limit. Non-positive fields are
// replaced by DefaultLimit.
func NewLimiter(limit Limit) *Limiter {
	if limit.MaxRequests <= 0 || limit.Window <= 0 {
		limit = DefaultLimit
	}
	return &Limiter{limit: limit}
}

// Allow attempts a non-blocking admission. When the window is full it returns
// false and the duration until the window resets.
func (l *Limiter) Allow() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollWindow(now)

	if l.admitted >= l.limit.MaxRequests {
		return false, l.windowStart.Add(l.limit.Window).Sub(now)
	}

	l.admitted++
	return true, 0
}

// Acquire blocks until an admission slot is available or ctx is done. Every
// retry attempt takes its own permit.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		ok, wait := l.Allow()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Level reports admissions consumed in the current window.
func (l *Limiter) Level() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollWindow(l.now())
	return l.admitted
}

// Limit returns the configured window parameters.
func (l *Limiter) Limit() Limit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

// rollWindow resets the counter once the window has fully elapsed. Caller
// holds l.mu.
func (l *Limiter) rollWindow(now time.Time) {
	if l.windowStart.IsZero() {
		l.windowStart = now
		return
	}
	if now.Sub(l.windowStart) >= l.limit.Window {
		l.windowStart = now
		l.admitted = 0
	}
}

func (l *Limiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}
