package concurrency

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultCapacity bounds in-flight upstream requests when no value is
// configured.
const DefaultCapacity = 10

// Gate caps the number of requests in flight against the upstream at once.
// It is shared across all categories.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64
	inUse    atomic.Int64
}

// NewGate builds a gate with the given capacity. Non-positive capacities use
// DefaultCapacity.
func NewGate(capacity int) *Gate {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}
}

// Acquire blocks until a slot is free or ctx is done. The returned release
// func is idempotent and must be called exactly when the upstream response
// has been fully read.
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	g.inUse.Add(1)

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.inUse.Add(-1)
			g.sem.Release(1)
		})
	}
	return release, nil
}

// InUse reports how many slots are currently held.
func (g *Gate) InUse() int64 { return g.inUse.Load() }

// Capacity reports the configured slot count.
func (g *Gate) Capacity() int64 { return g.capacity }
