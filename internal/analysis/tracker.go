package analysis

import (
	"context"
	"sync"
	"sync/atomic"
)

// tracker remembers the newest analysis per caller key. Starting a new one
// cancels the previous one, and a finishing analysis learns whether it is
// still the newest.
type tracker struct {
	mu      sync.Mutex
	seq     atomic.Uint64
	current map[string]inflight
}

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

func newTracker() *tracker {
	return &tracker{current: make(map[string]inflight)}
}

func (t *tracker) begin(ctx context.Context, key string) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)
	gen := t.seq.Add(1)

	t.mu.Lock()
	prev, ok := t.current[key]
	t.current[key] = inflight{gen: gen, cancel: cancel}
	t.mu.Unlock()

	if ok {
		prev.cancel()
	}
	return ctx, gen
}

// finish reports whether gen is still the newest analysis for key and
// releases it.
func (t *tracker) finish(key string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.current[key]
	if !ok || cur.gen != gen {
		return false
	}
	delete(t.current, key)
	cur.cancel()
	return true
}

// pending is the number of keys with an analysis in flight.
func (t *tracker) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.current)
}
