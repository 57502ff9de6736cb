// Package cache memoizes finalized responses by query fingerprint and
// coalesces concurrent identical workflows (single-flight).
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mirage-project/mirage/pkg/models"
)

// entry holds a cached response with its absolute expiry.
type entry struct {
	resp      *models.FinalResponse
	expiresAt time.Time
}

// flight is one in-progress computation for a fingerprint. Waiters all
// receive the same outcome, success or failure. The computation is
// cancelled only when the last waiter abandons it.
type flight struct {
	done    chan struct{}
	resp    *models.FinalResponse
	err     error
	waiters int
	cancel  context.CancelFunc
}

// ResponseCache is a thread-safe TTL cache with single-flight
// coalescing per fingerprint. Expired entries are evicted lazily on
// Lookup and additionally by the background sweep.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration

	fmu     sync.Mutex
	flights map[string]*flight

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a ResponseCache with the given TTL.
func New(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]*entry),
		ttl:     ttl,
		flights: make(map[string]*flight),
		stopCh:  make(chan struct{}),
	}
}

// Lookup returns a copy of the cached response if present and not
// expired. A lookup at or past the expiry never returns the entry.
func (c *ResponseCache) Lookup(fingerprint string) (*models.FinalResponse, bool) {
	c.mu.RLock()
	e, ok := c.entries[fingerprint]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if !time.Now().Before(e.expiresAt) {
		// Expired; clean up lazily. Re-check under write lock: a
		// concurrent Put may have replaced the entry with a fresh one.
		c.mu.Lock()
		if current, ok := c.entries[fingerprint]; ok && !time.Now().Before(current.expiresAt) {
			delete(c.entries, fingerprint)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.resp.Clone(), true
}

// Put stores a copy of the response under the fingerprint. Callers are
// responsible for only storing cacheable consensus outcomes.
func (c *ResponseCache) Put(fingerprint string, resp *models.FinalResponse) {
	c.mu.Lock()
	c.entries[fingerprint] = &entry{
		resp:      resp.Clone(),
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Do runs fn at most once per fingerprint at a time. A second caller
// for the same fingerprint does not start a new computation; it awaits
// the first one and receives a copy of its result, including a
// failure, which it does not retry on the first caller's behalf.
//
// The shared return reports whether this caller joined an existing
// computation. fn receives a context detached from any single caller:
// a caller abandoning its await cancels only its own wait, and the
// computation itself is cancelled only when no waiters remain.
func (c *ResponseCache) Do(
	ctx context.Context,
	fingerprint string,
	fn func(ctx context.Context) (*models.FinalResponse, error),
) (resp *models.FinalResponse, shared bool, err error) {
	c.fmu.Lock()
	if f, ok := c.flights[fingerprint]; ok {
		f.waiters++
		c.fmu.Unlock()
		return c.await(ctx, f, true)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	f := &flight{done: make(chan struct{}), waiters: 1, cancel: cancel}
	c.flights[fingerprint] = f
	c.fmu.Unlock()

	go func() {
		defer cancel()
		res, ferr := fn(runCtx)

		c.fmu.Lock()
		f.resp, f.err = res, ferr
		// Release the fingerprint before signalling: a request arriving
		// after this point starts a fresh computation.
		delete(c.flights, fingerprint)
		c.fmu.Unlock()
		close(f.done)
	}()

	return c.await(ctx, f, false)
}

// await blocks until the flight completes or the caller's context ends.
func (c *ResponseCache) await(ctx context.Context, f *flight, shared bool) (*models.FinalResponse, bool, error) {
	select {
	case <-f.done:
		if f.err != nil {
			return nil, shared, f.err
		}
		return f.resp.Clone(), shared, nil
	case <-ctx.Done():
		c.fmu.Lock()
		f.waiters--
		abandoned := f.waiters == 0
		c.fmu.Unlock()
		if abandoned {
			f.cancel()
		}
		return nil, shared, ctx.Err()
	}
}

// StartSweeper reaps expired entries every interval until Close.
func (c *ResponseCache) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-c.stopCh:
				return
			}
		}
	}()
}

func (c *ResponseCache) sweep() {
	now := time.Now()
	c.mu.Lock()
	for fp, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, fp)
		}
	}
	c.mu.Unlock()
}

// Clear drops all stored entries. In-flight computations are unaffected.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Close stops the background sweep.
func (c *ResponseCache) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
