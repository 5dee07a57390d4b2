// Package ratelimit implements per-client sliding-window admission control.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultMaxRequests = 10
	DefaultWindow      = 60 * time.Second

	// UnknownClient buckets requests whose origin could not be resolved.
	UnknownClient = "unknown"
)

// Limiter tracks request timestamps per client and rejects a client once
// it has max admitted requests inside the trailing window. The purge,
// the quota check and the append happen under one lock so concurrent
// requests can never overrun the quota.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	clients map[string][]time.Time

	now func() time.Time
}

func New(maxRequests int, window time.Duration) (*Limiter, error) {
	if maxRequests <= 0 {
		return nil, fmt.Errorf("max requests must be positive, got %d", maxRequests)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}
	return &Limiter{
		max:     maxRequests,
		window:  window,
		clients: map[string][]time.Time{},
		now:     time.Now,
	}, nil
}

// IsRateLimited reports whether the client is over quota. A rejected
// attempt is not recorded; an admitted one is. Entries exactly at the
// window boundary count as expired.
func (l *Limiter) IsRateLimited(clientID string) bool {
	if clientID == "" {
		clientID = UnknownClient
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.clients[clientID]
	kept := make([]time.Time, 0, len(window))
	for _, ts := range window {
		if now.Sub(ts) < l.window {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.clients[clientID] = kept
		return true
	}
	l.clients[clientID] = append(kept, now)
	return false
}

// Sweep drops clients whose windows hold no live entries and returns
// how many were removed.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, window := range l.clients {
		live := false
		for _, ts := range window {
			if now.Sub(ts) < l.window {
				live = true
				break
			}
		}
		if !live {
			delete(l.clients, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on a fixed interval until ctx is cancelled.
// Keeps the client map from growing without bound over long uptimes.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) MaxRequests() int {
	return l.max
}

func (l *Limiter) Window() time.Duration {
	return l.window
}
