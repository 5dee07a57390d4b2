package monitor

import (
	"fmt"
	"sync"
)

const DefaultHistoryLimit = 1000

// RequestRecord is one completed request as seen by the middleware.
type RequestRecord struct {
	Method    string  `json:"method"`
	Path      string  `json:"path"`
	Status    int     `json:"status_code"`
	Duration  float64 `json:"duration"`
	Timestamp float64 `json:"timestamp"`
	Client    string  `json:"client,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// RollingCounter keeps the most recent records in arrival order,
// evicting from the head once the limit is exceeded.
type RollingCounter struct {
	mu      sync.Mutex
	limit   int
	records []RequestRecord
}

func NewRollingCounter(limit int) (*RollingCounter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("history limit must be positive, got %d", limit)
	}
	return &RollingCounter{
		limit:   limit,
		records: make([]RequestRecord, 0, limit),
	}, nil
}

func (r *RollingCounter) Append(record RequestRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	if len(r.records) > r.limit {
		r.records = append([]RequestRecord{}, r.records[len(r.records)-r.limit:]...)
	}
}

// Recent returns up to the last n records in chronological order.
// n <= 0 yields an empty slice.
func (r *RollingCounter) Recent(n int) []RequestRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lastN(r.records, n)
}

// RecentErrors returns up to the last n records with status >= 400,
// preserving chronological order.
func (r *RollingCounter) RecentErrors(n int) []RequestRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := make([]RequestRecord, 0, len(r.records))
	for _, rec := range r.records {
		if rec.Status >= 400 {
			errs = append(errs, rec)
		}
	}
	return lastN(errs, n)
}

func (r *RollingCounter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *RollingCounter) Limit() int {
	return r.limit
}

func lastN(records []RequestRecord, n int) []RequestRecord {
	if n <= 0 {
		return []RequestRecord{}
	}
	if n > len(records) {
		n = len(records)
	}
	out := make([]RequestRecord, 0, n)
	out = append(out, records[len(records)-n:]...)
	return out
}
