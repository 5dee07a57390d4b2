package monitor

import "sync"

// EndpointSnapshot is the reported view of one path's aggregates.
type EndpointSnapshot struct {
	Count           int     `json:"count"`
	Errors          int     `json:"errors"`
	ErrorRate       float64 `json:"error_rate"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

type endpointAggregate struct {
	count     int
	errors    int
	totalTime float64
}

// EndpointStats holds running per-path aggregates without retaining
// individual records.
type EndpointStats struct {
	mu        sync.Mutex
	endpoints map[string]*endpointAggregate
}

func NewEndpointStats() *EndpointStats {
	return &EndpointStats{endpoints: map[string]*endpointAggregate{}}
}

func (s *EndpointStats) Record(path string, status int, duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg, ok := s.endpoints[path]
	if !ok {
		agg = &endpointAggregate{}
		s.endpoints[path] = agg
	}
	agg.count++
	agg.totalTime += duration
	if status >= 400 {
		agg.errors++
	}
}

// Snapshot returns a consistent point-in-time view of every path.
func (s *EndpointStats) Snapshot() map[string]EndpointSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]EndpointSnapshot, len(s.endpoints))
	for path, agg := range s.endpoints {
		snap := EndpointSnapshot{
			Count:  agg.count,
			Errors: agg.errors,
		}
		if agg.count > 0 {
			snap.ErrorRate = float64(agg.errors) / float64(agg.count) * 100
			snap.AvgResponseTime = agg.totalTime / float64(agg.count)
		}
		out[path] = snap
	}
	return out
}
