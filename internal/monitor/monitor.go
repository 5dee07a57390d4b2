package monitor

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Statistics is the reporting document returned by Statistics.
type Statistics struct {
	UptimeSeconds     float64                     `json:"uptime_seconds"`
	UptimeHuman       string                      `json:"uptime_human"`
	TotalRequests     int                         `json:"total_requests"`
	TotalErrors       int                         `json:"total_errors"`
	ErrorRate         float64                     `json:"error_rate"`
	RequestsPerSecond float64                     `json:"requests_per_second"`
	Endpoints         map[string]EndpointSnapshot `json:"endpoints"`
}

// Monitor coordinates the rolling history, per-endpoint aggregates and
// global counters. RecordRequest is the single write path; every request
// passes through it exactly once.
type Monitor struct {
	mu            sync.Mutex
	totalRequests int
	totalErrors   int
	startTime     time.Time

	history   *RollingCounter
	endpoints *EndpointStats

	now func() time.Time
}

func New(historyLimit int) (*Monitor, error) {
	history, err := NewRollingCounter(historyLimit)
	if err != nil {
		return nil, err
	}
	return &Monitor{
		history:   history,
		endpoints: NewEndpointStats(),
		startTime: time.Now(),
		now:       time.Now,
	}, nil
}

// RecordRequest updates the history ring, the endpoint aggregates and
// the global counters as one atomic step. Error strings are stored
// verbatim; callers pass "" when the request did not fail. The client
// address is optional and only used for reporting.
func (m *Monitor) RecordRequest(method, path, client string, status int, duration time.Duration, errMsg string) {
	seconds := duration.Seconds()
	record := RequestRecord{
		Method:    method,
		Path:      path,
		Status:    status,
		Duration:  seconds,
		Timestamp: float64(m.now().UnixNano()) / 1e9,
		Client:    client,
		Error:     errMsg,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.history.Append(record)
	m.endpoints.Record(path, status, seconds)
	m.totalRequests++
	if status >= 400 {
		m.totalErrors++
	}
}

// Statistics is total over empty state: a fresh monitor reports zeros
// and an empty endpoint map.
func (m *Monitor) Statistics() Statistics {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	uptime := now.Sub(m.startTime).Seconds()
	stats := Statistics{
		UptimeSeconds: uptime,
		UptimeHuman:   formatUptime(uptime),
		TotalRequests: m.totalRequests,
		TotalErrors:   m.totalErrors,
		Endpoints:     m.endpoints.Snapshot(),
	}
	if m.totalRequests > 0 {
		stats.ErrorRate = float64(m.totalErrors) / float64(m.totalRequests) * 100
	}
	if uptime > 0 {
		stats.RequestsPerSecond = float64(m.totalRequests) / uptime
	}
	return stats
}

func (m *Monitor) RecentRequests(limit int) []RequestRecord {
	return m.history.Recent(limit)
}

func (m *Monitor) RecentErrors(limit int) []RequestRecord {
	return m.history.RecentErrors(limit)
}

func (m *Monitor) HistoryLimit() int {
	return m.history.Limit()
}

// formatUptime decomposes whole seconds into days/hours/minutes/seconds,
// keeping only nonzero units; seconds is kept when everything else is zero.
func formatUptime(seconds float64) string {
	total := int(seconds)
	days := total / 86400
	remainder := total % 86400
	hours := remainder / 3600
	remainder %= 3600
	minutes := remainder / 60
	secs := remainder % 60

	parts := make([]string, 0, 4)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d days", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutes", minutes))
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d seconds", secs))
	}
	return strings.Join(parts, ", ")
}
