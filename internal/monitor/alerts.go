package monitor

import (
	"context"
	"sync"
	"time"
)

type AlertType string

const (
	AlertErrors  AlertType = "errors"
	AlertTraffic AlertType = "traffic"
)

type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Value     int       `json:"value"`
	Threshold int       `json:"threshold"`
	Timestamp int64     `json:"timestamp"`
}

// AlertsConfig holds per-interval delta thresholds. A zero threshold
// disables that alert type.
type AlertsConfig struct {
	ErrorsThreshold   int
	RequestsThreshold int
}

type AlertStore struct {
	mu     sync.Mutex
	limit  int
	alerts []Alert
}

func NewAlertStore(limit int) *AlertStore {
	if limit <= 0 {
		limit = 1000
	}
	return &AlertStore{
		limit:  limit,
		alerts: make([]Alert, 0, limit),
	}
}

func (s *AlertStore) Add(alert Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	if len(s.alerts) > s.limit {
		s.alerts = append([]Alert{}, s.alerts[len(s.alerts)-s.limit:]...)
	}
}

func (s *AlertStore) List() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alert, 0, len(s.alerts))
	out = append(out, s.alerts...)
	return out
}

func (s *AlertStore) Limit() int {
	return s.limit
}

// EvaluateAlerts compares successive statistics snapshots and emits an
// alert for each threshold the interval delta reached.
func EvaluateAlerts(prev Statistics, curr Statistics, cfg AlertsConfig) []Alert {
	out := make([]Alert, 0, 2)
	now := time.Now().Unix()
	if cfg.ErrorsThreshold > 0 {
		delta := 0
		if curr.TotalErrors >= prev.TotalErrors {
			delta = curr.TotalErrors - prev.TotalErrors
		}
		if delta >= cfg.ErrorsThreshold {
			out = append(out, Alert{
				ID:        newAlertID(),
				Type:      AlertErrors,
				Message:   "error threshold exceeded",
				Value:     delta,
				Threshold: cfg.ErrorsThreshold,
				Timestamp: now,
			})
		}
	}
	if cfg.RequestsThreshold > 0 {
		delta := 0
		if curr.TotalRequests >= prev.TotalRequests {
			delta = curr.TotalRequests - prev.TotalRequests
		}
		if delta >= cfg.RequestsThreshold {
			out = append(out, Alert{
				ID:        newAlertID(),
				Type:      AlertTraffic,
				Message:   "request threshold exceeded",
				Value:     delta,
				Threshold: cfg.RequestsThreshold,
				Timestamp: now,
			})
		}
	}
	return out
}

// StartAlertLoop samples the monitor on a fixed interval and records
// threshold breaches into the store until the context is cancelled.
func StartAlertLoop(ctx context.Context, m *Monitor, store *AlertStore, cfg AlertsConfig, interval time.Duration) {
	if m == nil || store == nil {
		return
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		prev := m.Statistics()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				curr := m.Statistics()
				for _, alert := range EvaluateAlerts(prev, curr, cfg) {
					store.Add(alert)
				}
				prev = curr
			}
		}
	}()
}

func newAlertID() string {
	return time.Now().Format("20060102150405.000000000")
}
