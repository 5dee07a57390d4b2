package monitor

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestNewRejectsNonPositiveHistoryLimit(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatalf("expected error for zero history limit")
	}
}

func TestStatisticsOnFreshMonitor(t *testing.T) {
	m, err := New(DefaultHistoryLimit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := m.Statistics()
	if stats.TotalRequests != 0 || stats.TotalErrors != 0 {
		t.Fatalf("expected zero counters, got %#v", stats)
	}
	if stats.ErrorRate != 0 || stats.RequestsPerSecond != 0 {
		t.Fatalf("expected zero rates, got %#v", stats)
	}
	if len(stats.Endpoints) != 0 {
		t.Fatalf("expected empty endpoints, got %#v", stats.Endpoints)
	}
	if stats.UptimeHuman == "" {
		t.Fatalf("expected formatted uptime")
	}
}

func TestRecordRequestScenario(t *testing.T) {
	m, err := New(DefaultHistoryLimit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.RecordRequest("GET", "/predict", "10.0.0.1", 200, 50*time.Millisecond, "")
	m.RecordRequest("GET", "/predict", "10.0.0.1", 500, 100*time.Millisecond, "boom")
	m.RecordRequest("GET", "/info", "10.0.0.2", 200, 10*time.Millisecond, "")

	stats := m.Statistics()
	if stats.TotalRequests != 3 {
		t.Fatalf("expected 3 requests, got %d", stats.TotalRequests)
	}
	if stats.TotalErrors != 1 {
		t.Fatalf("expected 1 error, got %d", stats.TotalErrors)
	}
	if math.Abs(stats.ErrorRate-100.0/3.0) > 1e-9 {
		t.Fatalf("expected error rate ~33.33, got %v", stats.ErrorRate)
	}

	predict, ok := stats.Endpoints["/predict"]
	if !ok {
		t.Fatalf("expected /predict endpoint in %#v", stats.Endpoints)
	}
	if predict.Count != 2 || predict.Errors != 1 || predict.ErrorRate != 50.0 {
		t.Fatalf("unexpected /predict stats: %#v", predict)
	}
	if math.Abs(predict.AvgResponseTime-0.075) > 1e-9 {
		t.Fatalf("expected avg 0.075, got %v", predict.AvgResponseTime)
	}

	errs := m.RecentErrors(10)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error record, got %d", len(errs))
	}
	if errs[0].Error != "boom" || errs[0].Status != 500 {
		t.Fatalf("unexpected error record: %#v", errs[0])
	}

	recent := m.RecentRequests(10)
	if len(recent) != 3 {
		t.Fatalf("expected 3 recent records, got %d", len(recent))
	}
	if recent[0].Path != "/predict" || recent[2].Path != "/info" {
		t.Fatalf("unexpected order: %#v", recent)
	}
	if recent[0].Client != "10.0.0.1" {
		t.Fatalf("expected client recorded, got %#v", recent[0])
	}
}

func TestRecordRequestConcurrent(t *testing.T) {
	m, err := New(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const workers = 20
	const perWorker = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				m.RecordRequest("GET", "/predict", "10.0.0.1", 200, time.Second, "")
			}
		}()
	}
	wg.Wait()

	const total = workers * perWorker
	stats := m.Statistics()
	if stats.TotalRequests != total {
		t.Fatalf("expected %d requests, got %d", total, stats.TotalRequests)
	}
	predict := stats.Endpoints["/predict"]
	if predict.Count != total {
		t.Fatalf("expected endpoint count %d, got %d", total, predict.Count)
	}
	if math.Abs(predict.AvgResponseTime-1.0) > 1e-9 {
		t.Fatalf("expected avg 1s, got %v", predict.AvgResponseTime)
	}
	if got := m.history.Len(); got != 100 {
		t.Fatalf("expected history capped at 100, got %d", got)
	}
}

func TestStatisticsRates(t *testing.T) {
	m, err := New(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base := time.Unix(1700000000, 0)
	m.startTime = base
	m.now = func() time.Time { return base.Add(10 * time.Second) }

	for i := 0; i < 5; i++ {
		m.RecordRequest("GET", "/health", "10.0.0.1", 200, time.Millisecond, "")
	}

	stats := m.Statistics()
	if stats.UptimeSeconds != 10 {
		t.Fatalf("expected uptime 10s, got %v", stats.UptimeSeconds)
	}
	if stats.RequestsPerSecond != 0.5 {
		t.Fatalf("expected 0.5 rps, got %v", stats.RequestsPerSecond)
	}
	if stats.UptimeHuman != "10 seconds" {
		t.Fatalf("expected uptime human 10 seconds, got %q", stats.UptimeHuman)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0 seconds"},
		{45, "45 seconds"},
		{59.9, "59 seconds"},
		{60, "1 minutes"},
		{3661, "1 hours, 1 minutes, 1 seconds"},
		{86400, "1 days"},
		{86430, "1 days, 30 seconds"},
		{2*86400 + 3*3600, "2 days, 3 hours"},
		{90061, "1 days, 1 hours, 1 minutes, 1 seconds"},
	}

	for _, tc := range tests {
		if got := formatUptime(tc.seconds); got != tc.want {
			t.Fatalf("formatUptime(%v)=%q, want %q", tc.seconds, got, tc.want)
		}
	}
}
