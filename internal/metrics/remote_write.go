package metrics

import (
	"bytes"
	"context"
	"net/http"
	"sort"
	"time"

	"iris-api/internal/config"
	"iris-api/internal/monitor"

	"github.com/golang/snappy"
	"github.com/prometheus/prometheus/prompb"
)

// StartRemoteWrite periodically pushes the monitor statistics to a
// Prometheus remote-write endpoint. It is a no-op when export is disabled.
func StartRemoteWrite(ctx context.Context, cfg config.MetricsExportConfig, mon *monitor.Monitor) {
	if !cfg.Enabled || cfg.RemoteWriteURL == "" {
		return
	}
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	client := &http.Client{Timeout: 5 * time.Second}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sendStatistics(ctx, client, cfg.RemoteWriteURL, mon.Statistics())
			}
		}
	}()
}

func sendStatistics(ctx context.Context, client *http.Client, url string, stats monitor.Statistics) {
	now := time.Now().UnixMilli()
	series := []prompb.TimeSeries{
		newSeries("iris_api_requests_total", float64(stats.TotalRequests), now),
		newSeries("iris_api_errors_total", float64(stats.TotalErrors), now),
		newSeries("iris_api_error_rate", stats.ErrorRate, now),
		newSeries("iris_api_requests_per_second", stats.RequestsPerSecond, now),
		newSeries("iris_api_uptime_seconds", stats.UptimeSeconds, now),
	}

	paths := make([]string, 0, len(stats.Endpoints))
	for path := range stats.Endpoints {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		ep := stats.Endpoints[path]
		series = append(series,
			newSeries("iris_api_endpoint_requests_total", float64(ep.Count), now, prompb.Label{Name: "path", Value: path}),
			newSeries("iris_api_endpoint_response_seconds", ep.AvgResponseTime, now, prompb.Label{Name: "path", Value: path}),
		)
	}

	req := &prompb.WriteRequest{Timeseries: series}
	data, err := req.Marshal()
	if err != nil {
		return
	}
	compressed := snappy.Encode(nil, data)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(compressed))
	if err != nil {
		return
	}
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	_, _ = client.Do(httpReq)
}

func newSeries(name string, value float64, ts int64, extra ...prompb.Label) prompb.TimeSeries {
	labels := append([]prompb.Label{{Name: "__name__", Value: name}}, extra...)
	return prompb.TimeSeries{
		Labels:  labels,
		Samples: []prompb.Sample{{Value: value, Timestamp: ts}},
	}
}
