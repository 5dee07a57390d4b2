package logs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// NewLokiHook returns a request-log hook that pushes each entry to a
// Loki push endpoint, or nil when no URL is configured. Delivery is
// best effort; a slow or absent Loki never blocks request handling
// beyond the client timeout.
func NewLokiHook(url string) func(map[string]any) {
	if url == "" {
		return nil
	}
	client := &http.Client{Timeout: 3 * time.Second}
	return func(entry map[string]any) {
		payload := map[string]any{
			"streams": []any{
				map[string]any{
					"stream": map[string]string{
						"app":     "iris-api",
						"outcome": outcomeLabel(entry),
					},
					"values": [][]string{
						{time.Now().Format(time.RFC3339Nano), toJSON(entry)},
					},
				},
			},
		}
		body, _ := json.Marshal(payload)
		req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		_, _ = client.Do(req)
	}
}

// outcomeLabel buckets the entry by status class so error streams can
// be selected without parsing the log line. Labels stay low-cardinality.
func outcomeLabel(entry map[string]any) string {
	status, ok := entry["status"].(int)
	if !ok {
		return "unknown"
	}
	switch {
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}

func toJSON(entry map[string]any) string {
	b, err := json.Marshal(entry)
	if err != nil {
		return "{}"
	}
	return string(b)
}
