package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"iris-api/internal/monitor"
	"iris-api/pkg/enrich"
)

const defaultEnrichTimeout = 2 * time.Second

// clampLimit bounds the history query to 1..100, defaulting to 10.
func clampLimit(raw string) int {
	limit := 10
	if raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}

// GetStatistics returns the monitoring document: uptime, request and
// error totals, error rate, request rate and per-endpoint aggregates.
func (h *Handlers) GetStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.Monitor.Statistics())
}

// GetRecentRequests returns the newest history entries, oldest first.
// With enrich=true each entry carries GeoIP data for its client.
func (h *Handlers) GetRecentRequests(c *gin.Context) {
	records := h.Monitor.RecentRequests(clampLimit(c.Query("limit")))
	if c.Query("enrich") != "true" || h.Enrich == nil {
		c.JSON(http.StatusOK, records)
		return
	}
	c.JSON(http.StatusOK, h.enrichRecords(c, records))
}

// GetRecentErrors returns the newest history entries with a 4xx or 5xx
// status, oldest first.
func (h *Handlers) GetRecentErrors(c *gin.Context) {
	c.JSON(http.StatusOK, h.Monitor.RecentErrors(clampLimit(c.Query("limit"))))
}

// GetAlerts lists the most recent threshold alerts.
func (h *Handlers) GetAlerts(c *gin.Context) {
	if h.Alerts == nil {
		abortWithDetail(c, http.StatusServiceUnavailable, "alerts not enabled")
		return
	}
	c.JSON(http.StatusOK, h.Alerts.List())
}

// EnrichClient looks up GeoIP and ASN data for one client address.
func (h *Handlers) EnrichClient(c *gin.Context) {
	if h.Enrich == nil {
		abortWithDetail(c, http.StatusServiceUnavailable, "enrichment not enabled")
		return
	}
	ip := c.Query("ip")
	if ip == "" {
		abortWithDetail(c, http.StatusUnprocessableEntity, "ip query parameter is required")
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.enrichTimeout())
	defer cancel()
	result, err := h.Enrich.Lookup(ctx, ip)
	if err != nil {
		abortWithDetail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) enrichTimeout() time.Duration {
	if h.EnrichTimeout > 0 {
		return h.EnrichTimeout
	}
	return defaultEnrichTimeout
}

type enrichedRecord struct {
	monitor.RequestRecord
	Enrichment *enrich.Result `json:"enrichment,omitempty"`
}

func (h *Handlers) enrichRecords(c *gin.Context, records []monitor.RequestRecord) []enrichedRecord {
	out := make([]enrichedRecord, 0, len(records))
	for _, record := range records {
		item := enrichedRecord{RequestRecord: record}
		if record.Client != "" {
			ctx, cancel := context.WithTimeout(c.Request.Context(), h.enrichTimeout())
			result, err := h.Enrich.Lookup(ctx, record.Client)
			cancel()
			if err == nil {
				item.Enrichment = &result
			}
		}
		out = append(out, item)
	}
	return out
}
