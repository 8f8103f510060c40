package enrichment

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// FailureClass buckets why a homepage fetch failed
type FailureClass string

const (
	FailureTimeout     FailureClass = "timeout"
	FailureRateLimited FailureClass = "rate_limited"
	FailureBlocked     FailureClass = "blocked"
	FailureDNS         FailureClass = "dns"
	FailureNetwork     FailureClass = "network"
	FailureHTTP        FailureClass = "http_status"
	FailureOther       FailureClass = "other"
)

const (
	recentWindow       = 100
	minSampleForRate   = 10
	minHealthyRate     = 0.8
	consecutiveLimit   = 5
	dominantClassShare = 0.5
)

// FetchOutcome is one finished homepage fetch
type FetchOutcome struct {
	Domain  string
	URL     string
	Status  int
	Err     error
	Latency time.Duration
	At      time.Time
}

// FailureRecord is a failed fetch as reported by the health endpoint
type FailureRecord struct {
	At     time.Time    `json:"at"`
	Domain string       `json:"domain"`
	URL    string       `json:"url,omitempty"`
	Status int          `json:"status,omitempty"`
	Class  FailureClass `json:"class"`
	Error  string       `json:"error"`
}

// HealthStatus is the snapshot served by GET /api/health/enrichment
type HealthStatus struct {
	IsHealthy           bool                 `json:"isHealthy"`
	TotalRequests       int64                `json:"totalRequests"`
	SuccessfulRequests  int64                `json:"successfulRequests"`
	FailedRequests      int64                `json:"failedRequests"`
	SuccessRate         float64              `json:"successRate"`
	RecentSuccessRate   float64              `json:"recentSuccessRate"`
	ConsecutiveFailures int                  `json:"consecutiveFailures"`
	LatencyP50Ms        float64              `json:"latencyP50Ms"`
	LatencyP95Ms        float64              `json:"latencyP95Ms"`
	FailuresByClass     map[FailureClass]int `json:"failuresByClass"`
	RecentFailures      []FailureRecord      `json:"recentFailures"`
	Issues              []string             `json:"issues"`
	LastSuccessAt       *time.Time           `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *time.Time           `json:"lastFailureAt,omitempty"`
}

// HealthMonitor keeps lifetime counters plus a sliding window of recent
// fetches across every enrichment job.
type HealthMonitor struct {
	mu          sync.RWMutex
	total       int64
	failed      int64
	consecutive int
	recent      []FetchOutcome
	lastSuccess time.Time
	lastFailure time.Time
}

// NewHealthMonitor creates an empty monitor
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{recent: make([]FetchOutcome, 0, recentWindow)}
}

// Record adds a fetch to the counters and the recent window
func (h *HealthMonitor) Record(o FetchOutcome) {
	if o.At.IsZero() {
		o.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.total++
	if o.Err != nil {
		h.failed++
		h.consecutive++
		h.lastFailure = o.At
	} else {
		h.consecutive = 0
		h.lastSuccess = o.At
	}

	if len(h.recent) == recentWindow {
		copy(h.recent, h.recent[1:])
		h.recent = h.recent[:recentWindow-1]
	}
	h.recent = append(h.recent, o)
}

// Status summarises the monitor. A fresh monitor is healthy.
func (h *HealthMonitor) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		TotalRequests:       h.total,
		SuccessfulRequests:  h.total - h.failed,
		FailedRequests:      h.failed,
		SuccessRate:         1,
		RecentSuccessRate:   1,
		ConsecutiveFailures: h.consecutive,
		FailuresByClass:     map[FailureClass]int{},
		RecentFailures:      []FailureRecord{},
		Issues:              []string{},
	}
	if h.total > 0 {
		status.SuccessRate = float64(h.total-h.failed) / float64(h.total)
	}
	if !h.lastSuccess.IsZero() {
		t := h.lastSuccess
		status.LastSuccessAt = &t
	}
	if !h.lastFailure.IsZero() {
		t := h.lastFailure
		status.LastFailureAt = &t
	}

	var latencies stats.Float64Data
	recentOK := 0
	for _, o := range h.recent {
		if o.Err == nil {
			recentOK++
			latencies = append(latencies, float64(o.Latency)/float64(time.Millisecond))
			continue
		}
		class := Classify(o.Status, o.Err)
		status.FailuresByClass[class]++
		status.RecentFailures = append(status.RecentFailures, FailureRecord{
			At:     o.At,
			Domain: o.Domain,
			URL:    o.URL,
			Status: o.Status,
			Class:  class,
			Error:  o.Err.Error(),
		})
	}
	if len(h.recent) > 0 {
		status.RecentSuccessRate = float64(recentOK) / float64(len(h.recent))
	}
	if len(latencies) > 0 {
		status.LatencyP50Ms, _ = latencies.Median()
		status.LatencyP95Ms, _ = latencies.Percentile(95)
	}

	status.IsHealthy = true
	if len(h.recent) >= minSampleForRate && status.RecentSuccessRate < minHealthyRate {
		status.IsHealthy = false
		status.Issues = append(status.Issues, "more than 20% of recent fetches failed")
	}
	if h.consecutive >= consecutiveLimit {
		status.IsHealthy = false
		status.Issues = append(status.Issues, "the last fetches all failed")
	}
	if issue := dominantIssue(status.FailuresByClass, len(status.RecentFailures)); issue != "" {
		status.Issues = append(status.Issues, issue)
	}

	return status
}

// dominantIssue describes a failure class behind most recent failures
func dominantIssue(byClass map[FailureClass]int, failures int) string {
	if failures < 3 {
		return ""
	}
	for _, class := range []FailureClass{FailureTimeout, FailureRateLimited, FailureBlocked, FailureDNS, FailureNetwork} {
		if float64(byClass[class])/float64(failures) <= dominantClassShare {
			continue
		}
		switch class {
		case FailureTimeout:
			return "fetches are timing out; raise ENRICHMENT_TIMEOUT or lower ENRICHMENT_CONCURRENCY"
		case FailureRateLimited:
			return "sites are rate limiting; lower ENRICHMENT_CONCURRENCY"
		case FailureBlocked:
			return "sites are refusing requests; review ENRICHMENT_USER_AGENT"
		case FailureDNS:
			return "submitted domains do not resolve"
		case FailureNetwork:
			return "outbound connections are failing"
		}
	}
	return ""
}

// Classify buckets a failed fetch by its error chain and response status
func Classify(status int, err error) FailureClass {
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case status == http.StatusTooManyRequests:
		return FailureRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailureBlocked
	case status >= 400:
		return FailureHTTP
	case err == nil:
		return FailureOther
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.As(err, &dnsErr):
		return FailureDNS
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return FailureTimeout
		}
		return FailureNetwork
	}
	return FailureOther
}
