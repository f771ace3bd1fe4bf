package provider

import (
	"sync"
	"time"

	"github.com/optrun/pmccscan/internal/models"
)

// HealthTracker maintains a provider's rolling health snapshot. It is
// shared mutable state guarded by a lock; readers always observe a
// consistent copy.
type HealthTracker struct {
	mu sync.RWMutex

	status       models.HealthStatus
	lastCheck    time.Time
	lastLatency  time.Duration
	errorMessage string

	requestCount int64
	successCount int64

	rateLimitRemaining *int
	rateLimitReset     *time.Time
}

// NewHealthTracker starts a tracker in the healthy state; the first
// probe or call refines it.
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{status: models.StatusHealthy}
}

// RecordSuccess registers a successful call with its latency.
func (h *HealthTracker) RecordSuccess(latency time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.requestCount++
	h.successCount++
	h.lastCheck = time.Now().UTC()
	h.lastLatency = latency
	h.errorMessage = ""
	h.status = h.deriveStatus()
}

// RecordFailure registers a failed call. Auth failures mark the
// provider unhealthy outright since only a config change can fix them;
// rate limits degrade; everything else flows into the success rate.
func (h *HealthTracker) RecordFailure(err error, latency time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.requestCount++
	h.lastCheck = time.Now().UTC()
	h.lastLatency = latency
	if err != nil {
		h.errorMessage = err.Error()
	}

	switch {
	case IsAuthError(err):
		h.status = models.StatusUnhealthy
	case IsRetryable(err):
		h.status = models.StatusDegraded
	default:
		h.status = h.deriveStatus()
	}
}

// RecordRateLimit stores upstream rate-limit hints from response headers.
func (h *HealthTracker) RecordRateLimit(info models.RateLimitInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()

	remaining := info.Remaining
	h.rateLimitRemaining = &remaining
	if !info.Reset.IsZero() {
		reset := info.Reset
		h.rateLimitReset = &reset
	}
}

// deriveStatus maps the rolling success rate to a status. Callers hold
// the lock.
func (h *HealthTracker) deriveStatus() models.HealthStatus {
	if h.status == models.StatusMaintenance {
		return models.StatusMaintenance
	}
	rate := h.successRateLocked()
	switch {
	case h.requestCount < 5:
		return models.StatusHealthy
	case rate >= 0.9:
		return models.StatusHealthy
	case rate >= 0.5:
		return models.StatusDegraded
	default:
		return models.StatusUnhealthy
	}
}

func (h *HealthTracker) successRateLocked() float64 {
	if h.requestCount == 0 {
		return 1.0
	}
	return float64(h.successCount) / float64(h.requestCount)
}

// SetStatus forces a status, used by adapters for maintenance windows
// and by health probes.
func (h *HealthTracker) SetStatus(status models.HealthStatus, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = status
	h.errorMessage = message
	h.lastCheck = time.Now().UTC()
}

// Snapshot returns a consistent copy of the current health.
func (h *HealthTracker) Snapshot() models.ProviderHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return models.ProviderHealth{
		Status:             h.status,
		LastCheck:          h.lastCheck,
		LatencyMS:          h.lastLatency.Milliseconds(),
		SuccessRate:        h.successRateLocked(),
		RateLimitRemaining: h.rateLimitRemaining,
		RateLimitReset:     h.rateLimitReset,
		ErrorMessage:       h.errorMessage,
	}
}
