package models

import "time"

// HealthStatus is the coarse operational state of a provider.
type HealthStatus string

const (
	StatusHealthy     HealthStatus = "healthy"
	StatusDegraded    HealthStatus = "degraded"
	StatusUnhealthy   HealthStatus = "unhealthy"
	StatusMaintenance HealthStatus = "maintenance"
)

// Usable reports whether the router may route operations to a provider
// in this state.
func (s HealthStatus) Usable() bool {
	return s == StatusHealthy || s == StatusDegraded
}

// ProviderHealth is a snapshot of one provider's operational status.
type ProviderHealth struct {
	Status             HealthStatus `json:"status"`
	LastCheck          time.Time    `json:"last_check"`
	LatencyMS          int64        `json:"latency_ms"`
	SuccessRate        float64      `json:"success_rate"`
	RateLimitRemaining *int         `json:"rate_limit_remaining,omitempty"`
	RateLimitReset     *time.Time   `json:"rate_limit_reset,omitempty"`
	ErrorMessage       string       `json:"error_message,omitempty"`
	CircuitState       string       `json:"circuit_state,omitempty"`
}

// RateLimitInfo carries upstream rate-limit hints from response headers.
type RateLimitInfo struct {
	Remaining  int           `json:"remaining"`
	Reset      time.Time     `json:"reset,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}
