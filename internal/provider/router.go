package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/optrun/pmccscan/internal/metrics"
	"github.com/optrun/pmccscan/internal/models"
)

// RouterConfig tunes routing, retry, and circuit-breaker behavior.
type RouterConfig struct {
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
	MaxConcurrent    int           `yaml:"max_concurrent"`
}

// DefaultRouterConfig returns the documented defaults: 3 retries with
// exponential backoff from 1s, circuit opens after 5 consecutive
// failures, 10 minute cooldown, 10 concurrent calls per adapter.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		MaxRetries:       3,
		RetryBackoff:     time.Second,
		FailureThreshold: 5,
		Cooldown:         10 * time.Minute,
		MaxConcurrent:    10,
	}
}

// entry bundles a registered adapter with its breaker and concurrency
// semaphore. The router owns adapter handles; adapters never reference
// the router back.
type entry struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
	sem      chan struct{}
}

// Router is the registry of provider adapters with per-operation
// routing, health filtering, circuit breaking, and fallback.
type Router struct {
	mu      sync.RWMutex
	entries map[ProviderType]*entry
	prefs   map[Operation]ProviderType
	config  RouterConfig
	log     zerolog.Logger
}

// NewRouter builds an empty router with default per-operation
// preferences: the fundamentals provider handles screening and
// enrichment, the options provider handles quotes and chains, and the
// AI provider exclusively handles opportunity analysis.
func NewRouter(config RouterConfig, log zerolog.Logger) *Router {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Second
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 10 * time.Minute
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}

	return &Router{
		entries: make(map[ProviderType]*entry),
		prefs: map[Operation]ProviderType{
			OpScreenStocks:         TypeFundamentals,
			OpGetFundamentalData:   TypeFundamentals,
			OpGetCalendarEvents:    TypeFundamentals,
			OpGetTechnicals:        TypeFundamentals,
			OpGetRiskMetrics:       TypeFundamentals,
			OpGetCompanyNews:       TypeFundamentals,
			OpGetEconomicEvents:    TypeFundamentals,
			OpGetHistoricalPrices:  TypeFundamentals,
			OpGetEnhancedStockData: TypeFundamentals,
			OpGetStockQuote:        TypeOptions,
			OpGetStockQuotes:       TypeOptions,
			OpGetOptionsChain:      TypeOptions,
			OpAnalyzePMCC:          TypeAI,
		},
		config: config,
		log:    log.With().Str("component", "router").Logger(),
	}
}

// Register adds an adapter under its declared type. Registering a
// second adapter of the same type is a configuration error.
func (r *Router) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ptype := p.Type()
	if _, exists := r.entries[ptype]; exists {
		return fmt.Errorf("provider type %s already registered", ptype)
	}

	name := p.Name()
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // single probe in half-open
		Timeout:     r.config.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.config.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// Auth and NotSupported are config problems, not upstream
			// instability; they must not trip the breaker.
			return err == nil || IsAuthError(err) || IsNotSupported(err)
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			metrics.CircuitTransitions.WithLabelValues(cbName, from.String(), to.String()).Inc()
			r.log.Warn().
				Str("provider", cbName).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	r.entries[ptype] = &entry{
		provider: p,
		breaker:  gobreaker.NewCircuitBreaker(settings),
		sem:      make(chan struct{}, r.config.MaxConcurrent),
	}
	r.log.Info().Str("provider", name).Str("type", string(ptype)).Msg("provider registered")
	return nil
}

// Provider returns the adapter registered for a type, if any.
func (r *Router) Provider(ptype ProviderType) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[ptype]
	if !ok {
		return nil, false
	}
	return e.provider, true
}

// Health returns a health snapshot for every registered adapter,
// annotated with the breaker state.
func (r *Router) Health() map[string]models.ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]models.ProviderHealth, len(r.entries))
	for _, e := range r.entries {
		h := e.provider.Health()
		h.CircuitState = circuitStateName(e.breaker.State())
		out[e.provider.Name()] = h
	}
	return out
}

// candidates resolves the ordered adapter list for an operation:
// preferred first, then the default for the operation, then any other
// adapter supporting it. Unusable adapters (unhealthy, open circuit,
// unsupported) are filtered out; the filter issues no network calls.
func (r *Router) candidates(op Operation, preferred ProviderType) []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ordered []*entry
	seen := make(map[ProviderType]bool)

	appendIfUsable := func(ptype ProviderType) {
		if seen[ptype] {
			return
		}
		e, ok := r.entries[ptype]
		if !ok {
			return
		}
		seen[ptype] = true
		if !e.provider.SupportsOperation(op) {
			return
		}
		if !e.provider.Health().Status.Usable() {
			return
		}
		if e.breaker.State() == gobreaker.StateOpen {
			return
		}
		ordered = append(ordered, e)
	}

	if preferred != "" {
		appendIfUsable(preferred)
	}
	if def, ok := r.prefs[op]; ok {
		appendIfUsable(def)
	}
	for ptype := range r.entries {
		appendIfUsable(ptype)
	}
	return ordered
}

// invoke routes one operation across the candidate list with per-
// adapter retry, recording outcomes against each adapter's breaker.
// The returned envelope always carries the terminal status.
func (r *Router) invoke(ctx context.Context, op Operation, preferred ProviderType, call func(Provider) (any, error)) (*Envelope, error) {
	start := time.Now()
	env := &Envelope{Operation: op}

	cands := r.candidates(op, preferred)
	if len(cands) == 0 {
		env.Status = StatusError
		env.Error = &ProviderError{
			Provider:  "router",
			Operation: op,
			Code:      ErrCodeNoProvider,
			Message:   "no usable provider supports operation",
		}
		env.Latency = time.Since(start)
		return env, env.Error
	}

	var lastErr error
	for _, e := range cands {
		data, err := r.attempt(ctx, e, op, call)
		env.Attempts++
		if err == nil {
			env.Status = StatusOK
			env.Data = data
			env.Provider = e.provider.Name()
			env.RateLimit = rateLimitInfo(e.provider)
			env.Latency = time.Since(start)
			return env, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	env.Status = StatusError
	env.Latency = time.Since(start)
	if pe, ok := lastErr.(*ProviderError); ok {
		env.Error = pe
	} else {
		env.Error = &ProviderError{
			Provider:  "router",
			Operation: op,
			Code:      ErrCodeAPI,
			Message:   fmt.Sprintf("all providers failed: %v", lastErr),
			Cause:     lastErr,
		}
	}
	return env, env.Error
}

// attempt runs one adapter with its semaphore, breaker, and the retry
// policy. The breaker wraps the full retried attempt, so transient
// failures count toward it only after retries are exhausted.
func (r *Router) attempt(ctx context.Context, e *entry, op Operation, call func(Provider) (any, error)) (any, error) {
	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return nil, &ProviderError{
			Provider:  e.provider.Name(),
			Operation: op,
			Code:      ErrCodeTimeout,
			Message:   "cancelled waiting for adapter slot",
			Cause:     ctx.Err(),
		}
	}

	name := e.provider.Name()
	start := time.Now()
	data, err := e.breaker.Execute(func() (any, error) {
		return r.callWithRetry(ctx, e.provider, op, call)
	})
	latency := time.Since(start)
	metrics.ProviderLatency.WithLabelValues(name, string(op)).Observe(latency.Seconds())

	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		metrics.ProviderRequests.WithLabelValues(name, string(op), "circuit_open").Inc()
		return nil, &ProviderError{
			Provider:  name,
			Operation: op,
			Code:      ErrCodeCircuitOpen,
			Message:   "circuit breaker open",
			Temporary: true,
		}
	}
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(name, string(op), "error").Inc()
		r.log.Warn().Err(err).Str("provider", name).Str("operation", string(op)).Msg("provider call failed")
		return nil, err
	}

	metrics.ProviderRequests.WithLabelValues(name, string(op), "ok").Inc()
	return data, nil
}

// callWithRetry retries transient failures with exponential backoff,
// honoring upstream retry-after hints. Auth and NotSupported errors
// short-circuit immediately.
func (r *Router) callWithRetry(ctx context.Context, p Provider, op Operation, call func(Provider) (any, error)) (any, error) {
	backoff := r.config.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff
			if pe, ok := lastErr.(*ProviderError); ok && pe.RetryAfter > 0 {
				wait = pe.RetryAfter
			}
			metrics.ProviderRetries.WithLabelValues(p.Name(), string(op)).Inc()
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, &ProviderError{
					Provider:  p.Name(),
					Operation: op,
					Code:      ErrCodeTimeout,
					Message:   "cancelled during retry backoff",
					Cause:     ctx.Err(),
				}
			}
			backoff *= 2
		}

		data, err := call(p)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// rateLimitInfo copies the adapter's last recorded rate-limit hints
// into the envelope; nil when the upstream never sent any.
func rateLimitInfo(p Provider) *models.RateLimitInfo {
	h := p.Health()
	if h.RateLimitRemaining == nil {
		return nil
	}
	info := &models.RateLimitInfo{Remaining: *h.RateLimitRemaining}
	if h.RateLimitReset != nil {
		info.Reset = *h.RateLimitReset
	}
	return info
}

func circuitStateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half_open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
