package provider

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optrun/pmccscan/internal/models"
)

// fakeProvider is a scripted adapter for router tests. quoteFn is
// invoked for GetStockQuote; calls counts invocations.
type fakeProvider struct {
	Unsupported

	name          string
	ptype         ProviderType
	ops           map[Operation]bool
	status        models.HealthStatus
	rateRemaining *int
	calls         atomic.Int64
	quoteFn       func() (*models.StockQuote, error)
}

func newFakeProvider(name string, ptype ProviderType) *fakeProvider {
	return &fakeProvider{
		Unsupported: Unsupported{ProviderName: name},
		name:        name,
		ptype:       ptype,
		ops:         map[Operation]bool{OpGetStockQuote: true},
		status:      models.StatusHealthy,
	}
}

func (f *fakeProvider) Name() string                      { return f.name }
func (f *fakeProvider) Type() ProviderType                { return f.ptype }
func (f *fakeProvider) SupportsOperation(op Operation) bool { return f.ops[op] }

func (f *fakeProvider) Health() models.ProviderHealth {
	return models.ProviderHealth{
		Status:             f.status,
		LastCheck:          time.Now(),
		RateLimitRemaining: f.rateRemaining,
	}
}

func (f *fakeProvider) HealthCheck(_ context.Context) (*models.ProviderHealth, error) {
	h := f.Health()
	return &h, nil
}

func (f *fakeProvider) GetStockQuote(_ context.Context, _ string) (*models.StockQuote, error) {
	f.calls.Add(1)
	return f.quoteFn()
}

func testRouter(t *testing.T, config RouterConfig) *Router {
	t.Helper()
	return NewRouter(config, zerolog.Nop())
}

func fastConfig() RouterConfig {
	return RouterConfig{
		MaxRetries:       3,
		RetryBackoff:     time.Millisecond,
		FailureThreshold: 5,
		Cooldown:         10 * time.Minute,
		MaxConcurrent:    10,
	}
}

func transientErr(name string) *ProviderError {
	return &ProviderError{
		Provider:   name,
		Operation:  OpGetStockQuote,
		Code:       ErrCodeAPI,
		Message:    "upstream unavailable",
		HTTPStatus: 503,
		Temporary:  true,
	}
}

func hardErr(name string) *ProviderError {
	return &ProviderError{
		Provider:  name,
		Operation: OpGetStockQuote,
		Code:      ErrCodeParse,
		Message:   "bad payload",
	}
}

func TestRouterNoUsableProvider(t *testing.T) {
	r := testRouter(t, fastConfig())
	fake := newFakeProvider("options", TypeOptions)
	fake.status = models.StatusUnhealthy
	require.NoError(t, r.Register(fake))

	_, err := r.GetStockQuote(context.Background(), "AAPL")
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeNoProvider, pe.Code)
	assert.Zero(t, fake.calls.Load(), "unhealthy provider must not be called")
}

func TestRouterRetriesTransientFailures(t *testing.T) {
	r := testRouter(t, fastConfig())
	fake := newFakeProvider("options", TypeOptions)

	var n int
	fake.quoteFn = func() (*models.StockQuote, error) {
		n++
		if n <= 2 {
			return nil, transientErr("options")
		}
		return &models.StockQuote{Symbol: "AAPL", Last: 187.32, Bid: 187.30, Ask: 187.35}, nil
	}
	require.NoError(t, r.Register(fake))

	q, err := r.GetStockQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.EqualValues(t, 3, fake.calls.Load())
}

func TestRouterDoesNotRetryNonRetryable(t *testing.T) {
	r := testRouter(t, fastConfig())
	fake := newFakeProvider("options", TypeOptions)
	fake.quoteFn = func() (*models.StockQuote, error) { return nil, hardErr("options") }
	require.NoError(t, r.Register(fake))

	_, err := r.GetStockQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.EqualValues(t, 1, fake.calls.Load())
}

func TestRouterCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	r := testRouter(t, fastConfig())
	fake := newFakeProvider("options", TypeOptions)
	fake.quoteFn = func() (*models.StockQuote, error) { return nil, hardErr("options") }
	require.NoError(t, r.Register(fake))

	for i := 0; i < 5; i++ {
		_, err := r.GetStockQuote(context.Background(), "AAPL")
		require.Error(t, err)
	}
	assert.EqualValues(t, 5, fake.calls.Load())

	// Sixth call: the open breaker removes the adapter from the
	// candidate list, so the provider is never invoked again.
	_, err := r.GetStockQuote(context.Background(), "AAPL")
	require.Error(t, err)
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeNoProvider, pe.Code)
	assert.EqualValues(t, 5, fake.calls.Load())

	health := r.Health()
	assert.Equal(t, "open", health["options"].CircuitState)
}

func TestRouterAuthErrorsDoNotTripBreaker(t *testing.T) {
	r := testRouter(t, fastConfig())
	fake := newFakeProvider("options", TypeOptions)
	fake.quoteFn = func() (*models.StockQuote, error) {
		return nil, &ProviderError{
			Provider:   "options",
			Operation:  OpGetStockQuote,
			Code:       ErrCodeAuth,
			Message:    "invalid token",
			HTTPStatus: 401,
		}
	}
	require.NoError(t, r.Register(fake))

	for i := 0; i < 8; i++ {
		_, err := r.GetStockQuote(context.Background(), "AAPL")
		require.Error(t, err)
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, ErrCodeAuth, pe.Code)
	}
	assert.EqualValues(t, 8, fake.calls.Load())
	assert.Equal(t, "closed", r.Health()["options"].CircuitState)
}

func TestRouterHalfOpenProbeRecovers(t *testing.T) {
	config := fastConfig()
	config.Cooldown = 20 * time.Millisecond
	r := testRouter(t, config)

	fake := newFakeProvider("options", TypeOptions)
	failing := true
	fake.quoteFn = func() (*models.StockQuote, error) {
		if failing {
			return nil, hardErr("options")
		}
		return &models.StockQuote{Symbol: "AAPL", Last: 187.32, Bid: 187.30, Ask: 187.35}, nil
	}
	require.NoError(t, r.Register(fake))

	for i := 0; i < 5; i++ {
		_, _ = r.GetStockQuote(context.Background(), "AAPL")
	}
	require.Equal(t, "open", r.Health()["options"].CircuitState)

	failing = false
	time.Sleep(30 * time.Millisecond)

	q, err := r.GetStockQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "closed", r.Health()["options"].CircuitState)
}

// A nil payload with a nil error from an adapter must map to NO_DATA,
// never to a nil dereference at the call site.
func TestRouterNilPayloadIsNoData(t *testing.T) {
	r := testRouter(t, fastConfig())
	fake := newFakeProvider("options", TypeOptions)
	fake.quoteFn = func() (*models.StockQuote, error) { return nil, nil }
	require.NoError(t, r.Register(fake))

	q, err := r.GetStockQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Nil(t, q)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeNoData, pe.Code)
	assert.Equal(t, "options", pe.Provider)
}

func TestRouterEnvelopeCarriesRateLimit(t *testing.T) {
	r := testRouter(t, fastConfig())
	fake := newFakeProvider("options", TypeOptions)
	remaining := 42
	fake.rateRemaining = &remaining
	fake.quoteFn = func() (*models.StockQuote, error) {
		return &models.StockQuote{Symbol: "AAPL", Last: 187.32, Bid: 187.30, Ask: 187.35}, nil
	}
	require.NoError(t, r.Register(fake))

	env, err := r.invoke(context.Background(), OpGetStockQuote, "", func(p Provider) (any, error) {
		return p.GetStockQuote(context.Background(), "AAPL")
	})
	require.NoError(t, err)
	require.NotNil(t, env.RateLimit)
	assert.Equal(t, 42, env.RateLimit.Remaining)
}

func TestRouterFallsBackAcrossProviders(t *testing.T) {
	r := testRouter(t, fastConfig())

	broken := newFakeProvider("options", TypeOptions)
	broken.quoteFn = func() (*models.StockQuote, error) { return nil, hardErr("options") }

	backup := newFakeProvider("fundamentals", TypeFundamentals)
	backup.quoteFn = func() (*models.StockQuote, error) {
		return &models.StockQuote{Symbol: "AAPL", Last: 187.10, Bid: 187.00, Ask: 187.20}, nil
	}

	require.NoError(t, r.Register(broken))
	require.NoError(t, r.Register(backup))

	q, err := r.GetStockQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 187.10, q.Last)
	assert.EqualValues(t, 1, broken.calls.Load())
	assert.EqualValues(t, 1, backup.calls.Load())
}
