package ai

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

type fakeEnhancedProvider struct {
	provider.Unsupported

	data map[string]*models.EnhancedStockData
	err  error
}

func (f *fakeEnhancedProvider) Name() string                { return "fundamentals" }
func (f *fakeEnhancedProvider) Type() provider.ProviderType { return provider.TypeFundamentals }
func (f *fakeEnhancedProvider) SupportsOperation(op provider.Operation) bool {
	return op == provider.OpGetEnhancedStockData
}
func (f *fakeEnhancedProvider) Health() models.ProviderHealth {
	return models.ProviderHealth{Status: models.StatusHealthy, LastCheck: time.Now()}
}
func (f *fakeEnhancedProvider) HealthCheck(_ context.Context) (*models.ProviderHealth, error) {
	h := f.Health()
	return &h, nil
}
func (f *fakeEnhancedProvider) GetEnhancedStockData(_ context.Context, symbol string) (*models.EnhancedStockData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data[symbol], nil
}

type fakeAIProvider struct {
	provider.Unsupported

	calls   atomic.Int64
	byScore map[string]float64
	retried bool
	err     error
}

func (f *fakeAIProvider) Name() string                { return "claude" }
func (f *fakeAIProvider) Type() provider.ProviderType { return provider.TypeAI }
func (f *fakeAIProvider) SupportsOperation(op provider.Operation) bool {
	return op == provider.OpAnalyzePMCC
}
func (f *fakeAIProvider) Health() models.ProviderHealth {
	return models.ProviderHealth{Status: models.StatusHealthy, LastCheck: time.Now()}
}
func (f *fakeAIProvider) HealthCheck(_ context.Context) (*models.ProviderHealth, error) {
	h := f.Health()
	return &h, nil
}
func (f *fakeAIProvider) AnalyzePMCCOpportunity(_ context.Context, req *models.AIAnalysisRequest) (*models.AIAnalysis, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.AIAnalysis{
		Symbol:             req.Candidate.Symbol,
		PMCCScore:          f.byScore[req.Candidate.Symbol],
		Recommendation:     models.RecommendBuy,
		ConfidenceLevel:    85,
		ManagementStrategy: "roll the short call at 21 DTE",
		ResponseRetried:    f.retried,
	}, nil
}

func fullEnhanced(symbol string) *models.EnhancedStockData {
	now := time.Now().UTC()
	return &models.EnhancedStockData{
		Symbol:       symbol,
		Quote:        &models.StockQuote{Symbol: symbol, Last: 95, Timestamp: now},
		Fundamentals: &models.FundamentalMetrics{Symbol: symbol},
		Technicals:   &models.TechnicalIndicators{Symbol: symbol, RSI14: 55},
		Risk:         &models.FundamentalRisk{Symbol: symbol, Beta: 1.1},
		CalendarEvents: []models.CalendarEvent{
			{Symbol: symbol, Type: "earnings", Date: now.AddDate(0, 0, 20)},
		},
		News:             []models.NewsItem{{Symbol: symbol, Title: "guidance raised", PublishedAt: now}},
		EconomicEvents:   []models.EconomicEvent{{Event: "CPI", Country: "US", Date: now.AddDate(0, 0, 7)}},
		HistoricalPrices: []models.Bar{{Symbol: symbol, Date: now, Close: 95}},
		RetrievedAt:      now,
	}
}

func sparseEnhanced(symbol string) *models.EnhancedStockData {
	// Quote plus fundamentals only: 2 of 8 sections, 25% complete.
	return &models.EnhancedStockData{
		Symbol:       symbol,
		Quote:        &models.StockQuote{Symbol: symbol, Last: 95, Timestamp: time.Now().UTC()},
		Fundamentals: &models.FundamentalMetrics{Symbol: symbol},
		RetrievedAt:  time.Now().UTC(),
	}
}

func candidate(symbol string, totalScore float64) models.PMCCCandidate {
	return models.PMCCCandidate{
		Symbol:     symbol,
		TotalScore: totalScore,
		LongCall:   models.OptionContract{Side: models.SideCall, Strike: 90, DTE: 400},
		ShortCall:  models.OptionContract{Side: models.SideCall, Strike: 100, DTE: 30},
		NetDebit:   4.50,
	}
}

func newTestAugmentor(t *testing.T, enhanced *fakeEnhancedProvider, aiProv *fakeAIProvider, cfg Config) *Augmentor {
	t.Helper()
	router := provider.NewRouter(provider.RouterConfig{
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	}, zerolog.Nop())
	require.NoError(t, router.Register(enhanced))
	require.NoError(t, router.Register(aiProv))
	return New(router, cfg, zerolog.Nop())
}

func TestAugmentMergesCombinedScore(t *testing.T) {
	enhanced := &fakeEnhancedProvider{data: map[string]*models.EnhancedStockData{
		"AAPL": fullEnhanced("AAPL"),
	}}
	aiProv := &fakeAIProvider{byScore: map[string]float64{"AAPL": 50}}
	a := newTestAugmentor(t, enhanced, aiProv, DefaultConfig())

	candidates := []models.PMCCCandidate{candidate("AAPL", 80)}
	warnings := a.Augment(context.Background(), candidates, nil)
	require.Empty(t, warnings)

	c := candidates[0]
	require.NotNil(t, c.CombinedScore)
	assert.InDelta(t, 0.6*80+0.4*50, *c.CombinedScore, 1e-9)
	require.NotNil(t, c.ClaudeScore)
	assert.Equal(t, 50.0, *c.ClaudeScore)
	assert.Equal(t, "buy", c.AIRecommendation)
	require.NotNil(t, c.AIInsights)
	assert.NotNil(t, c.AIAnalysisTimestamp)
	assert.InDelta(t, *c.CombinedScore, c.EffectiveScore(), 1e-9)
}

// AI scores can reorder candidates: a 70-point quant candidate with a
// strong AI score must outrank an 80-point one the AI dislikes.
func TestAugmentCanFlipRanking(t *testing.T) {
	enhanced := &fakeEnhancedProvider{data: map[string]*models.EnhancedStockData{
		"AAPL": fullEnhanced("AAPL"),
		"MSFT": fullEnhanced("MSFT"),
	}}
	aiProv := &fakeAIProvider{byScore: map[string]float64{"AAPL": 50, "MSFT": 95}}
	a := newTestAugmentor(t, enhanced, aiProv, DefaultConfig())

	candidates := []models.PMCCCandidate{
		candidate("AAPL", 80),
		candidate("MSFT", 70),
	}
	warnings := a.Augment(context.Background(), candidates, nil)
	require.Empty(t, warnings)

	aapl, msft := candidates[0], candidates[1]
	assert.InDelta(t, 68.0, aapl.EffectiveScore(), 1e-9)
	assert.InDelta(t, 80.0, msft.EffectiveScore(), 1e-9)
	assert.Greater(t, msft.EffectiveScore(), aapl.EffectiveScore())
}

func TestAugmentSkipsIncompleteData(t *testing.T) {
	enhanced := &fakeEnhancedProvider{data: map[string]*models.EnhancedStockData{
		"AAPL": sparseEnhanced("AAPL"),
	}}
	aiProv := &fakeAIProvider{byScore: map[string]float64{"AAPL": 90}}
	a := newTestAugmentor(t, enhanced, aiProv, DefaultConfig())

	candidates := []models.PMCCCandidate{candidate("AAPL", 80)}
	warnings := a.Augment(context.Background(), candidates, nil)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "completeness")

	assert.Nil(t, candidates[0].CombinedScore)
	assert.Equal(t, 80.0, candidates[0].EffectiveScore())
	assert.Zero(t, aiProv.calls.Load(), "incomplete data must not reach the AI provider")
}

// A malformed response the adapter recovered from must still surface
// as a run-level warning even though the analysis succeeded.
func TestAugmentWarnsOnRecoveredMalformedResponse(t *testing.T) {
	enhanced := &fakeEnhancedProvider{data: map[string]*models.EnhancedStockData{
		"AAPL": fullEnhanced("AAPL"),
	}}
	aiProv := &fakeAIProvider{byScore: map[string]float64{"AAPL": 50}, retried: true}
	a := newTestAugmentor(t, enhanced, aiProv, DefaultConfig())

	candidates := []models.PMCCCandidate{candidate("AAPL", 80)}
	warnings := a.Augment(context.Background(), candidates, nil)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "AAPL")
	assert.Contains(t, warnings[0], "retry")

	// The analysis itself still merged normally.
	require.NotNil(t, candidates[0].CombinedScore)
	assert.InDelta(t, 0.6*80+0.4*50, *candidates[0].CombinedScore, 1e-9)
}

func TestAugmentKeepsQuantScoreOnAIFailure(t *testing.T) {
	enhanced := &fakeEnhancedProvider{data: map[string]*models.EnhancedStockData{
		"AAPL": fullEnhanced("AAPL"),
	}}
	aiProv := &fakeAIProvider{err: &provider.ProviderError{
		Provider: "claude", Code: provider.ErrCodeParse, Message: "malformed response",
	}}
	a := newTestAugmentor(t, enhanced, aiProv, DefaultConfig())

	candidates := []models.PMCCCandidate{candidate("AAPL", 80)}
	warnings := a.Augment(context.Background(), candidates, nil)
	require.Len(t, warnings, 1)

	assert.Nil(t, candidates[0].AIInsights)
	assert.Equal(t, 80.0, candidates[0].EffectiveScore())
}

func TestAugmentDisabled(t *testing.T) {
	enhanced := &fakeEnhancedProvider{}
	aiProv := &fakeAIProvider{}
	cfg := DefaultConfig()
	cfg.Enabled = false
	a := newTestAugmentor(t, enhanced, aiProv, cfg)

	candidates := []models.PMCCCandidate{candidate("AAPL", 80)}
	warnings := a.Augment(context.Background(), candidates, nil)
	assert.Empty(t, warnings)
	assert.Zero(t, aiProv.calls.Load())
}
