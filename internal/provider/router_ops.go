package provider

import (
	"context"
	"time"

	"github.com/optrun/pmccscan/internal/models"
)

// Typed routing surface. Every method resolves the candidate list for
// its operation and returns the first successful result; the envelope
// bookkeeping stays inside invoke. Payloads are unwrapped with the
// two-value assertion so an adapter returning a nil payload with a nil
// error surfaces as NO_DATA instead of a panic downstream.

// errNoData covers successful envelopes carrying no usable payload.
func errNoData(env *Envelope) *ProviderError {
	return &ProviderError{
		Provider:  env.Provider,
		Operation: env.Operation,
		Code:      ErrCodeNoData,
		Message:   "provider returned no data",
	}
}

func (r *Router) GetStockQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	env, err := r.invoke(ctx, OpGetStockQuote, "", func(p Provider) (any, error) {
		return p.GetStockQuote(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	quote, ok := env.Data.(*models.StockQuote)
	if !ok || quote == nil {
		return nil, errNoData(env)
	}
	return quote, nil
}

func (r *Router) GetStockQuotes(ctx context.Context, symbols []string) ([]models.StockQuote, error) {
	env, err := r.invoke(ctx, OpGetStockQuotes, "", func(p Provider) (any, error) {
		return p.GetStockQuotes(ctx, symbols)
	})
	if err != nil {
		return nil, err
	}
	quotes, ok := env.Data.([]models.StockQuote)
	if !ok {
		return nil, errNoData(env)
	}
	return quotes, nil
}

func (r *Router) GetOptionsChain(ctx context.Context, symbol string, from, to time.Time) (*models.OptionChain, error) {
	env, err := r.invoke(ctx, OpGetOptionsChain, "", func(p Provider) (any, error) {
		return p.GetOptionsChain(ctx, symbol, from, to)
	})
	if err != nil {
		return nil, err
	}
	chain, ok := env.Data.(*models.OptionChain)
	if !ok || chain == nil {
		return nil, errNoData(env)
	}
	return chain, nil
}

func (r *Router) ScreenStocks(ctx context.Context, criteria models.ScreeningCriteria) ([]models.ScreenerResult, error) {
	env, err := r.invoke(ctx, OpScreenStocks, "", func(p Provider) (any, error) {
		return p.ScreenStocks(ctx, criteria)
	})
	if err != nil {
		return nil, err
	}
	rows, ok := env.Data.([]models.ScreenerResult)
	if !ok {
		return nil, errNoData(env)
	}
	return rows, nil
}

func (r *Router) GetFundamentalData(ctx context.Context, symbol string) (*models.FundamentalMetrics, error) {
	env, err := r.invoke(ctx, OpGetFundamentalData, "", func(p Provider) (any, error) {
		return p.GetFundamentalData(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	m, ok := env.Data.(*models.FundamentalMetrics)
	if !ok || m == nil {
		return nil, errNoData(env)
	}
	return m, nil
}

func (r *Router) GetCalendarEvents(ctx context.Context, symbol string, types []string, from, to time.Time) ([]models.CalendarEvent, error) {
	env, err := r.invoke(ctx, OpGetCalendarEvents, "", func(p Provider) (any, error) {
		return p.GetCalendarEvents(ctx, symbol, types, from, to)
	})
	if err != nil {
		return nil, err
	}
	events, ok := env.Data.([]models.CalendarEvent)
	if !ok {
		return nil, errNoData(env)
	}
	return events, nil
}

func (r *Router) GetTechnicalIndicators(ctx context.Context, symbol string) (*models.TechnicalIndicators, error) {
	env, err := r.invoke(ctx, OpGetTechnicals, "", func(p Provider) (any, error) {
		return p.GetTechnicalIndicators(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	ind, ok := env.Data.(*models.TechnicalIndicators)
	if !ok || ind == nil {
		return nil, errNoData(env)
	}
	return ind, nil
}

func (r *Router) GetRiskMetrics(ctx context.Context, symbol string) (*models.FundamentalRisk, error) {
	env, err := r.invoke(ctx, OpGetRiskMetrics, "", func(p Provider) (any, error) {
		return p.GetRiskMetrics(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	risk, ok := env.Data.(*models.FundamentalRisk)
	if !ok || risk == nil {
		return nil, errNoData(env)
	}
	return risk, nil
}

func (r *Router) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.NewsItem, error) {
	env, err := r.invoke(ctx, OpGetCompanyNews, "", func(p Provider) (any, error) {
		return p.GetCompanyNews(ctx, symbol, from, to, limit)
	})
	if err != nil {
		return nil, err
	}
	items, ok := env.Data.([]models.NewsItem)
	if !ok {
		return nil, errNoData(env)
	}
	return items, nil
}

func (r *Router) GetEconomicEvents(ctx context.Context, from, to time.Time, country string) ([]models.EconomicEvent, error) {
	env, err := r.invoke(ctx, OpGetEconomicEvents, "", func(p Provider) (any, error) {
		return p.GetEconomicEvents(ctx, from, to, country)
	})
	if err != nil {
		return nil, err
	}
	events, ok := env.Data.([]models.EconomicEvent)
	if !ok {
		return nil, errNoData(env)
	}
	return events, nil
}

func (r *Router) GetHistoricalPrices(ctx context.Context, symbol, period string, from, to time.Time) ([]models.Bar, error) {
	env, err := r.invoke(ctx, OpGetHistoricalPrices, "", func(p Provider) (any, error) {
		return p.GetHistoricalPrices(ctx, symbol, period, from, to)
	})
	if err != nil {
		return nil, err
	}
	bars, ok := env.Data.([]models.Bar)
	if !ok {
		return nil, errNoData(env)
	}
	return bars, nil
}

func (r *Router) GetEnhancedStockData(ctx context.Context, symbol string) (*models.EnhancedStockData, error) {
	env, err := r.invoke(ctx, OpGetEnhancedStockData, "", func(p Provider) (any, error) {
		return p.GetEnhancedStockData(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	data, ok := env.Data.(*models.EnhancedStockData)
	if !ok || data == nil {
		return nil, errNoData(env)
	}
	return data, nil
}

func (r *Router) AnalyzePMCCOpportunity(ctx context.Context, req *models.AIAnalysisRequest) (*models.AIAnalysis, error) {
	env, err := r.invoke(ctx, OpAnalyzePMCC, TypeAI, func(p Provider) (any, error) {
		return p.AnalyzePMCCOpportunity(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	analysis, ok := env.Data.(*models.AIAnalysis)
	if !ok || analysis == nil {
		return nil, errNoData(env)
	}
	return analysis, nil
}

// HealthCheckAll probes every registered adapter and returns the
// refreshed snapshots.
func (r *Router) HealthCheckAll(ctx context.Context) map[string]models.ProviderHealth {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make(map[string]models.ProviderHealth, len(entries))
	for _, e := range entries {
		h, err := e.provider.HealthCheck(ctx)
		if err != nil || h == nil {
			snap := e.provider.Health()
			snap.CircuitState = circuitStateName(e.breaker.State())
			out[e.provider.Name()] = snap
			continue
		}
		h.CircuitState = circuitStateName(e.breaker.State())
		out[e.provider.Name()] = *h
	}
	return out
}
