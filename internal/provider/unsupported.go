package provider

import (
	"context"
	"time"

	"github.com/optrun/pmccscan/internal/models"
)

// Unsupported is an embeddable base that fails every catalogue
// operation with a NotSupported error. Adapters embed it and override
// only the operations they implement.
type Unsupported struct {
	ProviderName string
}

func (u Unsupported) notSupported(op Operation) *ProviderError {
	return NewNotSupported(u.ProviderName, op)
}

func (u Unsupported) GetStockQuote(_ context.Context, _ string) (*models.StockQuote, error) {
	return nil, u.notSupported(OpGetStockQuote)
}

func (u Unsupported) GetStockQuotes(_ context.Context, _ []string) ([]models.StockQuote, error) {
	return nil, u.notSupported(OpGetStockQuotes)
}

func (u Unsupported) GetOptionsChain(_ context.Context, _ string, _, _ time.Time) (*models.OptionChain, error) {
	return nil, u.notSupported(OpGetOptionsChain)
}

func (u Unsupported) ScreenStocks(_ context.Context, _ models.ScreeningCriteria) ([]models.ScreenerResult, error) {
	return nil, u.notSupported(OpScreenStocks)
}

func (u Unsupported) GetFundamentalData(_ context.Context, _ string) (*models.FundamentalMetrics, error) {
	return nil, u.notSupported(OpGetFundamentalData)
}

func (u Unsupported) GetCalendarEvents(_ context.Context, _ string, _ []string, _, _ time.Time) ([]models.CalendarEvent, error) {
	return nil, u.notSupported(OpGetCalendarEvents)
}

func (u Unsupported) GetTechnicalIndicators(_ context.Context, _ string) (*models.TechnicalIndicators, error) {
	return nil, u.notSupported(OpGetTechnicals)
}

func (u Unsupported) GetRiskMetrics(_ context.Context, _ string) (*models.FundamentalRisk, error) {
	return nil, u.notSupported(OpGetRiskMetrics)
}

func (u Unsupported) GetCompanyNews(_ context.Context, _ string, _, _ time.Time, _ int) ([]models.NewsItem, error) {
	return nil, u.notSupported(OpGetCompanyNews)
}

func (u Unsupported) GetEconomicEvents(_ context.Context, _, _ time.Time, _ string) ([]models.EconomicEvent, error) {
	return nil, u.notSupported(OpGetEconomicEvents)
}

func (u Unsupported) GetHistoricalPrices(_ context.Context, _, _ string, _, _ time.Time) ([]models.Bar, error) {
	return nil, u.notSupported(OpGetHistoricalPrices)
}

func (u Unsupported) GetEnhancedStockData(_ context.Context, _ string) (*models.EnhancedStockData, error) {
	return nil, u.notSupported(OpGetEnhancedStockData)
}

func (u Unsupported) AnalyzePMCCOpportunity(_ context.Context, _ *models.AIAnalysisRequest) (*models.AIAnalysis, error) {
	return nil, u.notSupported(OpAnalyzePMCC)
}
