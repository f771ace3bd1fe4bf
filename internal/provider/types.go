package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/optrun/pmccscan/internal/models"
)

// ProviderType identifies the logical role a provider fills.
type ProviderType string

const (
	TypeFundamentals ProviderType = "fundamentals"
	TypeOptions      ProviderType = "options"
	TypeAI           ProviderType = "ai"
)

// Operation names one entry of the common operation catalogue.
type Operation string

const (
	OpHealthCheck          Operation = "health_check"
	OpGetStockQuote        Operation = "get_stock_quote"
	OpGetStockQuotes       Operation = "get_stock_quotes"
	OpGetOptionsChain      Operation = "get_options_chain"
	OpScreenStocks         Operation = "screen_stocks"
	OpGetFundamentalData   Operation = "get_fundamental_data"
	OpGetCalendarEvents    Operation = "get_calendar_events"
	OpGetTechnicals        Operation = "get_technical_indicators"
	OpGetRiskMetrics       Operation = "get_risk_metrics"
	OpGetCompanyNews       Operation = "get_company_news"
	OpGetEconomicEvents    Operation = "get_economic_events"
	OpGetHistoricalPrices  Operation = "get_historical_prices"
	OpGetEnhancedStockData Operation = "get_enhanced_stock_data"
	OpAnalyzePMCC          Operation = "analyze_pmcc_opportunity"
)

// Provider is the common operation catalogue every adapter implements.
// Adapters embed Unsupported and override the operations they support;
// SupportsOperation lets the router discover capabilities without
// issuing a call.
type Provider interface {
	Name() string
	Type() ProviderType
	SupportsOperation(op Operation) bool

	// Health returns the cached health snapshot without network I/O.
	// HealthCheck performs the cheap remote probe and refreshes it.
	Health() models.ProviderHealth
	HealthCheck(ctx context.Context) (*models.ProviderHealth, error)

	GetStockQuote(ctx context.Context, symbol string) (*models.StockQuote, error)
	GetStockQuotes(ctx context.Context, symbols []string) ([]models.StockQuote, error)
	GetOptionsChain(ctx context.Context, symbol string, from, to time.Time) (*models.OptionChain, error)
	ScreenStocks(ctx context.Context, criteria models.ScreeningCriteria) ([]models.ScreenerResult, error)
	GetFundamentalData(ctx context.Context, symbol string) (*models.FundamentalMetrics, error)
	GetCalendarEvents(ctx context.Context, symbol string, types []string, from, to time.Time) ([]models.CalendarEvent, error)
	GetTechnicalIndicators(ctx context.Context, symbol string) (*models.TechnicalIndicators, error)
	GetRiskMetrics(ctx context.Context, symbol string) (*models.FundamentalRisk, error)
	GetCompanyNews(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.NewsItem, error)
	GetEconomicEvents(ctx context.Context, from, to time.Time, country string) ([]models.EconomicEvent, error)
	GetHistoricalPrices(ctx context.Context, symbol, period string, from, to time.Time) ([]models.Bar, error)
	GetEnhancedStockData(ctx context.Context, symbol string) (*models.EnhancedStockData, error)
	AnalyzePMCCOpportunity(ctx context.Context, req *models.AIAnalysisRequest) (*models.AIAnalysis, error)
}

// Error codes used across adapters.
const (
	ErrCodeNotSupported = "NOT_SUPPORTED"
	ErrCodeAuth         = "AUTH_ERROR"
	ErrCodeRateLimit    = "RATE_LIMIT"
	ErrCodeCircuitOpen  = "CIRCUIT_OPEN"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeNetwork      = "NETWORK_ERROR"
	ErrCodeParse        = "PARSE_ERROR"
	ErrCodeAPI          = "API_ERROR"
	ErrCodeNoData       = "NO_DATA"
	ErrCodeBudget       = "BUDGET_EXHAUSTED"
	ErrCodeNoProvider   = "NO_PROVIDER"
)

// ProviderError is the typed error crossing every adapter boundary.
type ProviderError struct {
	Provider    string        `json:"provider"`
	Operation   Operation     `json:"operation,omitempty"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	HTTPStatus  int           `json:"http_status,omitempty"`
	RateLimited bool          `json:"rate_limited"`
	RetryAfter  time.Duration `json:"retry_after,omitempty"`
	Temporary   bool          `json:"temporary"`
	Cause       error         `json:"-"`
}

func (e *ProviderError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("provider %s: %s %s (%s)", e.Provider, e.Operation, e.Message, e.Code)
	}
	return fmt.Sprintf("provider %s: %s (%s)", e.Provider, e.Message, e.Code)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewNotSupported builds the distinguishable error for operations an
// adapter does not implement.
func NewNotSupported(provider string, op Operation) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Operation: op,
		Code:      ErrCodeNotSupported,
		Message:   "operation not supported",
	}
}

// IsNotSupported reports whether err is a NotSupported provider error.
func IsNotSupported(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == ErrCodeNotSupported
}

// IsAuthError reports a rejected credential. Auth errors are
// non-retryable and exempt from circuit-breaker accounting.
func IsAuthError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == ErrCodeAuth
}

// IsRetryable reports whether a failed attempt should be retried
// within the same adapter (network, 5xx, rate limit).
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Temporary || pe.RateLimited
	}
	return false
}

// Status of a routed call.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Envelope is the uniform result wrapper the router produces for every
// routed operation.
type Envelope struct {
	Status    Status                `json:"status"`
	Data      any                   `json:"data,omitempty"`
	Error     *ProviderError        `json:"error,omitempty"`
	RateLimit *models.RateLimitInfo `json:"rate_limit,omitempty"`
	Provider  string                `json:"provider,omitempty"`
	Operation Operation             `json:"operation"`
	Latency   time.Duration         `json:"latency"`
	Attempts  int                   `json:"attempts"`
}

// OK reports whether the envelope carries data.
func (e *Envelope) OK() bool {
	return e.Status == StatusOK
}
