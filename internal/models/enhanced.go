package models

import "time"

// FundamentalMetrics is the fixed schema the fundamentals adapter
// reduces raw upstream payloads into. Quarterly statements are already
// collapsed to the most recent quarter plus derived ratios; raw
// payloads never leave the adapter.
type FundamentalMetrics struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	Sector      string `json:"sector,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Description string `json:"description,omitempty"`

	// Profitability
	GrossMargin     float64 `json:"gross_margin,omitempty"`
	OperatingMargin float64 `json:"operating_margin,omitempty"`
	NetMargin       float64 `json:"net_margin,omitempty"`
	ROE             float64 `json:"roe,omitempty"`
	ROA             float64 `json:"roa,omitempty"`

	// Valuation
	MarketCap    float64 `json:"market_cap,omitempty"`
	PERatio      float64 `json:"pe_ratio,omitempty"`
	ForwardPE    float64 `json:"forward_pe,omitempty"`
	PriceToBook  float64 `json:"price_to_book,omitempty"`
	PriceToSales float64 `json:"price_to_sales,omitempty"`
	EPS          float64 `json:"eps,omitempty"`

	// Dividends
	DividendYield   float64    `json:"dividend_yield,omitempty"`
	PayoutRatio     float64    `json:"payout_ratio,omitempty"`
	ExDividendDate  *time.Time `json:"ex_dividend_date,omitempty"`

	// Analyst ratings
	AnalystRating      string  `json:"analyst_rating,omitempty"`
	AnalystTargetPrice float64 `json:"analyst_target_price,omitempty"`
	AnalystCount       int     `json:"analyst_count,omitempty"`

	// Most recent quarter, balance sheet
	TotalAssets      float64 `json:"total_assets,omitempty"`
	TotalLiabilities float64 `json:"total_liabilities,omitempty"`
	TotalEquity      float64 `json:"total_equity,omitempty"`
	CashAndEquiv     float64 `json:"cash_and_equivalents,omitempty"`
	TotalDebt        float64 `json:"total_debt,omitempty"`
	DebtToEquity     float64 `json:"debt_to_equity,omitempty"`

	// Most recent quarter, cash flow
	OperatingCashFlow float64 `json:"operating_cash_flow,omitempty"`
	FreeCashFlow      float64 `json:"free_cash_flow,omitempty"`

	// Most recent quarter, income statement
	Revenue   float64 `json:"revenue,omitempty"`
	NetIncome float64 `json:"net_income,omitempty"`
}

// CalendarEvent is a dated corporate event (earnings or dividend).
// Date is the announcement date, not the fiscal quarter end.
type CalendarEvent struct {
	Symbol   string    `json:"symbol"`
	Type     string    `json:"type"` // "earnings" or "dividend"
	Date     time.Time `json:"date"`
	Estimate float64   `json:"estimate,omitempty"`
	Actual   float64   `json:"actual,omitempty"`
	Amount   float64   `json:"amount,omitempty"`
}

// NewsItem is a single company news headline.
type NewsItem struct {
	Symbol      string    `json:"symbol"`
	Title       string    `json:"title"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   float64   `json:"sentiment,omitempty"`
}

// EconomicEvent is a macro calendar entry (CPI, FOMC, payrolls, ...).
type EconomicEvent struct {
	Event    string    `json:"event"`
	Country  string    `json:"country"`
	Date     time.Time `json:"date"`
	Impact   string    `json:"impact,omitempty"`
	Estimate float64   `json:"estimate,omitempty"`
	Previous float64   `json:"previous,omitempty"`
	Actual   float64   `json:"actual,omitempty"`
}

// TechnicalIndicators is the normalized single shape all upstream
// indicator responses are reduced to before leaving the adapter.
type TechnicalIndicators struct {
	Symbol         string  `json:"symbol"`
	RSI14          float64 `json:"rsi_14,omitempty"`
	ATR14          float64 `json:"atr_14,omitempty"`
	SMA20          float64 `json:"sma_20,omitempty"`
	SMA50          float64 `json:"sma_50,omitempty"`
	SMA200         float64 `json:"sma_200,omitempty"`
	MACD           float64 `json:"macd,omitempty"`
	MACDSignal     float64 `json:"macd_signal,omitempty"`
	MACDHistogram  float64 `json:"macd_histogram,omitempty"`
	BollingerUpper float64 `json:"bollinger_upper,omitempty"`
	BollingerMid   float64 `json:"bollinger_mid,omitempty"`
	BollingerLower float64 `json:"bollinger_lower,omitempty"`
}

// FundamentalRisk is the fundamentals-side risk snapshot exposed by the
// get_risk_metrics operation (distinct from the per-position RiskMetrics).
type FundamentalRisk struct {
	Symbol       string  `json:"symbol"`
	Beta         float64 `json:"beta,omitempty"`
	ShortPercent float64 `json:"short_percent,omitempty"`
	Volatility30 float64 `json:"volatility_30d,omitempty"`
	DebtToEquity float64 `json:"debt_to_equity,omitempty"`
	CurrentRatio float64 `json:"current_ratio,omitempty"`
}

// EnhancedStockData is the dense per-symbol composite assembled for the
// AI stage. Optional sections stay nil when unavailable; the
// completeness score reflects how much of the composite is populated.
type EnhancedStockData struct {
	Symbol            string               `json:"symbol"`
	Quote             *StockQuote          `json:"quote,omitempty"`
	Fundamentals      *FundamentalMetrics  `json:"fundamentals,omitempty"`
	Technicals        *TechnicalIndicators `json:"technicals,omitempty"`
	Risk              *FundamentalRisk     `json:"risk,omitempty"`
	CalendarEvents    []CalendarEvent      `json:"calendar_events,omitempty"`
	News              []NewsItem           `json:"news,omitempty"`
	EconomicEvents    []EconomicEvent      `json:"economic_events,omitempty"`
	HistoricalPrices  []Bar                `json:"historical_prices,omitempty"`
	TrendSlope        float64              `json:"trend_slope,omitempty"`
	CompletenessScore float64              `json:"completeness_score"`
	RetrievedAt       time.Time            `json:"retrieved_at"`
}

// Completeness recomputes the 0-100 completeness score from the
// populated sections. Each section contributes an equal share.
func (e *EnhancedStockData) Completeness() float64 {
	sections := []bool{
		e.Quote != nil,
		e.Fundamentals != nil,
		e.Technicals != nil,
		e.Risk != nil,
		len(e.CalendarEvents) > 0,
		len(e.News) > 0,
		len(e.EconomicEvents) > 0,
		len(e.HistoricalPrices) > 0,
	}
	populated := 0
	for _, ok := range sections {
		if ok {
			populated++
		}
	}
	return float64(populated) / float64(len(sections)) * 100
}
