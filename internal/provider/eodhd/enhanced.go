package eodhd

import (
	"context"
	"net/url"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/optrun/pmccscan/internal/models"
)

type rawRealTime struct {
	Code          string      `json:"code"`
	Close         stringFloat `json:"close"`
	PreviousClose stringFloat `json:"previousClose"`
	Change        stringFloat `json:"change"`
	ChangePct     stringFloat `json:"change_p"`
	Volume        int64       `json:"volume"`
	Timestamp     int64       `json:"timestamp"`
}

// GetEnhancedStockData assembles the per-symbol composite for the AI
// stage: quote, fundamentals, technicals, risk, calendar, news, macro
// events, and 30 days of history with a regression trend. Sections
// that fail stay nil and lower the completeness score instead of
// failing the composite.
func (c *Client) GetEnhancedStockData(ctx context.Context, symbol string) (*models.EnhancedStockData, error) {
	now := time.Now().UTC()
	data := &models.EnhancedStockData{Symbol: symbol, RetrievedAt: now}

	if quote, err := c.fetchRealTimeQuote(ctx, symbol); err == nil {
		data.Quote = quote
	} else {
		c.log.Debug().Err(err).Str("symbol", symbol).Msg("enhanced: quote unavailable")
	}

	if fundamentals, err := c.GetFundamentalData(ctx, symbol); err == nil {
		data.Fundamentals = fundamentals
	} else {
		c.log.Debug().Err(err).Str("symbol", symbol).Msg("enhanced: fundamentals unavailable")
	}

	if technicals, err := c.GetTechnicalIndicators(ctx, symbol); err == nil {
		data.Technicals = technicals
	} else {
		c.log.Debug().Err(err).Str("symbol", symbol).Msg("enhanced: technicals unavailable")
	}

	if risk, err := c.GetRiskMetrics(ctx, symbol); err == nil {
		data.Risk = risk
	}

	if events, err := c.GetCalendarEvents(ctx, symbol, nil, now, now.AddDate(0, 3, 0)); err == nil {
		data.CalendarEvents = events
	}

	if news, err := c.GetCompanyNews(ctx, symbol, now.AddDate(0, 0, -14), now, 10); err == nil {
		data.News = news
	}

	if econ, err := c.GetEconomicEvents(ctx, now, now.AddDate(0, 1, 0), "US"); err == nil {
		data.EconomicEvents = econ
	}

	if bars, err := c.GetHistoricalPrices(ctx, symbol, "d", now.AddDate(0, 0, -30), now); err == nil && len(bars) > 0 {
		data.HistoricalPrices = bars
		data.TrendSlope = trendSlope(bars)
	}

	data.CompletenessScore = data.Completeness()
	return data, nil
}

func (c *Client) fetchRealTimeQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	var raw rawRealTime
	query := url.Values{"fmt": {"json"}}
	if err := c.rest.GetJSON(ctx, "/real-time/"+url.PathEscape(symbol), query, &raw); err != nil {
		return nil, err
	}

	quote := &models.StockQuote{
		Symbol:        symbol,
		Last:          raw.Close.Value(),
		Volume:        raw.Volume,
		Change:        raw.Change.Value(),
		ChangePercent: raw.ChangePct.Value(),
		PreviousClose: raw.PreviousClose.Value(),
	}
	if raw.Timestamp > 0 {
		quote.Timestamp = time.Unix(raw.Timestamp, 0).UTC()
	}
	if err := quote.Validate(); err != nil {
		return nil, err
	}
	return quote, nil
}

// trendSlope fits a least-squares line through the closing prices,
// normalized by the first close so the slope reads as daily fractional
// drift.
func trendSlope(bars []models.Bar) float64 {
	if len(bars) < 2 || bars[0].Close == 0 {
		return 0
	}
	xs := make([]float64, len(bars))
	ys := make([]float64, len(bars))
	for i, b := range bars {
		xs[i] = float64(i)
		ys[i] = b.Close / bars[0].Close
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}
