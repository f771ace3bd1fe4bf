package eodhd

import (
	"context"
	"time"

	talib "github.com/markcheno/go-talib"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

// GetTechnicalIndicators computes the normalized indicator set from a
// year of daily bars. The upstream's indicator endpoints answer in
// several shapes (plain strings for some indicators, lists of dicts
// for others); computing locally from the EOD series yields one shape
// and a single billed request.
func (c *Client) GetTechnicalIndicators(ctx context.Context, symbol string) (*models.TechnicalIndicators, error) {
	to := time.Now().UTC()
	from := to.AddDate(-1, 0, 0)

	bars, err := c.GetHistoricalPrices(ctx, symbol, "d", from, to)
	if err != nil {
		return nil, err
	}
	if len(bars) < 30 {
		return nil, &provider.ProviderError{
			Provider:  providerName,
			Operation: provider.OpGetTechnicals,
			Code:      provider.ErrCodeNoData,
			Message:   "insufficient price history for " + symbol,
		}
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	ind := &models.TechnicalIndicators{Symbol: symbol}

	if rsi := talib.Rsi(closes, 14); len(rsi) > 0 {
		ind.RSI14 = last(rsi)
	}
	if atr := talib.Atr(highs, lows, closes, 14); len(atr) > 0 {
		ind.ATR14 = last(atr)
	}
	if sma := talib.Sma(closes, 20); len(sma) > 0 {
		ind.SMA20 = last(sma)
	}
	if len(closes) >= 50 {
		if sma := talib.Sma(closes, 50); len(sma) > 0 {
			ind.SMA50 = last(sma)
		}
	}
	if len(closes) >= 200 {
		if sma := talib.Sma(closes, 200); len(sma) > 0 {
			ind.SMA200 = last(sma)
		}
	}
	if macd, signal, hist := talib.Macd(closes, 12, 26, 9); len(macd) > 0 {
		ind.MACD = last(macd)
		ind.MACDSignal = last(signal)
		ind.MACDHistogram = last(hist)
	}
	if upper, mid, lower := talib.BBands(closes, 20, 2, 2, talib.SMA); len(upper) > 0 {
		ind.BollingerUpper = last(upper)
		ind.BollingerMid = last(mid)
		ind.BollingerLower = last(lower)
	}

	return ind, nil
}

func last(values []float64) float64 {
	return values[len(values)-1]
}
