package eodhd

import (
	"context"
	"net/url"
	"time"

	"github.com/optrun/pmccscan/internal/models"
)

type rawBar struct {
	Date          string      `json:"date"`
	Open          stringFloat `json:"open"`
	High          stringFloat `json:"high"`
	Low           stringFloat `json:"low"`
	Close         stringFloat `json:"close"`
	AdjustedClose stringFloat `json:"adjusted_close"`
	Volume        int64       `json:"volume"`
}

// GetHistoricalPrices fetches OHLCV bars for one symbol. Period is the
// upstream bar size ("d", "w", "m"); daily when empty.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol, period string, from, to time.Time) ([]models.Bar, error) {
	if period == "" {
		period = "d"
	}
	query := url.Values{
		"period": {period},
		"fmt":    {"json"},
	}
	if !from.IsZero() {
		query.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		query.Set("to", to.Format("2006-01-02"))
	}

	var rows []rawBar
	if err := c.rest.GetJSON(ctx, "/eod/"+url.PathEscape(symbol), query, &rows); err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(rows))
	for _, row := range rows {
		d, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		bars = append(bars, models.Bar{
			Symbol:   symbol,
			Date:     d,
			Open:     row.Open.Value(),
			High:     row.High.Value(),
			Low:      row.Low.Value(),
			Close:    row.Close.Value(),
			AdjClose: row.AdjustedClose.Value(),
			Volume:   row.Volume,
		})
	}
	return bars, nil
}
