package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/optrun/pmccscan/internal/models"
)

// capBand is one market-cap slice of a screener query.
type capBand struct {
	Min float64
	Max float64
}

// defaultCapBands subdivides the market-cap spectrum so that a single
// band stays under the upstream's per-query result cap. The band edges
// are data; adjust them if observed density changes.
var defaultCapBands = []capBand{
	{4e9, 5e9},
	{3e9, 4e9},
	{2e9, 3e9},
	{1.5e9, 2e9},
	{1e9, 1.5e9},
	{750e6, 1e9},
	{500e6, 750e6},
	{250e6, 500e6},
	{100e6, 250e6},
	{0, 100e6},
}

// screenerRow is one raw screener result from the upstream.
type screenerRow struct {
	Code             string  `json:"code"`
	Name             string  `json:"name"`
	Exchange         string  `json:"exchange"`
	MarketCap        float64 `json:"market_capitalization"`
	AdjustedClose    float64 `json:"adjusted_close"`
	AvgVolume        float64 `json:"avgvol_200d"`
	Sector           string  `json:"sector"`
	Industry         string  `json:"industry"`
	Type             string  `json:"type"`
}

type screenerResponse struct {
	Data []screenerRow `json:"data"`
}

// ScreenStocks runs the screen across market-cap bands and exchanges.
// The upstream caps each query at MaxResultsPerQuery, so the requested
// market-cap window is split into bands, each band is paged below the
// offset ceiling, and each declared exchange is queried separately.
// Results are concatenated, deduplicated by symbol, and sorted by
// market cap descending.
func (c *Client) ScreenStocks(ctx context.Context, criteria models.ScreeningCriteria) ([]models.ScreenerResult, error) {
	exchanges := criteria.Exchanges
	if len(exchanges) == 0 {
		exchanges = []string{"NYSE", "NASDAQ"}
	}

	bands := bandsWithin(criteria.MinMarketCap, criteria.MaxMarketCap)
	seen := make(map[string]bool)
	var results []models.ScreenerResult

	for _, exchange := range exchanges {
		for _, band := range bands {
			rows, err := c.screenBand(ctx, criteria, exchange, band)
			if err != nil {
				// One failed band degrades the universe; it does not
				// abort the screen.
				c.log.Warn().Err(err).
					Str("exchange", exchange).
					Float64("band_min", band.Min).
					Float64("band_max", band.Max).
					Msg("screener band failed")
				continue
			}
			for _, row := range rows {
				if seen[row.Symbol] {
					continue
				}
				seen[row.Symbol] = true
				results = append(results, row)
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].MarketCap > results[j].MarketCap
	})
	if criteria.Limit > 0 && len(results) > criteria.Limit {
		results = results[:criteria.Limit]
	}
	return results, nil
}

// bandsWithin clips the default band list to the requested window.
func bandsWithin(minCap, maxCap float64) []capBand {
	var bands []capBand
	for _, b := range defaultCapBands {
		if maxCap > 0 && b.Min >= maxCap {
			continue
		}
		if b.Max <= minCap {
			continue
		}
		clipped := b
		if minCap > clipped.Min {
			clipped.Min = minCap
		}
		if maxCap > 0 && maxCap < clipped.Max {
			clipped.Max = maxCap
		}
		bands = append(bands, clipped)
	}
	if len(bands) == 0 {
		bands = append(bands, capBand{Min: minCap, Max: maxCap})
	}
	return bands
}

// screenBand pages one exchange/band pair, keeping the offset below
// the upstream's ceiling.
func (c *Client) screenBand(ctx context.Context, criteria models.ScreeningCriteria, exchange string, band capBand) ([]models.ScreenerResult, error) {
	const pageSize = 100
	var out []models.ScreenerResult

	for offset := 0; offset <= c.config.OffsetCeiling; offset += pageSize {
		query := url.Values{}
		query.Set("filters", c.bandFilters(criteria, exchange, band))
		query.Set("sort", "market_capitalization.desc")
		query.Set("limit", fmt.Sprintf("%d", pageSize))
		query.Set("offset", fmt.Sprintf("%d", offset))
		query.Set("fmt", "json")

		var resp screenerResponse
		if err := c.rest.GetJSON(ctx, "/screener", query, &resp); err != nil {
			return out, err
		}

		for _, row := range resp.Data {
			out = append(out, models.ScreenerResult{
				Symbol:    row.Code,
				Name:      row.Name,
				Exchange:  row.Exchange,
				Last:      row.AdjustedClose,
				Volume:    int64(row.AvgVolume),
				MarketCap: row.MarketCap,
				Sector:    row.Sector,
				Industry:  row.Industry,
				IsETF:     row.Type == "ETF" || row.Type == "FUND",
			})
		}

		if len(resp.Data) < pageSize {
			break
		}
		if len(out) >= c.config.MaxResultsPerQuery {
			break
		}
	}
	return out, nil
}

// bandFilters renders the upstream filter expression for one band.
func (c *Client) bandFilters(criteria models.ScreeningCriteria, exchange string, band capBand) string {
	filters := fmt.Sprintf(`[["exchange","=","%s"],["market_capitalization",">=",%.0f]`, exchange, band.Min)
	if band.Max > 0 {
		filters += fmt.Sprintf(`,["market_capitalization","<",%.0f]`, band.Max)
	}
	if criteria.MinPrice > 0 {
		filters += fmt.Sprintf(`,["adjusted_close",">=",%.2f]`, criteria.MinPrice)
	}
	if criteria.MaxPrice > 0 {
		filters += fmt.Sprintf(`,["adjusted_close","<=",%.2f]`, criteria.MaxPrice)
	}
	if criteria.MinVolume > 0 {
		filters += fmt.Sprintf(`,["avgvol_200d",">=",%d]`, criteria.MinVolume)
	}
	filters += "]"
	return filters
}
