package marketdata

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

// quoteResponse is the upstream's column-oriented quote payload.
type quoteResponse struct {
	Status    string    `json:"s"`
	Symbol    []string  `json:"symbol"`
	Ask       []float64 `json:"ask"`
	Bid       []float64 `json:"bid"`
	Mid       []float64 `json:"mid"`
	Last      []float64 `json:"last"`
	Change    []float64 `json:"change"`
	ChangePct []float64 `json:"changepct"`
	Volume    []int64   `json:"volume"`
	Updated   []int64   `json:"updated"`
}

// GetStockQuote fetches a single quote.
func (c *Client) GetStockQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	var resp quoteResponse
	if err := c.rest.GetJSON(ctx, "/stocks/quotes/"+url.PathEscape(symbol)+"/", nil, &resp); err != nil {
		return nil, err
	}

	quotes, err := c.toQuotes(&resp)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, &provider.ProviderError{
			Provider:  providerName,
			Operation: provider.OpGetStockQuote,
			Code:      provider.ErrCodeNoData,
			Message:   "no quote for " + symbol,
		}
	}
	return &quotes[0], nil
}

// GetStockQuotes fetches quotes for several symbols in one batched
// request; the upstream accepts a comma-joined symbol list.
func (c *Client) GetStockQuotes(ctx context.Context, symbols []string) ([]models.StockQuote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	var resp quoteResponse
	path := "/stocks/quotes/" + url.PathEscape(strings.Join(symbols, ",")) + "/"
	if err := c.rest.GetJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return c.toQuotes(&resp)
}

// toQuotes flattens the column arrays into quote values. An upstream
// "no_data" status is a business outcome, not an error envelope.
func (c *Client) toQuotes(resp *quoteResponse) ([]models.StockQuote, error) {
	if resp.Status == "no_data" {
		return nil, nil
	}
	if resp.Status != "ok" {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     provider.ErrCodeAPI,
			Message:  "upstream status " + resp.Status,
		}
	}

	quotes := make([]models.StockQuote, 0, len(resp.Symbol))
	for i := range resp.Symbol {
		q := models.StockQuote{Symbol: resp.Symbol[i]}
		if i < len(resp.Last) {
			q.Last = resp.Last[i]
		}
		if i < len(resp.Bid) {
			q.Bid = resp.Bid[i]
		}
		if i < len(resp.Ask) {
			q.Ask = resp.Ask[i]
		}
		if i < len(resp.Volume) {
			q.Volume = resp.Volume[i]
		}
		if i < len(resp.Change) {
			q.Change = resp.Change[i]
		}
		if i < len(resp.ChangePct) {
			q.ChangePercent = resp.ChangePct[i]
		}
		if i < len(resp.Updated) && resp.Updated[i] > 0 {
			q.Timestamp = time.Unix(resp.Updated[i], 0).UTC()
		}
		if q.Last > 0 && q.Change != 0 {
			q.PreviousClose = q.Last - q.Change
		}

		if err := q.Validate(); err != nil {
			c.log.Debug().Str("symbol", q.Symbol).Err(err).Msg("dropping invalid quote")
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}
