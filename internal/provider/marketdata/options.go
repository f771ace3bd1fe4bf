package marketdata

import (
	"context"
	"net/url"
	"time"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

// chainResponse is the upstream's column-oriented option chain payload.
type chainResponse struct {
	Status          string    `json:"s"`
	OptionSymbol    []string  `json:"optionSymbol"`
	Underlying      []string  `json:"underlying"`
	Strike          []float64 `json:"strike"`
	Side            []string  `json:"side"`
	Bid             []float64 `json:"bid"`
	Ask             []float64 `json:"ask"`
	Last            []float64 `json:"last"`
	Volume          []int64   `json:"volume"`
	OpenInterest    []int64   `json:"openInterest"`
	Delta           []float64 `json:"delta"`
	Gamma           []float64 `json:"gamma"`
	Theta           []float64 `json:"theta"`
	Vega            []float64 `json:"vega"`
	IV              []float64 `json:"iv"`
	Expiration      []int64   `json:"expiration"`
	DTE             []int     `json:"dte"`
	UnderlyingPrice []float64 `json:"underlyingPrice"`
	Updated         []int64   `json:"updated"`
}

// GetOptionsChain fetches the call side of the chain for one
// underlying across the requested expiration window. A single request
// spans both the LEAPS and short-call windows; the upstream supports
// arbitrary from/to ranges so two requests are never needed.
func (c *Client) GetOptionsChain(ctx context.Context, symbol string, from, to time.Time) (*models.OptionChain, error) {
	query := url.Values{}
	query.Set("side", "call")
	if !from.IsZero() {
		query.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		query.Set("to", to.Format("2006-01-02"))
	}
	if c.config.CachedFeed {
		// Cached feed bills per request instead of per contract.
		query.Set("feed", "cached")
	}

	var resp chainResponse
	if err := c.rest.GetJSON(ctx, "/options/chain/"+url.PathEscape(symbol)+"/", query, &resp); err != nil {
		return nil, err
	}

	chain := &models.OptionChain{Underlying: symbol, Updated: time.Now().UTC()}
	if resp.Status == "no_data" {
		return chain, nil
	}
	if resp.Status != "ok" {
		return nil, &provider.ProviderError{
			Provider:  providerName,
			Operation: provider.OpGetOptionsChain,
			Code:      provider.ErrCodeAPI,
			Message:   "upstream status " + resp.Status,
		}
	}

	for i := range resp.OptionSymbol {
		contract := models.OptionContract{
			OptionSymbol: resp.OptionSymbol[i],
			Underlying:   symbol,
			Side:         models.SideCall,
		}
		if i < len(resp.Underlying) && resp.Underlying[i] != "" {
			contract.Underlying = resp.Underlying[i]
		}
		if i < len(resp.Strike) {
			contract.Strike = resp.Strike[i]
		}
		if i < len(resp.Side) && resp.Side[i] == "put" {
			contract.Side = models.SidePut
		}
		if i < len(resp.Bid) {
			contract.Bid = resp.Bid[i]
		}
		if i < len(resp.Ask) {
			contract.Ask = resp.Ask[i]
		}
		if i < len(resp.Last) {
			contract.Last = resp.Last[i]
		}
		if i < len(resp.Volume) {
			contract.Volume = resp.Volume[i]
		}
		if i < len(resp.OpenInterest) {
			contract.OpenInterest = resp.OpenInterest[i]
		}
		if i < len(resp.Delta) {
			contract.Delta = resp.Delta[i]
		}
		if i < len(resp.Gamma) {
			contract.Gamma = resp.Gamma[i]
		}
		if i < len(resp.Theta) {
			contract.Theta = resp.Theta[i]
		}
		if i < len(resp.Vega) {
			contract.Vega = resp.Vega[i]
		}
		if i < len(resp.IV) {
			contract.IV = resp.IV[i]
		}
		if i < len(resp.Expiration) && resp.Expiration[i] > 0 {
			contract.Expiration = time.Unix(resp.Expiration[i], 0).UTC()
		}
		if i < len(resp.DTE) {
			contract.DTE = resp.DTE[i]
		}
		if i < len(resp.UnderlyingPrice) {
			contract.UnderlyingPrice = resp.UnderlyingPrice[i]
		}

		contract.Normalize()
		if err := contract.Validate(); err != nil {
			c.log.Debug().Str("option", contract.OptionSymbol).Err(err).Msg("dropping invalid contract")
			continue
		}

		if chain.UnderlyingPrice == 0 && contract.UnderlyingPrice > 0 {
			chain.UnderlyingPrice = contract.UnderlyingPrice
		}
		chain.Contracts = append(chain.Contracts, contract)
	}

	if err := chain.Validate(); err != nil {
		return nil, &provider.ProviderError{
			Provider:  providerName,
			Operation: provider.OpGetOptionsChain,
			Code:      provider.ErrCodeParse,
			Message:   err.Error(),
			Cause:     err,
		}
	}
	return chain, nil
}
