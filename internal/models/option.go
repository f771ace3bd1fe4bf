package models

import (
	"fmt"
	"time"
)

// OptionSide distinguishes calls from puts.
type OptionSide string

const (
	SideCall OptionSide = "call"
	SidePut  OptionSide = "put"
)

// OptionContract is a single option contract with quote and Greeks.
// Contracts are immutable once fetched; the analyzer copies the ones it
// keeps into candidates so chains can be dropped after analysis.
type OptionContract struct {
	OptionSymbol    string     `json:"option_symbol"`
	Underlying      string     `json:"underlying"`
	Strike          float64    `json:"strike"`
	Expiration      time.Time  `json:"expiration"`
	Side            OptionSide `json:"side"`
	Bid             float64    `json:"bid"`
	Ask             float64    `json:"ask"`
	Mid             float64    `json:"mid"`
	Last            float64    `json:"last"`
	Volume          int64      `json:"volume"`
	OpenInterest    int64      `json:"open_interest"`
	Delta           float64    `json:"delta"`
	Gamma           float64    `json:"gamma"`
	Theta           float64    `json:"theta"`
	Vega            float64    `json:"vega"`
	IV              float64    `json:"iv"`
	DTE             int        `json:"dte"`
	UnderlyingPrice float64    `json:"underlying_price"`
	InTheMoney      bool       `json:"in_the_money"`
}

// Normalize fills derived fields: mid from bid/ask when both sides are
// quoted, and moneyness from the underlying price.
func (c *OptionContract) Normalize() {
	if c.Bid > 0 && c.Ask > 0 {
		c.Mid = (c.Bid + c.Ask) / 2
	}
	if c.Side == SideCall {
		c.InTheMoney = c.UnderlyingPrice > c.Strike
	} else {
		c.InTheMoney = c.UnderlyingPrice < c.Strike
	}
}

// Validate checks contract invariants.
func (c *OptionContract) Validate() error {
	if c.Strike <= 0 {
		return &ValidationError{Field: "strike", Message: "strike must be positive"}
	}
	if c.DTE < 0 {
		return &ValidationError{Field: "dte", Message: "dte must not be negative"}
	}
	if c.Side != SideCall && c.Side != SidePut {
		return &ValidationError{Field: "side", Message: fmt.Sprintf("unknown side %q", c.Side)}
	}
	return nil
}

// HasGreeks reports whether the contract carries usable Greeks. The
// analyzer discards contracts without them.
func (c *OptionContract) HasGreeks() bool {
	return c.Delta != 0 || c.Gamma != 0 || c.Theta != 0 || c.Vega != 0
}

// IsCrossed reports a crossed market (bid above ask), which the
// analyzer discards.
func (c *OptionContract) IsCrossed() bool {
	return c.Bid > 0 && c.Ask > 0 && c.Bid > c.Ask
}

// SpreadPercent returns the bid-ask spread as a fraction of mid, or -1
// when the spread cannot be computed.
func (c *OptionContract) SpreadPercent() float64 {
	if c.Bid <= 0 || c.Ask <= 0 || c.Mid <= 0 {
		return -1
	}
	return (c.Ask - c.Bid) / c.Mid
}

// OptionChain is the full set of contracts fetched for one underlying.
type OptionChain struct {
	Underlying      string           `json:"underlying"`
	UnderlyingPrice float64          `json:"underlying_price"`
	Updated         time.Time        `json:"updated"`
	Contracts       []OptionContract `json:"contracts"`
}

// Validate checks that every contract belongs to the chain's underlying.
func (ch *OptionChain) Validate() error {
	for i := range ch.Contracts {
		if ch.Contracts[i].Underlying != ch.Underlying {
			return &ValidationError{
				Field:   "contracts",
				Message: fmt.Sprintf("contract %s belongs to %s, not %s", ch.Contracts[i].OptionSymbol, ch.Contracts[i].Underlying, ch.Underlying),
			}
		}
	}
	return nil
}

// Calls returns only the call contracts.
func (ch *OptionChain) Calls() []OptionContract {
	var calls []OptionContract
	for _, c := range ch.Contracts {
		if c.Side == SideCall {
			calls = append(calls, c)
		}
	}
	return calls
}
