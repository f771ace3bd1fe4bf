package models

import "time"

// StockQuote represents a current equity quote snapshot.
type StockQuote struct {
	Symbol        string    `json:"symbol"`
	Last          float64   `json:"last"`
	Bid           float64   `json:"bid"`
	Ask           float64   `json:"ask"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	PreviousClose float64   `json:"previous_close"`
	MarketCap     float64   `json:"market_cap,omitempty"`
}

// Validate checks quote invariants: a positive last price and an
// uncrossed bid/ask when both sides are present.
func (q *StockQuote) Validate() error {
	if q.Last <= 0 {
		return &ValidationError{Field: "last", Message: "last price must be positive"}
	}
	if q.Bid > 0 && q.Ask > 0 && q.Bid > q.Ask {
		return &ValidationError{Field: "bid", Message: "bid must not exceed ask"}
	}
	return nil
}

// IsStale reports whether the quote is older than the given age.
// Stale quotes remain usable but are flagged by the analyzer.
func (q *StockQuote) IsStale(maxAge time.Duration) bool {
	if q.Timestamp.IsZero() {
		return false
	}
	return time.Since(q.Timestamp) > maxAge
}

// Bar represents a single historical OHLCV bar.
type Bar struct {
	Symbol   string    `json:"symbol"`
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close,omitempty"`
	Volume   int64     `json:"volume"`
}

// ValidationError describes an entity field that violates an invariant.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
