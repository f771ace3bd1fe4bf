package models

// ScreeningCriteria defines the first-pass stock universe filter.
type ScreeningCriteria struct {
	MinPrice         float64  `json:"min_price" yaml:"min_price"`
	MaxPrice         float64  `json:"max_price" yaml:"max_price"`
	MinMarketCap     float64  `json:"min_market_cap" yaml:"min_market_cap"`
	MaxMarketCap     float64  `json:"max_market_cap" yaml:"max_market_cap"`
	MinVolume        int64    `json:"min_volume" yaml:"min_volume"`
	Exchanges        []string `json:"exchanges" yaml:"exchanges"`
	ExcludePennies   bool     `json:"exclude_pennies" yaml:"exclude_pennies"`
	ExcludeETFs      bool     `json:"exclude_etfs" yaml:"exclude_etfs"`
	Limit            int      `json:"limit" yaml:"limit"`
}

// DefaultScreeningCriteria returns the criteria used when the scan
// config does not override them.
func DefaultScreeningCriteria() ScreeningCriteria {
	return ScreeningCriteria{
		MinPrice:       5.0,
		MaxPrice:       500.0,
		MinMarketCap:   50_000_000,
		MaxMarketCap:   5_000_000_000,
		MinVolume:      100_000,
		Exchanges:      []string{"NYSE", "NASDAQ"},
		ExcludePennies: true,
		ExcludeETFs:    true,
		Limit:          100,
	}
}

// ScreenerResult is one row from a stock screen.
type ScreenerResult struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Exchange  string  `json:"exchange"`
	Last      float64 `json:"last"`
	Volume    int64   `json:"volume"`
	MarketCap float64 `json:"market_cap"`
	Sector    string  `json:"sector,omitempty"`
	Industry  string  `json:"industry,omitempty"`
	IsETF     bool    `json:"is_etf"`
}
