package analyzer

// LegCriteria filters one side of the spread.
type LegCriteria struct {
	MinDTE           int     `yaml:"min_dte"`
	MaxDTE           int     `yaml:"max_dte"`
	MinDelta         float64 `yaml:"min_delta"`
	MaxDelta         float64 `yaml:"max_delta"`
	MaxSpreadPercent float64 `yaml:"max_spread_percent"`
	MinOpenInterest  int64   `yaml:"min_open_interest"`
}

// Config versions the full analyzer criteria with the scan.
type Config struct {
	LEAPS LegCriteria `yaml:"leaps"`
	Short LegCriteria `yaml:"short"`

	MinRiskReward float64 `yaml:"min_risk_reward"`

	// MaxLegCandidates caps each partition before pairing so the
	// cross product stays bounded.
	MaxLegCandidates int `yaml:"max_leg_candidates"`

	// TopPerSymbol keeps at most this many candidates per underlying
	// after expiration-bucket dedupe; 0 keeps all.
	TopPerSymbol int `yaml:"top_per_symbol"`

	// StaleQuoteAge flags (but keeps) quotes older than this many hours.
	StaleQuoteAgeHours int `yaml:"stale_quote_age_hours"`

	Weights ScoreWeights `yaml:"weights"`
}

// ScoreWeights mixes the sub-scores into the total score.
type ScoreWeights struct {
	ROI         float64 `yaml:"roi"`
	RiskReward  float64 `yaml:"risk_reward"`
	Probability float64 `yaml:"probability"`
	Liquidity   float64 `yaml:"liquidity"`
}

// DefaultConfig returns the documented criteria defaults.
func DefaultConfig() Config {
	return Config{
		LEAPS: LegCriteria{
			MinDTE:           270,
			MaxDTE:           730,
			MinDelta:         0.75,
			MaxDelta:         0.90,
			MaxSpreadPercent: 0.05,
			MinOpenInterest:  10,
		},
		Short: LegCriteria{
			MinDTE:           21,
			MaxDTE:           45,
			MinDelta:         0.20,
			MaxDelta:         0.35,
			MaxSpreadPercent: 0.10,
			MinOpenInterest:  5,
		},
		MinRiskReward:      0.10,
		MaxLegCandidates:   20,
		TopPerSymbol:       3,
		StaleQuoteAgeHours: 24,
		Weights: ScoreWeights{
			ROI:         0.25,
			RiskReward:  0.25,
			Probability: 0.25,
			Liquidity:   0.25,
		},
	}
}
