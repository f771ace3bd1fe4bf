package models

import "time"

// AIRecommendation constrains the analyst verdict.
type AIRecommendation string

const (
	RecommendBuy   AIRecommendation = "buy"
	RecommendHold  AIRecommendation = "hold"
	RecommendAvoid AIRecommendation = "avoid"
)

// AIAnalysis is the strict JSON response shape expected from the AI
// analyst for one opportunity.
type AIAnalysis struct {
	Symbol                  string           `json:"symbol"`
	PMCCScore               float64          `json:"pmcc_score"`
	ExecutionRiskScore      float64          `json:"execution_risk_score"`
	FinancialStabilityScore float64          `json:"financial_stability_score"`
	CalendarEventScore      float64          `json:"calendar_event_score"`
	TechnicalSetupScore     float64          `json:"technical_setup_score"`
	Recommendation          AIRecommendation `json:"recommendation"`
	ConfidenceLevel         float64          `json:"confidence_level"`
	KeyRisks                []string         `json:"key_risks"`
	KeyOpportunities        []string         `json:"key_opportunities"`
	ManagementStrategy      string           `json:"management_strategy"`
	EntryTiming             string           `json:"entry_timing"`
	ExitConditions          []string         `json:"exit_conditions"`
	PositionSizing          string           `json:"position_sizing"`

	// ResponseRetried marks that the first response was malformed and
	// this analysis came from the format-reminder retry. Set by the
	// adapter, not part of the response schema.
	ResponseRetried bool `json:"-"`
}

// Validate checks the response fields the merge step depends on.
func (a *AIAnalysis) Validate() error {
	if a.Symbol == "" {
		return &ValidationError{Field: "symbol", Message: "symbol is required"}
	}
	if a.PMCCScore < 0 || a.PMCCScore > 100 {
		return &ValidationError{Field: "pmcc_score", Message: "pmcc_score must be in [0,100]"}
	}
	if a.ConfidenceLevel < 0 || a.ConfidenceLevel > 100 {
		return &ValidationError{Field: "confidence_level", Message: "confidence_level must be in [0,100]"}
	}
	switch a.Recommendation {
	case RecommendBuy, RecommendHold, RecommendAvoid:
	default:
		return &ValidationError{Field: "recommendation", Message: "recommendation must be buy, hold, or avoid"}
	}
	return nil
}

// MarketContext carries scan-wide market state attached to every AI
// request of a run.
type MarketContext struct {
	ScanDate      time.Time `json:"scan_date"`
	VIX           float64   `json:"vix,omitempty"`
	SPYChange     float64   `json:"spy_change,omitempty"`
	TenYearYield  float64   `json:"ten_year_yield,omitempty"`
	MarketRegime  string    `json:"market_regime,omitempty"`
	UniverseSize  int       `json:"universe_size,omitempty"`
	CandidateRank int       `json:"candidate_rank,omitempty"`
}

// AIAnalysisRequest bundles everything the AI adapter needs to score
// one candidate.
type AIAnalysisRequest struct {
	Candidate *PMCCCandidate     `json:"candidate"`
	Enhanced  *EnhancedStockData `json:"enhanced"`
	Market    *MarketContext     `json:"market_context,omitempty"`
}
