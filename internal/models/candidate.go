package models

import "time"

// RiskMetrics is the position-level risk block computed for one PMCC
// pair. Monetary fields are computed with exact decimal arithmetic in
// the risk calculator and stored here as float64 for serialization.
type RiskMetrics struct {
	MaxLoss    float64 `json:"max_loss"`
	MaxProfit  float64 `json:"max_profit"`
	Breakeven  float64 `json:"breakeven"`
	NetDelta   float64 `json:"net_delta"`
	NetGamma   float64 `json:"net_gamma"`
	NetTheta   float64 `json:"net_theta"`
	NetVega    float64 `json:"net_vega"`
	RiskReward float64 `json:"risk_reward"`
}

// ScoreBreakdown carries the per-factor sub-scores, each 0-100.
type ScoreBreakdown struct {
	Liquidity   float64  `json:"liquidity"`
	Probability float64  `json:"probability"`
	ROI         float64  `json:"roi"`
	RiskReward  float64  `json:"risk_reward"`
	Volatility  *float64 `json:"volatility,omitempty"`
	Technical   *float64 `json:"technical,omitempty"`
	Fundamental *float64 `json:"fundamental,omitempty"`
}

// PMCCCandidate is one scored long-LEAPS / short-call pair. Legs are
// held by value so the originating chain can be dropped after analysis.
// AI fields are nil until the augmentation stage sets them.
type PMCCCandidate struct {
	Symbol          string         `json:"symbol"`
	UnderlyingPrice float64        `json:"underlying_price"`
	LongCall        OptionContract `json:"long_call"`
	ShortCall       OptionContract `json:"short_call"`
	NetDebit        float64        `json:"net_debit"`
	Risk            RiskMetrics    `json:"risk_metrics"`
	Scores          ScoreBreakdown `json:"scores"`
	TotalScore      float64        `json:"total_score"`
	Rank            int            `json:"rank,omitempty"`
	StaleQuote      bool           `json:"stale_quote,omitempty"`
	DiscoveredAt    time.Time      `json:"discovered_at"`

	// AI augmentation. Every field serializes even when the stage is
	// disabled or skipped, so consumers see explicit nulls and empty
	// strings rather than missing keys.
	AIInsights          *AIAnalysis `json:"ai_insights"`
	ClaudeScore         *float64    `json:"claude_score"`
	CombinedScore       *float64    `json:"combined_score"`
	ClaudeReasoning     string      `json:"claude_reasoning"`
	AIRecommendation    string      `json:"ai_recommendation"`
	ClaudeConfidence    *float64    `json:"claude_confidence"`
	AIAnalysisTimestamp *time.Time  `json:"ai_analysis_timestamp"`
}

// Validate checks the PMCC validity invariant on an emitted candidate.
func (c *PMCCCandidate) Validate() error {
	if c.LongCall.Side != SideCall || c.ShortCall.Side != SideCall {
		return &ValidationError{Field: "legs", Message: "both legs must be calls"}
	}
	if c.LongCall.Strike >= c.ShortCall.Strike {
		return &ValidationError{Field: "strike", Message: "long strike must be below short strike"}
	}
	if c.LongCall.DTE <= c.ShortCall.DTE {
		return &ValidationError{Field: "dte", Message: "long DTE must exceed short DTE"}
	}
	if c.NetDebit <= 0 {
		return &ValidationError{Field: "net_debit", Message: "net debit must be positive"}
	}
	return nil
}

// EffectiveScore returns the combined score when AI ran, else the
// quantitative total score. Final ranking sorts on this value.
func (c *PMCCCandidate) EffectiveScore() float64 {
	if c.CombinedScore != nil {
		return *c.CombinedScore
	}
	return c.TotalScore
}
