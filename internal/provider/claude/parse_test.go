package claude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

const validResponse = `{
  "symbol": "AAPL",
  "pmcc_score": 78.5,
  "execution_risk_score": 70,
  "financial_stability_score": 85,
  "calendar_event_score": 60,
  "technical_setup_score": 72,
  "recommendation": "buy",
  "confidence_level": 82,
  "key_risks": ["earnings in 18 days"],
  "key_opportunities": ["strong uptrend"],
  "management_strategy": "roll the short call at 21 DTE",
  "entry_timing": "enter on a pullback to the 20 day SMA",
  "exit_conditions": ["breakeven breached"],
  "position_sizing": "max 5% of portfolio"
}`

func TestParseAnalysisClean(t *testing.T) {
	a, err := ParseAnalysis(validResponse)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", a.Symbol)
	assert.Equal(t, 78.5, a.PMCCScore)
	assert.Equal(t, models.RecommendBuy, a.Recommendation)
	assert.Len(t, a.KeyRisks, 1)
}

func TestParseAnalysisStripsFencesAndProse(t *testing.T) {
	wrapped := "Here is my analysis:\n```json\n" + validResponse + "\n```\nLet me know if you need more."
	a, err := ParseAnalysis(wrapped)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", a.Symbol)
}

func TestParseAnalysisToleratesExtraFields(t *testing.T) {
	extra := `{"symbol":"AAPL","pmcc_score":50,"recommendation":"hold","confidence_level":60,"unexpected_field":true}`
	a, err := ParseAnalysis(extra)
	require.NoError(t, err)
	assert.Equal(t, models.RecommendHold, a.Recommendation)
}

func TestParseAnalysisRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"no json":            "I cannot analyze this position.",
		"unbalanced":         `{"symbol": "AAPL", "pmcc_score": 50`,
		"bad score":          `{"symbol":"AAPL","pmcc_score":150,"recommendation":"buy","confidence_level":60}`,
		"bad recommendation": `{"symbol":"AAPL","pmcc_score":50,"recommendation":"maybe","confidence_level":60}`,
		"missing symbol":     `{"pmcc_score":50,"recommendation":"buy","confidence_level":60}`,
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAnalysis(text)
			require.Error(t, err)
			var pe *provider.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, provider.ErrCodeParse, pe.Code)
		})
	}
}

func TestExtractJSONIgnoresBracesInStrings(t *testing.T) {
	text := `prefix {"a": "value with } brace", "b": {"nested": 1}} suffix`
	assert.Equal(t, `{"a": "value with } brace", "b": {"nested": 1}}`, extractJSON(text))
}
