package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/scanner"
)

func sampleResult(t *testing.T, withAI bool) *scanner.Result {
	t.Helper()
	now := time.Date(2026, 3, 10, 14, 30, 5, 0, time.UTC)

	c := models.PMCCCandidate{
		Symbol:          "AAPL",
		UnderlyingPrice: 95,
		LongCall: models.OptionContract{
			Side: models.SideCall, Strike: 90, DTE: 400, Delta: 0.82,
			Bid: 6.80, Ask: 7.00, Mid: 6.90, OpenInterest: 150,
			Expiration: now.AddDate(0, 0, 400),
		},
		ShortCall: models.OptionContract{
			Side: models.SideCall, Strike: 100, DTE: 30, Delta: 0.28,
			Bid: 2.50, Ask: 2.60, Mid: 2.55, OpenInterest: 200,
			Expiration: now.AddDate(0, 0, 30),
		},
		NetDebit: 4.50,
		Risk: models.RiskMetrics{
			MaxLoss: 4.50, MaxProfit: 5.50, Breakeven: 94.50, RiskReward: 1.2222,
		},
		TotalScore:   71.5,
		Rank:         1,
		DiscoveredAt: now,
	}
	if withAI {
		score, combined, conf := 80.0, 74.9, 85.0
		c.ClaudeScore = &score
		c.CombinedScore = &combined
		c.ClaudeConfidence = &conf
		c.AIRecommendation = "buy"
		c.AIInsights = &models.AIAnalysis{
			Symbol: "AAPL", PMCCScore: 80, Recommendation: models.RecommendBuy,
			ConfidenceLevel: 85,
		}
		c.AIAnalysisTimestamp = &now
	}

	return &scanner.Result{
		ScanID:        "pmcc_scan_20260310_143005",
		CorrelationID: "3e0c4f2a-0000-0000-0000-000000000000",
		StartedAt:     now.Add(-2 * time.Minute),
		CompletedAt:   now,
		Universe:      100,
		Scanned:       100,
		Opportunities: []models.PMCCCandidate{c},
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	e := New(t.TempDir(), zerolog.Nop())
	result := sampleResult(t, true)

	jsonPath, _, err := e.Write(result)
	require.NoError(t, err)

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var decoded scanner.Result
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, result.ScanID, decoded.ScanID)
	require.Len(t, decoded.Opportunities, 1)

	got := decoded.Opportunities[0]
	want := result.Opportunities[0]
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.NetDebit, got.NetDebit)
	assert.Equal(t, want.Risk, got.Risk)
	require.NotNil(t, got.CombinedScore)
	assert.Equal(t, *want.CombinedScore, *got.CombinedScore)
	require.NotNil(t, got.AIInsights)
	assert.Equal(t, want.AIInsights.Recommendation, got.AIInsights.Recommendation)
}

func TestWriteJSONNullAIFields(t *testing.T) {
	e := New(t.TempDir(), zerolog.Nop())
	jsonPath, _, err := e.Write(sampleResult(t, false))
	require.NoError(t, err)

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var decoded struct {
		Opportunities []map[string]json.RawMessage `json:"opportunities"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Opportunities, 1)

	// AI fields must serialize as explicit nulls, not be omitted.
	for _, key := range []string{"ai_insights", "claude_score", "combined_score", "claude_confidence", "ai_analysis_timestamp"} {
		v, ok := decoded.Opportunities[0][key]
		require.True(t, ok, key)
		assert.Equal(t, "null", string(v), key)
	}
	// The string-typed AI fields stay present as empty strings.
	for _, key := range []string{"claude_reasoning", "ai_recommendation"} {
		v, ok := decoded.Opportunities[0][key]
		require.True(t, ok, key)
		assert.Equal(t, `""`, string(v), key)
	}
}

func TestWriteCSVRows(t *testing.T) {
	e := New(t.TempDir(), zerolog.Nop())
	_, csvPath, err := e.Write(sampleResult(t, true))
	require.NoError(t, err)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, csvHeader, rows[0])
	assert.Contains(t, rows[0], "scan_id")

	// Scan metadata repeats on every opportunity row.
	assert.Equal(t, "pmcc_scan_20260310_143005", rows[1][0])
	assert.Equal(t, "2026-03-10T14:30:05Z", rows[1][1])
	assert.Equal(t, "120.000", rows[1][2])
	assert.Equal(t, "100", rows[1][3])
	assert.Equal(t, "100", rows[1][4])

	assert.Equal(t, "1", rows[1][5])
	assert.Equal(t, "AAPL", rows[1][6])
	assert.Equal(t, "4.50", rows[1][18])
	assert.Equal(t, "buy", rows[1][25])
}

func TestWriteCSVEmptyScanKeepsMetadata(t *testing.T) {
	e := New(t.TempDir(), zerolog.Nop())
	result := sampleResult(t, false)
	result.Opportunities = nil

	_, csvPath, err := e.Write(result)
	require.NoError(t, err)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, result.ScanID, rows[1][0])
	assert.Equal(t, "100", rows[1][3])
	assert.Equal(t, "", rows[1][6], "no candidate columns on an empty scan")
}

func TestWriteNeverOverwrites(t *testing.T) {
	e := New(t.TempDir(), zerolog.Nop())
	result := sampleResult(t, false)

	_, _, err := e.Write(result)
	require.NoError(t, err)

	_, _, err = e.Write(result)
	require.Error(t, err)
}
