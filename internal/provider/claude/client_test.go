package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

func analysisRequest() *models.AIAnalysisRequest {
	return &models.AIAnalysisRequest{
		Candidate: &models.PMCCCandidate{
			Symbol:          "AAPL",
			UnderlyingPrice: 95,
			LongCall:        models.OptionContract{Side: models.SideCall, Strike: 90, DTE: 400, Delta: 0.82, Ask: 7.00},
			ShortCall:       models.OptionContract{Side: models.SideCall, Strike: 100, DTE: 30, Delta: 0.28, Bid: 2.50},
			NetDebit:        4.50,
			TotalScore:      72,
		},
		Enhanced: &models.EnhancedStockData{Symbol: "AAPL"},
	}
}

func messagesPayload(text string) string {
	raw, _ := json.Marshal(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
		"usage":   map[string]int{"input_tokens": 1200, "output_tokens": 400},
	})
	return string(raw)
}

func newAnalysisClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{
		ClientConfig: provider.ClientConfig{BaseURL: srv.URL, Token: "test-key", RPS: 1000, Burst: 1000},
	}, zerolog.Nop())
}

func TestAnalyzeParsesResponse(t *testing.T) {
	var gotVersion, gotKey string
	c := newAnalysisClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")
		_, _ = w.Write([]byte(messagesPayload(validResponse)))
	})

	a, err := c.AnalyzePMCCOpportunity(context.Background(), analysisRequest())
	require.NoError(t, err)
	assert.Equal(t, "AAPL", a.Symbol)
	assert.Equal(t, 78.5, a.PMCCScore)
	assert.False(t, a.ResponseRetried)
	assert.Equal(t, apiVersion, gotVersion)
	assert.Equal(t, "test-key", gotKey)
	assert.Greater(t, c.budget.Spent(), 0.0, "token usage must count against the budget")
}

// A malformed first response triggers exactly one reminder retry.
func TestAnalyzeRetriesOnceOnMalformedResponse(t *testing.T) {
	var calls atomic.Int64
	c := newAnalysisClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(messagesPayload("I think this trade looks good overall.")))
			return
		}
		var req messageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		require.Len(t, req.Messages, 2, "retry must carry the format reminder")
		assert.Equal(t, parseReminder, req.Messages[1].Content)
		_, _ = w.Write([]byte(messagesPayload(validResponse)))
	})

	a, err := c.AnalyzePMCCOpportunity(context.Background(), analysisRequest())
	require.NoError(t, err)
	assert.Equal(t, "AAPL", a.Symbol)
	assert.True(t, a.ResponseRetried, "a recovered retry must be visible to the caller")
	assert.EqualValues(t, 2, calls.Load())
}

func TestAnalyzeSecondParseFailureSurfaces(t *testing.T) {
	var calls atomic.Int64
	c := newAnalysisClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(messagesPayload("still not JSON")))
	})

	_, err := c.AnalyzePMCCOpportunity(context.Background(), analysisRequest())
	require.Error(t, err)
	var pe *provider.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, provider.ErrCodeParse, pe.Code)
	assert.EqualValues(t, 2, calls.Load())
}

func TestAnalyzeBudgetExhausted(t *testing.T) {
	var calls atomic.Int64
	c := newAnalysisClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(messagesPayload(validResponse)))
	})
	c.budget.Record(c.config.DailyCostLimit + 1)

	_, err := c.AnalyzePMCCOpportunity(context.Background(), analysisRequest())
	require.Error(t, err)
	var pe *provider.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, provider.ErrCodeBudget, pe.Code)
	assert.Zero(t, calls.Load(), "exhausted budget must not reach the API")
}

func TestAnalyzeRejectsEmptyRequest(t *testing.T) {
	c := newAnalysisClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request should be sent")
	})

	_, err := c.AnalyzePMCCOpportunity(context.Background(), nil)
	require.Error(t, err)
	_, err = c.AnalyzePMCCOpportunity(context.Background(), &models.AIAnalysisRequest{})
	require.Error(t, err)
}
