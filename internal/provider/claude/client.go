// Package claude implements the AI analyst provider adapter. It
// supports exactly one catalogue operation, analyze_pmcc_opportunity,
// against an Anthropic-style messages API, with a daily spend budget
// and strict-JSON response parsing.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/optrun/pmccscan/internal/metrics"
	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

const (
	providerName = "claude"

	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 2048
	apiVersion       = "2023-06-01"
)

// Config configures the AI adapter.
type Config struct {
	provider.ClientConfig `yaml:",inline"`

	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	DailyCostLimit float64 `yaml:"daily_cost_limit"`

	// DebugDir, when set, receives one response dump per request keyed
	// by symbol and timestamp.
	DebugDir string `yaml:"debug_dir"`

	// Per-million-token prices used for budget accounting.
	InputTokenPrice  float64 `yaml:"input_token_price"`
	OutputTokenPrice float64 `yaml:"output_token_price"`
}

// Client is the AI analyst provider adapter.
type Client struct {
	provider.Unsupported

	config Config
	rest   *provider.RESTClient
	health *provider.HealthTracker
	budget *Budget
	log    zerolog.Logger
}

// New builds the adapter with a $10/day default budget.
func New(config Config, log zerolog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com/v1"
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.DailyCostLimit <= 0 {
		config.DailyCostLimit = 10.0
	}
	if config.InputTokenPrice <= 0 {
		config.InputTokenPrice = 3.0
	}
	if config.OutputTokenPrice <= 0 {
		config.OutputTokenPrice = 15.0
	}

	health := provider.NewHealthTracker()
	return &Client{
		Unsupported: provider.Unsupported{ProviderName: providerName},
		config:      config,
		rest:        provider.NewRESTClient(providerName, config.ClientConfig, health),
		health:      health,
		budget:      NewBudget(config.DailyCostLimit),
		log:         log.With().Str("provider", providerName).Logger(),
	}
}

func (c *Client) Name() string                { return providerName }
func (c *Client) Type() provider.ProviderType { return provider.TypeAI }

func (c *Client) SupportsOperation(op provider.Operation) bool {
	return op == provider.OpAnalyzePMCC || op == provider.OpHealthCheck
}

// Health returns the cached health snapshot.
func (c *Client) Health() models.ProviderHealth {
	return c.health.Snapshot()
}

// HealthCheck verifies a key is configured without spending tokens.
func (c *Client) HealthCheck(_ context.Context) (*models.ProviderHealth, error) {
	if c.config.Token == "" {
		c.health.SetStatus(models.StatusUnhealthy, "missing API key")
	}
	snap := c.health.Snapshot()
	return &snap, nil
}

// messages API wire types.
type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// AnalyzePMCCOpportunity submits one analysis request. A malformed
// response is retried once with a format reminder; the second failure
// surfaces as a parse error. Requests skip with a budget error once
// the daily spend limit is reached.
func (c *Client) AnalyzePMCCOpportunity(ctx context.Context, req *models.AIAnalysisRequest) (*models.AIAnalysis, error) {
	if req == nil || req.Candidate == nil {
		return nil, &provider.ProviderError{
			Provider:  providerName,
			Operation: provider.OpAnalyzePMCC,
			Code:      provider.ErrCodeAPI,
			Message:   "analysis request missing candidate",
		}
	}

	if !c.budget.Allow() {
		metrics.AIRequests.WithLabelValues("budget_exhausted").Inc()
		return nil, &provider.ProviderError{
			Provider:  providerName,
			Operation: provider.OpAnalyzePMCC,
			Code:      provider.ErrCodeBudget,
			Message:   fmt.Sprintf("daily budget of $%.2f exhausted", c.config.DailyCostLimit),
		}
	}

	prompt := BuildPrompt(req)
	analysis, raw, err := c.requestAnalysis(ctx, prompt, "")
	if err != nil {
		if pe, ok := err.(*provider.ProviderError); ok && pe.Code == provider.ErrCodeParse {
			c.log.Warn().Str("symbol", req.Candidate.Symbol).Msg("malformed AI response, retrying with reminder")
			analysis, raw, err = c.requestAnalysis(ctx, prompt, parseReminder)
			if err == nil {
				analysis.ResponseRetried = true
			}
		}
	}
	if err != nil {
		metrics.AIRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	c.dumpDebug(req.Candidate.Symbol, raw)
	metrics.AIRequests.WithLabelValues("ok").Inc()
	return analysis, nil
}

// requestAnalysis performs one round trip and parses the strict JSON.
func (c *Client) requestAnalysis(ctx context.Context, prompt, reminder string) (*models.AIAnalysis, string, error) {
	msgs := []message{{Role: "user", Content: prompt}}
	if reminder != "" {
		msgs = append(msgs, message{Role: "user", Content: reminder})
	}

	body := messageRequest{
		Model:     c.config.Model,
		MaxTokens: c.config.MaxTokens,
		System:    systemPrompt,
		Messages:  msgs,
	}

	headers := map[string]string{
		"x-api-key":         c.config.Token,
		"anthropic-version": apiVersion,
	}

	var resp messageResponse
	if err := c.rest.PostJSON(ctx, "/messages", headers, body, &resp); err != nil {
		return nil, "", err
	}

	cost := c.recordSpend(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	c.log.Debug().
		Int("input_tokens", resp.Usage.InputTokens).
		Int("output_tokens", resp.Usage.OutputTokens).
		Float64("cost_usd", cost).
		Msg("AI request completed")

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, "", &provider.ProviderError{
			Provider:  providerName,
			Operation: provider.OpAnalyzePMCC,
			Code:      provider.ErrCodeParse,
			Message:   "empty response content",
		}
	}

	analysis, err := ParseAnalysis(text)
	if err != nil {
		return nil, text, err
	}
	return analysis, text, nil
}

func (c *Client) recordSpend(inputTokens, outputTokens int) float64 {
	cost := float64(inputTokens)/1e6*c.config.InputTokenPrice +
		float64(outputTokens)/1e6*c.config.OutputTokenPrice
	c.budget.Record(cost)
	metrics.AISpendUSD.Add(cost)
	return cost
}

// dumpDebug writes the raw response for offline inspection when a
// debug directory is configured.
func (c *Client) dumpDebug(symbol, raw string) {
	if c.config.DebugDir == "" || raw == "" {
		return
	}
	if err := os.MkdirAll(c.config.DebugDir, 0o755); err != nil {
		return
	}
	name := fmt.Sprintf("%s_%s.json", symbol, time.Now().UTC().Format("20060102_150405"))
	payload, err := json.Marshal(map[string]string{"symbol": symbol, "response": raw})
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(c.config.DebugDir, name), payload, 0o644)
}
