// Package ai runs the optional augmentation stage: enrich each top
// candidate with fundamentals/technicals/calendar context, send it to
// the AI analyst, and merge the returned score into the ranking.
package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/optrun/pmccscan/internal/metrics"
	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

// Config tunes the augmentation stage.
type Config struct {
	// Enabled gates the whole stage; when false Augment is a no-op.
	Enabled bool `yaml:"enabled"`

	// MinCompleteness skips candidates whose enhanced data populated
	// fewer sections than this percentage.
	MinCompleteness float64 `yaml:"min_completeness"`

	// Concurrency bounds simultaneous AI requests.
	Concurrency int `yaml:"concurrency"`

	// QuantWeight and AIWeight mix the two scores into combined_score.
	QuantWeight float64 `yaml:"quant_weight"`
	AIWeight    float64 `yaml:"ai_weight"`
}

// DefaultConfig returns the documented augmentation defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		MinCompleteness: 60,
		Concurrency:     5,
		QuantWeight:     0.6,
		AIWeight:        0.4,
	}
}

// Augmentor drives the AI stage through the provider router.
type Augmentor struct {
	router *provider.Router
	config Config
	log    zerolog.Logger
}

// New builds an augmentor.
func New(router *provider.Router, config Config, log zerolog.Logger) *Augmentor {
	if config.Concurrency <= 0 {
		config.Concurrency = 5
	}
	if config.QuantWeight == 0 && config.AIWeight == 0 {
		config.QuantWeight, config.AIWeight = 0.6, 0.4
	}
	return &Augmentor{
		router: router,
		config: config,
		log:    log.With().Str("component", "ai").Logger(),
	}
}

// Augment annotates the candidates in place and returns stage warnings.
// Failures are per-candidate: a candidate whose enhancement or analysis
// fails keeps its quantitative score and nil AI fields. The slice order
// is untouched; re-ranking on EffectiveScore is the caller's job.
func (a *Augmentor) Augment(ctx context.Context, candidates []models.PMCCCandidate, market *models.MarketContext) []string {
	if !a.config.Enabled || len(candidates) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		warnings []string
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, a.config.Concurrency)

	warn := func(format string, args ...any) {
		mu.Lock()
		warnings = append(warnings, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	for i := range candidates {
		wg.Add(1)
		go func(c *models.PMCCCandidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			retried, err := a.augmentOne(ctx, c, market)
			if err != nil {
				metrics.AIRequests.WithLabelValues("error").Inc()
				warn("ai: %s: %v", c.Symbol, err)
				return
			}
			if retried {
				warn("ai: %s: malformed response recovered on retry", c.Symbol)
			}
		}(&candidates[i])
	}
	wg.Wait()

	return warnings
}

// augmentOne enriches and scores one candidate. It reports whether the
// adapter had to retry a malformed response so the caller can record a
// run-level warning.
func (a *Augmentor) augmentOne(ctx context.Context, c *models.PMCCCandidate, market *models.MarketContext) (bool, error) {
	enhanced, err := a.router.GetEnhancedStockData(ctx, c.Symbol)
	if err != nil {
		return false, fmt.Errorf("enhanced data unavailable, kept quantitative score: %w", err)
	}
	if score := enhanced.Completeness(); score < a.config.MinCompleteness {
		return false, fmt.Errorf("skipped, data completeness %.0f%% below %.0f%%", score, a.config.MinCompleteness)
	}

	analysis, err := a.router.AnalyzePMCCOpportunity(ctx, &models.AIAnalysisRequest{
		Candidate: c,
		Enhanced:  enhanced,
		Market:    market,
	})
	if err != nil {
		return false, fmt.Errorf("analysis failed, kept quantitative score: %w", err)
	}

	a.merge(c, analysis)
	metrics.AIRequests.WithLabelValues("ok").Inc()
	a.log.Debug().
		Str("symbol", c.Symbol).
		Float64("pmcc_score", analysis.PMCCScore).
		Float64("combined", *c.CombinedScore).
		Str("recommendation", string(analysis.Recommendation)).
		Msg("candidate augmented")
	return analysis.ResponseRetried, nil
}

// merge attaches the analysis and computes
// combined = quant_weight*total + ai_weight*pmcc.
func (a *Augmentor) merge(c *models.PMCCCandidate, analysis *models.AIAnalysis) {
	now := time.Now().UTC()
	combined := a.config.QuantWeight*c.TotalScore + a.config.AIWeight*analysis.PMCCScore

	c.AIInsights = analysis
	c.ClaudeScore = ptr(analysis.PMCCScore)
	c.CombinedScore = ptr(combined)
	c.ClaudeConfidence = ptr(analysis.ConfidenceLevel)
	c.ClaudeReasoning = analysis.ManagementStrategy
	c.AIRecommendation = string(analysis.Recommendation)
	c.AIAnalysisTimestamp = &now
}

func ptr(v float64) *float64 { return &v }
