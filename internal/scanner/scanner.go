// Package scanner orchestrates a full scan: screen the universe, fan
// out per-symbol chain and quote fetches to a bounded worker pool, run
// the analyzer, optionally augment the top candidates with AI, and
// rank the survivors.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/optrun/pmccscan/internal/ai"
	"github.com/optrun/pmccscan/internal/analyzer"
	"github.com/optrun/pmccscan/internal/metrics"
	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
	"github.com/optrun/pmccscan/internal/screener"
)

// Config tunes one scan run.
type Config struct {
	// Universe, when non-empty, is the exact symbol list to scan; the
	// screening stage is skipped entirely.
	Universe []string `yaml:"universe"`

	// MaxStocks caps how many screened symbols are scanned; 0 means all.
	MaxStocks int `yaml:"max_stocks"`

	// MaxOpportunities caps the final ranked list.
	MaxOpportunities int `yaml:"max_opportunities"`

	// MinTotalScore drops candidates scoring below this before ranking.
	MinTotalScore float64 `yaml:"min_total_score"`

	// Workers bounds concurrent per-symbol fetches.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the documented scan defaults.
func DefaultConfig() Config {
	return Config{
		MaxStocks:        100,
		MaxOpportunities: 25,
		MinTotalScore:    0,
		Workers:          10,
	}
}

// Result is the output of one scan run.
type Result struct {
	ScanID        string                 `json:"scan_id"`
	CorrelationID string                 `json:"correlation_id"`
	StartedAt     time.Time              `json:"started_at"`
	CompletedAt   time.Time              `json:"completed_at"`
	Universe      int                    `json:"universe_size"`
	Scanned       int                    `json:"symbols_scanned"`
	Opportunities []models.PMCCCandidate `json:"opportunities"`
	Errors        []string               `json:"errors,omitempty"`
	Warnings      []string               `json:"warnings,omitempty"`
}

// Scanner wires the pipeline stages together.
type Scanner struct {
	screener *screener.Screener
	router   *provider.Router
	analyzer *analyzer.Analyzer
	augment  *ai.Augmentor
	config   Config
	criteria models.ScreeningCriteria
	window   analyzer.Config
	log      zerolog.Logger
}

// New builds a scanner. The augmentor may be nil to disable the AI stage.
func New(
	sc *screener.Screener,
	router *provider.Router,
	an *analyzer.Analyzer,
	augment *ai.Augmentor,
	config Config,
	criteria models.ScreeningCriteria,
	window analyzer.Config,
	log zerolog.Logger,
) *Scanner {
	if config.Workers <= 0 {
		config.Workers = 10
	}
	if config.MaxOpportunities < 0 {
		config.MaxOpportunities = 0
	}
	return &Scanner{
		screener: sc,
		router:   router,
		analyzer: an,
		augment:  augment,
		config:   config,
		criteria: criteria,
		window:   window,
		log:      log.With().Str("component", "scanner").Logger(),
	}
}

// Run executes one scan end to end. Per-symbol failures never abort
// the run; they are appended to the result's errors list.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	started := time.Now().UTC()
	result := &Result{
		ScanID:        "pmcc_scan_" + started.Format("20060102_150405"),
		CorrelationID: uuid.NewString(),
		StartedAt:     started,
	}
	log := s.log.With().Str("scan_id", result.ScanID).Logger()
	log.Info().Str("correlation_id", result.CorrelationID).Msg("scan started")

	universe, err := s.universe(ctx)
	if err != nil {
		metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("scanner: universe screen failed: %w", err)
	}
	result.Universe = len(universe)
	if s.config.MaxStocks > 0 && len(universe) > s.config.MaxStocks {
		universe = universe[:s.config.MaxStocks]
	}

	candidates := s.scanSymbols(ctx, universe, result)
	result.Scanned = len(universe)

	candidates = s.filterByScore(candidates)
	sortByEffectiveScore(candidates)
	if s.config.MaxOpportunities >= 0 && len(candidates) > s.config.MaxOpportunities {
		candidates = candidates[:s.config.MaxOpportunities]
	}

	if s.augment != nil && len(candidates) > 0 {
		market := &models.MarketContext{
			ScanDate:     started,
			UniverseSize: result.Universe,
		}
		warnings := s.augment.Augment(ctx, candidates, market)
		result.Warnings = append(result.Warnings, warnings...)
		// AI can reorder the list, so rank again on the merged scores.
		sortByEffectiveScore(candidates)
	}

	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	result.Opportunities = candidates
	result.CompletedAt = time.Now().UTC()

	metrics.ScansTotal.WithLabelValues("ok").Inc()
	metrics.ScanDuration.Observe(result.CompletedAt.Sub(started).Seconds())
	metrics.OpportunitiesFound.Add(float64(len(candidates)))

	log.Info().
		Int("universe", result.Universe).
		Int("scanned", result.Scanned).
		Int("opportunities", len(candidates)).
		Int("errors", len(result.Errors)).
		Dur("elapsed", result.CompletedAt.Sub(started)).
		Msg("scan completed")
	return result, nil
}

// universe resolves the symbols to scan: the explicitly configured
// list when one is set, the screener's output otherwise.
func (s *Scanner) universe(ctx context.Context) ([]models.ScreenerResult, error) {
	if len(s.config.Universe) == 0 {
		return s.screener.Screen(ctx, s.criteria)
	}
	out := make([]models.ScreenerResult, 0, len(s.config.Universe))
	for _, symbol := range s.config.Universe {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		out = append(out, models.ScreenerResult{Symbol: symbol})
	}
	s.log.Info().Int("symbols", len(out)).Msg("scanning explicit universe")
	return out, nil
}

// scanSymbols fans the universe out to the worker pool. Each worker
// fetches the chain and quote for one symbol and runs the analyzer.
func (s *Scanner) scanSymbols(ctx context.Context, universe []models.ScreenerResult, result *Result) []models.PMCCCandidate {
	var (
		mu         sync.Mutex
		candidates []models.PMCCCandidate
		wg         sync.WaitGroup
	)
	sem := make(chan struct{}, s.config.Workers)

	appendErr := func(symbol string, err error) {
		mu.Lock()
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", symbol, err))
		mu.Unlock()
	}

	// One expiration window spanning both legs keeps it to a single
	// chain request per symbol.
	now := time.Now().UTC()
	from := now.AddDate(0, 0, s.window.Short.MinDTE)
	to := now.AddDate(0, 0, s.window.LEAPS.MaxDTE)

	for _, row := range universe {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			found, err := s.scanOne(ctx, symbol, from, to)
			if err != nil {
				appendErr(symbol, err)
				return
			}
			metrics.SymbolsScanned.Inc()
			if len(found) == 0 {
				return
			}
			mu.Lock()
			candidates = append(candidates, found...)
			mu.Unlock()
		}(row.Symbol)
	}
	wg.Wait()
	return candidates
}

func (s *Scanner) scanOne(ctx context.Context, symbol string, from, to time.Time) ([]models.PMCCCandidate, error) {
	var (
		chain    *models.OptionChain
		quote    *models.StockQuote
		chainErr error
		quoteErr error
		wg       sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		chain, chainErr = s.router.GetOptionsChain(ctx, symbol, from, to)
	}()
	go func() {
		defer wg.Done()
		quote, quoteErr = s.router.GetStockQuote(ctx, symbol)
	}()
	wg.Wait()

	if chainErr != nil {
		return nil, fmt.Errorf("options chain: %w", chainErr)
	}
	if quoteErr != nil {
		return nil, fmt.Errorf("quote: %w", quoteErr)
	}
	return s.analyzer.Analyze(chain, quote)
}

func (s *Scanner) filterByScore(candidates []models.PMCCCandidate) []models.PMCCCandidate {
	if s.config.MinTotalScore <= 0 {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if c.TotalScore >= s.config.MinTotalScore {
			out = append(out, c)
		}
	}
	return out
}

func sortByEffectiveScore(candidates []models.PMCCCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EffectiveScore() > candidates[j].EffectiveScore()
	})
}
