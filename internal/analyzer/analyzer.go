// Package analyzer filters option chains into scored PMCC candidates:
// partition the chain into LEAPS and short-call candidates, pair them
// under the validity gates, attach the risk block, and score.
package analyzer

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/risk"
)

// Analyzer turns one chain + quote into zero or more candidates.
type Analyzer struct {
	config Config
	log    zerolog.Logger
}

// New builds an analyzer with the given criteria.
func New(config Config, log zerolog.Logger) *Analyzer {
	if config.MaxLegCandidates <= 0 {
		config.MaxLegCandidates = 20
	}
	if config.StaleQuoteAgeHours <= 0 {
		config.StaleQuoteAgeHours = 24
	}
	return &Analyzer{
		config: config,
		log:    log.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze runs the full filter/pair/score pass for one symbol. An
// empty chain yields zero candidates and no error.
func (a *Analyzer) Analyze(chain *models.OptionChain, quote *models.StockQuote) ([]models.PMCCCandidate, error) {
	if chain == nil || len(chain.Contracts) == 0 {
		return nil, nil
	}
	if quote == nil || quote.Last <= 0 {
		return nil, fmt.Errorf("analyzer: no usable quote for %s", chain.Underlying)
	}

	underlyingPrice := quote.Last
	staleQuote := quote.IsStale(time.Duration(a.config.StaleQuoteAgeHours) * time.Hour)

	leaps, shorts := a.partition(chain, underlyingPrice)
	if len(leaps) == 0 || len(shorts) == 0 {
		return nil, nil
	}

	// Deepest ITM first for LEAPS, richest premium first for shorts.
	sort.Slice(leaps, func(i, j int) bool { return leaps[i].Delta > leaps[j].Delta })
	sort.Slice(shorts, func(i, j int) bool { return shorts[i].Bid > shorts[j].Bid })

	if len(leaps) > a.config.MaxLegCandidates {
		leaps = leaps[:a.config.MaxLegCandidates]
	}
	if len(shorts) > a.config.MaxLegCandidates {
		shorts = shorts[:a.config.MaxLegCandidates]
	}

	candidates := a.pair(chain.Underlying, underlyingPrice, leaps, shorts, staleQuote)
	candidates = dedupeByExpirationBucket(candidates)

	sort.Slice(candidates, func(i, j int) bool { return less(&candidates[j], &candidates[i]) })
	if a.config.TopPerSymbol > 0 && len(candidates) > a.config.TopPerSymbol {
		candidates = candidates[:a.config.TopPerSymbol]
	}
	return candidates, nil
}

// partition splits the chain's calls into LEAPS and short candidates
// by DTE, delta, moneyness, and liquidity. Contracts without Greeks,
// crossed markets, and contracts with neither volume nor open interest
// are discarded outright.
func (a *Analyzer) partition(chain *models.OptionChain, underlyingPrice float64) (leaps, shorts []models.OptionContract) {
	for _, c := range chain.Contracts {
		if c.Side != models.SideCall {
			continue
		}
		if !c.HasGreeks() {
			continue
		}
		if c.IsCrossed() {
			continue
		}
		if c.OpenInterest == 0 && c.Volume == 0 {
			continue
		}

		if a.matchesLeg(&c, a.config.LEAPS) && c.Strike < underlyingPrice {
			leaps = append(leaps, c)
			continue
		}
		if a.matchesLeg(&c, a.config.Short) && c.Strike > underlyingPrice {
			shorts = append(shorts, c)
		}
	}
	return leaps, shorts
}

func (a *Analyzer) matchesLeg(c *models.OptionContract, criteria LegCriteria) bool {
	if c.DTE < criteria.MinDTE || c.DTE > criteria.MaxDTE {
		return false
	}
	if c.Delta < criteria.MinDelta || c.Delta > criteria.MaxDelta {
		return false
	}
	if c.OpenInterest < criteria.MinOpenInterest {
		return false
	}
	spread := c.SpreadPercent()
	if spread < 0 || spread > criteria.MaxSpreadPercent {
		return false
	}
	return true
}

// pair runs the bounded cross product through the PMCC validity gates.
func (a *Analyzer) pair(symbol string, underlyingPrice float64, leaps, shorts []models.OptionContract, staleQuote bool) []models.PMCCCandidate {
	now := time.Now().UTC()
	var out []models.PMCCCandidate

	for i := range leaps {
		long := &leaps[i]
		for j := range shorts {
			short := &shorts[j]

			if long.Strike >= short.Strike || long.DTE <= short.DTE {
				continue
			}
			if short.Strike <= underlyingPrice {
				continue
			}

			metrics, err := risk.Compute(long, short)
			if err != nil {
				continue
			}
			if metrics.MaxProfit <= 0 {
				continue
			}
			if metrics.RiskReward < a.config.MinRiskReward {
				continue
			}

			candidate := models.PMCCCandidate{
				Symbol:          symbol,
				UnderlyingPrice: underlyingPrice,
				LongCall:        *long,
				ShortCall:       *short,
				NetDebit:        metrics.MaxLoss,
				Risk:            *metrics,
				StaleQuote:      staleQuote,
				DiscoveredAt:    now,
			}
			a.score(&candidate)
			out = append(out, candidate)
		}
	}
	return out
}

// dedupeByExpirationBucket keeps the best-scoring pair per
// (long expiration, short expiration) bucket to avoid near-duplicates.
func dedupeByExpirationBucket(candidates []models.PMCCCandidate) []models.PMCCCandidate {
	best := make(map[string]models.PMCCCandidate)
	for _, c := range candidates {
		key := c.LongCall.Expiration.Format("2006-01-02") + "/" + c.ShortCall.Expiration.Format("2006-01-02")
		if cur, ok := best[key]; !ok || less(&cur, &c) {
			best[key] = c
		}
	}

	out := make([]models.PMCCCandidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	return out
}

// less orders candidates by total score, breaking ties by liquidity
// then risk/reward, all descending. Returns true when a < b.
func less(a, b *models.PMCCCandidate) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore < b.TotalScore
	}
	if a.Scores.Liquidity != b.Scores.Liquidity {
		return a.Scores.Liquidity < b.Scores.Liquidity
	}
	return a.Risk.RiskReward < b.Risk.RiskReward
}
