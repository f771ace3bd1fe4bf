package analyzer

import (
	"math"

	"github.com/optrun/pmccscan/internal/models"
)

// score fills the sub-scores and the weighted total for a candidate
// whose risk block is already attached. All sub-scores are 0-100.
func (a *Analyzer) score(c *models.PMCCCandidate) {
	liquidity := a.liquidityScore(c)
	probability := a.probabilityScore(c)
	roi := roiScore(c)
	riskReward := riskRewardScore(c)

	c.Scores.Liquidity = liquidity
	c.Scores.Probability = probability
	c.Scores.ROI = roi
	c.Scores.RiskReward = riskReward

	w := a.config.Weights
	total := w.ROI*roi + w.RiskReward*riskReward + w.Probability*probability + w.Liquidity*liquidity
	c.TotalScore = clamp(total)
}

// liquidityScore mixes LEAPS spread (40%), short spread (30%), and
// combined log volume + open interest (30%). Tight spreads score high;
// each 1% of spread costs roughly 10 points.
func (a *Analyzer) liquidityScore(c *models.PMCCCandidate) float64 {
	leapsSpread := spreadScore(c.LongCall.SpreadPercent())
	shortSpread := spreadScore(c.ShortCall.SpreadPercent())

	activity := float64(c.LongCall.Volume+c.ShortCall.Volume) +
		float64(c.LongCall.OpenInterest+c.ShortCall.OpenInterest)
	// log10(10_000) = 4 maps to a full activity score.
	activityScore := clamp(math.Log10(activity+1) / 4 * 100)

	return clamp(0.4*leapsSpread + 0.3*shortSpread + 0.3*activityScore)
}

// spreadScore applies the linear spread penalty: 100 at zero spread,
// minus ~10 points per 1% of spread.
func spreadScore(spreadPct float64) float64 {
	if spreadPct < 0 {
		return 0
	}
	return clamp(100 - spreadPct*100*10)
}

// probabilityScore is the qualitative proxy: distance from breakeven
// to the underlying (closer is better), short DTE near the middle of
// its window, and LEAPS delta near 0.80.
func (a *Analyzer) probabilityScore(c *models.PMCCCandidate) float64 {
	// Breakeven proximity: at-the-money breakeven scores 100; each 1%
	// the breakeven sits above the underlying costs 5 points.
	breakevenDistance := (c.Risk.Breakeven - c.UnderlyingPrice) / c.UnderlyingPrice
	breakevenScore := clamp(100 - breakevenDistance*100*5)

	// Short DTE centered in the allowed window.
	mid := float64(a.config.Short.MinDTE+a.config.Short.MaxDTE) / 2
	halfWidth := float64(a.config.Short.MaxDTE-a.config.Short.MinDTE) / 2
	dteScore := 100.0
	if halfWidth > 0 {
		dteScore = clamp(100 - math.Abs(float64(c.ShortCall.DTE)-mid)/halfWidth*50)
	}

	// LEAPS delta near 0.80: each 0.01 away costs ~6.7 points.
	deltaScore := clamp(100 - math.Abs(c.LongCall.Delta-0.80)/0.15*100)

	return clamp(0.5*breakevenScore + 0.25*dteScore + 0.25*deltaScore)
}

// roiScore rates the return on the debit annualized to the short
// leg's tenor; 50% annualized maps to a full score.
func roiScore(c *models.PMCCCandidate) float64 {
	if c.Risk.MaxLoss <= 0 || c.ShortCall.DTE <= 0 {
		return 0
	}
	roi := c.Risk.MaxProfit / c.Risk.MaxLoss
	annualized := roi * 365 / float64(c.ShortCall.DTE)
	return clamp(annualized / 0.5 * 100)
}

// riskRewardScore maps risk/reward 0..1+ onto 0..100.
func riskRewardScore(c *models.PMCCCandidate) float64 {
	return clamp(c.Risk.RiskReward * 100)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
