// Package risk computes position-level risk metrics for PMCC pairs.
// It is pure and deterministic: no I/O, and all price arithmetic runs
// on exact decimals rather than binary floats.
package risk

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/optrun/pmccscan/internal/models"
)

// ErrInvalidPair is returned when the legs cannot form a debit spread.
var ErrInvalidPair = errors.New("risk: legs do not form a valid PMCC pair")

// NetDebit returns the cash outlay to open the position,
// long.ask - short.bid, as an exact decimal.
func NetDebit(long, short *models.OptionContract) decimal.Decimal {
	return decimal.NewFromFloat(long.Ask).Sub(decimal.NewFromFloat(short.Bid))
}

// Compute builds the full risk block for a pair:
//
//	max_loss   = net_debit
//	max_profit = (short.strike - long.strike) - net_debit
//	breakeven  = long.strike + net_debit
//	net Greeks = long - short
//	risk_reward = max_profit / max_loss
//
// It fails when net debit is not positive, since the structure is then
// not a debit spread.
func Compute(long, short *models.OptionContract) (*models.RiskMetrics, error) {
	netDebit := NetDebit(long, short)
	if !netDebit.IsPositive() {
		return nil, ErrInvalidPair
	}

	longStrike := decimal.NewFromFloat(long.Strike)
	shortStrike := decimal.NewFromFloat(short.Strike)

	maxProfit := shortStrike.Sub(longStrike).Sub(netDebit)
	breakeven := longStrike.Add(netDebit)
	riskReward := maxProfit.Div(netDebit)

	return &models.RiskMetrics{
		MaxLoss:    netDebit.InexactFloat64(),
		MaxProfit:  maxProfit.InexactFloat64(),
		Breakeven:  breakeven.InexactFloat64(),
		NetDelta:   round4(long.Delta - short.Delta),
		NetGamma:   round4(long.Gamma - short.Gamma),
		NetTheta:   round4(long.Theta - short.Theta),
		NetVega:    round4(long.Vega - short.Vega),
		RiskReward: riskReward.Round(4).InexactFloat64(),
	}, nil
}

func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}
