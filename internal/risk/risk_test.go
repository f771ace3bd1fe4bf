package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optrun/pmccscan/internal/models"
)

func leg(strike, bid, ask, delta float64) *models.OptionContract {
	return &models.OptionContract{
		Side:   models.SideCall,
		Strike: strike,
		Bid:    bid,
		Ask:    ask,
		Delta:  delta,
	}
}

func TestNetDebit(t *testing.T) {
	long := leg(90, 6.80, 7.00, 0.82)
	short := leg(100, 2.50, 2.70, 0.28)

	assert.Equal(t, "4.5", NetDebit(long, short).String())
}

func TestComputeMetrics(t *testing.T) {
	long := leg(90, 6.80, 7.00, 0.82)
	long.Gamma, long.Theta, long.Vega = 0.015, -0.02, 0.35
	short := leg(100, 2.50, 2.70, 0.28)
	short.Gamma, short.Theta, short.Vega = 0.030, -0.05, 0.18

	m, err := Compute(long, short)
	require.NoError(t, err)

	assert.InDelta(t, 4.50, m.MaxLoss, 1e-9)
	assert.InDelta(t, 5.50, m.MaxProfit, 1e-9)
	assert.InDelta(t, 94.50, m.Breakeven, 1e-9)
	assert.InDelta(t, 1.2222, m.RiskReward, 1e-4)

	assert.InDelta(t, 0.54, m.NetDelta, 1e-9)
	assert.InDelta(t, -0.015, m.NetGamma, 1e-9)
	assert.InDelta(t, 0.03, m.NetTheta, 1e-9)
	assert.InDelta(t, 0.17, m.NetVega, 1e-9)
}

// A tenth-cent debit must survive exactly rather than drift the way
// binary float accumulation would.
func TestComputeExactDecimals(t *testing.T) {
	long := leg(90, 6.00, 6.10, 0.80)
	short := leg(100, 6.00, 6.20, 0.30)

	m, err := Compute(long, short)
	require.NoError(t, err)
	assert.Equal(t, 0.10, m.MaxLoss)
	assert.Equal(t, 9.90, m.MaxProfit)
	assert.Equal(t, 90.10, m.Breakeven)
}

func TestComputeRejectsNonPositiveDebit(t *testing.T) {
	// Short bid above long ask would be a credit, not a PMCC debit.
	long := leg(90, 2.00, 2.10, 0.80)
	short := leg(100, 2.50, 2.70, 0.30)

	_, err := Compute(long, short)
	require.ErrorIs(t, err, ErrInvalidPair)

	// Exactly zero debit is also invalid.
	long = leg(90, 2.40, 2.50, 0.80)
	_, err = Compute(long, short)
	require.ErrorIs(t, err, ErrInvalidPair)
}

func TestComputeWideDebitCanExceedStrikeWidth(t *testing.T) {
	// Net debit 22.50 against a 10-wide spread: max profit is negative
	// and the caller is expected to discard the pair.
	long := leg(90, 24.80, 25.00, 0.88)
	short := leg(100, 2.50, 2.70, 0.25)

	m, err := Compute(long, short)
	require.NoError(t, err)
	assert.InDelta(t, 22.50, m.MaxLoss, 1e-9)
	assert.True(t, m.MaxProfit < 0)
}
