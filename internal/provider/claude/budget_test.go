package claude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudgetAllowsUntilLimit(t *testing.T) {
	b := NewBudget(1.00)

	assert.True(t, b.Allow())
	b.Record(0.40)
	assert.True(t, b.Allow())
	b.Record(0.59)
	assert.True(t, b.Allow())
	b.Record(0.02)

	assert.False(t, b.Allow())
	assert.InDelta(t, 1.01, b.Spent(), 1e-9)
}

func TestBudgetRollsOverOnDayChange(t *testing.T) {
	b := NewBudget(1.00)
	b.Record(2.00)
	assert.False(t, b.Allow())

	// Force yesterday's day marker; the next access resets the spend.
	b.mu.Lock()
	b.day = b.day.AddDate(0, 0, -1)
	b.mu.Unlock()

	assert.True(t, b.Allow())
	assert.Zero(t, b.Spent())
}
