package claude

import (
	"sync"
	"time"
)

// Budget enforces the daily monetary spend cap. Spend accumulates per
// UTC day and resets at midnight.
type Budget struct {
	mu         sync.Mutex
	dailyLimit float64
	spent      float64
	day        time.Time
}

// NewBudget creates a budget with the given daily USD limit.
func NewBudget(dailyLimit float64) *Budget {
	return &Budget{
		dailyLimit: dailyLimit,
		day:        utcDay(time.Now()),
	}
}

// Allow reports whether another request fits the budget today.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.spent < b.dailyLimit
}

// Record adds an observed cost to today's spend.
func (b *Budget) Record(cost float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	b.spent += cost
}

// Spent returns today's accumulated spend.
func (b *Budget) Spent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.spent
}

// rollover resets the accumulator on UTC day change. Callers hold the lock.
func (b *Budget) rollover() {
	today := utcDay(time.Now())
	if !today.Equal(b.day) {
		b.day = today
		b.spent = 0
	}
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
