package claude

import (
	"fmt"
	"strings"

	"github.com/optrun/pmccscan/internal/models"
)

const systemPrompt = `You are an options strategist evaluating Poor Man's Covered Call (PMCC) positions.
Score each opportunity 0-100 and respond with a single JSON object, no prose, matching exactly:
{"symbol": string, "pmcc_score": number, "execution_risk_score": number, "financial_stability_score": number,
"calendar_event_score": number, "technical_setup_score": number, "recommendation": "buy"|"hold"|"avoid",
"confidence_level": number, "key_risks": [string], "key_opportunities": [string],
"management_strategy": string, "entry_timing": string, "exit_conditions": [string], "position_sizing": string}`

// promptBuilder accumulates labeled sections, skipping zero and null
// values entirely. Absent data is omitted rather than rendered as
// "N/A" so the analyst is never misled by sentinels.
type promptBuilder struct {
	b strings.Builder
}

func (p *promptBuilder) section(title string) {
	fmt.Fprintf(&p.b, "\n## %s\n", title)
}

func (p *promptBuilder) field(label string, value float64, format string) {
	if value == 0 {
		return
	}
	fmt.Fprintf(&p.b, "%s: "+format+"\n", label, value)
}

func (p *promptBuilder) text(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(&p.b, "%s: %s\n", label, value)
}

func (p *promptBuilder) intField(label string, value int64) {
	if value == 0 {
		return
	}
	fmt.Fprintf(&p.b, "%s: %d\n", label, value)
}

// BuildPrompt renders the dense per-candidate context package.
func BuildPrompt(req *models.AIAnalysisRequest) string {
	c := req.Candidate
	var p promptBuilder

	fmt.Fprintf(&p.b, "Analyze this PMCC opportunity for %s.\n", c.Symbol)

	p.section("Position")
	p.field("Underlying price", c.UnderlyingPrice, "$%.2f")
	p.field("Net debit", c.NetDebit, "$%.2f")
	p.field("Max profit", c.Risk.MaxProfit, "$%.2f")
	p.field("Max loss", c.Risk.MaxLoss, "$%.2f")
	p.field("Breakeven", c.Risk.Breakeven, "$%.2f")
	p.field("Risk/reward", c.Risk.RiskReward, "%.2f")
	p.field("Net delta", c.Risk.NetDelta, "%.3f")
	p.field("Net theta", c.Risk.NetTheta, "%.3f")
	p.field("Quantitative score", c.TotalScore, "%.1f")

	p.section("Long LEAPS")
	writeLeg(&p, &c.LongCall)

	p.section("Short call")
	writeLeg(&p, &c.ShortCall)

	if e := req.Enhanced; e != nil {
		if f := e.Fundamentals; f != nil {
			p.section("Fundamentals")
			p.text("Company", f.CompanyName)
			p.text("Sector", f.Sector)
			p.field("Market cap", f.MarketCap, "$%.0f")
			p.field("P/E", f.PERatio, "%.1f")
			p.field("Forward P/E", f.ForwardPE, "%.1f")
			p.field("EPS", f.EPS, "%.2f")
			p.field("Net margin", f.NetMargin, "%.3f")
			p.field("ROE", f.ROE, "%.3f")
			p.field("Debt/equity", f.DebtToEquity, "%.2f")
			p.field("Free cash flow", f.FreeCashFlow, "$%.0f")
			p.field("Dividend yield", f.DividendYield, "%.4f")
			p.text("Analyst rating", f.AnalystRating)
			p.field("Analyst target", f.AnalystTargetPrice, "$%.2f")
		}

		if t := e.Technicals; t != nil {
			p.section("Technicals")
			p.field("RSI(14)", t.RSI14, "%.1f")
			p.field("ATR(14)", t.ATR14, "%.2f")
			p.field("SMA(20)", t.SMA20, "$%.2f")
			p.field("SMA(50)", t.SMA50, "$%.2f")
			p.field("SMA(200)", t.SMA200, "$%.2f")
			p.field("MACD", t.MACD, "%.3f")
			p.field("Bollinger upper", t.BollingerUpper, "$%.2f")
			p.field("Bollinger lower", t.BollingerLower, "$%.2f")
		}

		if len(e.CalendarEvents) > 0 {
			p.section("Upcoming events")
			for _, ev := range e.CalendarEvents {
				fmt.Fprintf(&p.b, "- %s %s on %s\n", ev.Symbol, ev.Type, ev.Date.Format("2006-01-02"))
			}
		}

		if len(e.News) > 0 {
			p.section("Recent news")
			for i, n := range e.News {
				if i >= 5 {
					break
				}
				fmt.Fprintf(&p.b, "- [%s] %s\n", n.PublishedAt.Format("2006-01-02"), n.Title)
			}
		}

		if len(e.EconomicEvents) > 0 {
			p.section("Macro calendar")
			for i, ev := range e.EconomicEvents {
				if i >= 5 {
					break
				}
				fmt.Fprintf(&p.b, "- %s (%s) on %s\n", ev.Event, ev.Country, ev.Date.Format("2006-01-02"))
			}
		}

		if e.TrendSlope != 0 {
			p.section("Price trend")
			p.field("30-day regression slope (normalized)", e.TrendSlope, "%.5f")
		}
	}

	if m := req.Market; m != nil {
		p.section("Market context")
		p.field("VIX", m.VIX, "%.1f")
		p.field("SPY change", m.SPYChange, "%.2f%%")
		p.field("10Y yield", m.TenYearYield, "%.2f%%")
		p.text("Regime", m.MarketRegime)
	}

	return p.b.String()
}

func writeLeg(p *promptBuilder, leg *models.OptionContract) {
	p.text("Contract", leg.OptionSymbol)
	p.field("Strike", leg.Strike, "$%.2f")
	if !leg.Expiration.IsZero() {
		p.text("Expiration", leg.Expiration.Format("2006-01-02"))
	}
	p.intField("DTE", int64(leg.DTE))
	p.field("Bid", leg.Bid, "$%.2f")
	p.field("Ask", leg.Ask, "$%.2f")
	p.field("Delta", leg.Delta, "%.3f")
	p.field("Theta", leg.Theta, "%.3f")
	p.field("IV", leg.IV, "%.3f")
	p.intField("Open interest", leg.OpenInterest)
	p.intField("Volume", leg.Volume)
}
