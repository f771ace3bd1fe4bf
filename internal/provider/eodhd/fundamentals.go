package eodhd

import (
	"context"
	"net/url"
	"sort"
	"time"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

// rawFundamentals mirrors only the upstream sections the fixed schema
// needs; everything else in the payload is ignored and dropped here.
type rawFundamentals struct {
	General struct {
		Name        string `json:"Name"`
		Sector      string `json:"Sector"`
		Industry    string `json:"Industry"`
		Description string `json:"Description"`
	} `json:"General"`
	Highlights struct {
		MarketCapitalization float64 `json:"MarketCapitalization"`
		PERatio              float64 `json:"PERatio"`
		EarningsShare        float64 `json:"EarningsShare"`
		ProfitMargin         float64 `json:"ProfitMargin"`
		OperatingMarginTTM   float64 `json:"OperatingMarginTTM"`
		ReturnOnEquityTTM    float64 `json:"ReturnOnEquityTTM"`
		ReturnOnAssetsTTM    float64 `json:"ReturnOnAssetsTTM"`
		DividendYield        float64 `json:"DividendYield"`
	} `json:"Highlights"`
	Valuation struct {
		ForwardPE    float64 `json:"ForwardPE"`
		PriceBookMRQ float64 `json:"PriceBookMRQ"`
		PriceSalesTTM float64 `json:"PriceSalesTTM"`
	} `json:"Valuation"`
	SplitsDividends struct {
		PayoutRatio    float64 `json:"PayoutRatio"`
		ExDividendDate string  `json:"ExDividendDate"`
	} `json:"SplitsDividends"`
	AnalystRatings struct {
		Rating      float64 `json:"Rating"`
		TargetPrice float64 `json:"TargetPrice"`
		StrongBuy   int     `json:"StrongBuy"`
		Buy         int     `json:"Buy"`
		Hold        int     `json:"Hold"`
		Sell        int     `json:"Sell"`
		StrongSell  int     `json:"StrongSell"`
	} `json:"AnalystRatings"`
	Financials struct {
		BalanceSheet struct {
			Quarterly map[string]rawBalanceSheet `json:"quarterly"`
		} `json:"Balance_Sheet"`
		CashFlow struct {
			Quarterly map[string]rawCashFlow `json:"quarterly"`
		} `json:"Cash_Flow"`
		IncomeStatement struct {
			Quarterly map[string]rawIncome `json:"quarterly"`
		} `json:"Income_Statement"`
	} `json:"Financials"`
	Technicals struct {
		Beta         float64 `json:"Beta"`
		ShortPercent float64 `json:"ShortPercent"`
	} `json:"Technicals"`
}

type rawBalanceSheet struct {
	TotalAssets            stringFloat `json:"totalAssets"`
	TotalLiab              stringFloat `json:"totalLiab"`
	TotalStockholderEquity stringFloat `json:"totalStockholderEquity"`
	Cash                   stringFloat `json:"cash"`
	ShortLongTermDebtTotal stringFloat `json:"shortLongTermDebtTotal"`
}

type rawCashFlow struct {
	TotalCashFromOperatingActivities stringFloat `json:"totalCashFromOperatingActivities"`
	FreeCashFlow                     stringFloat `json:"freeCashFlow"`
	CapitalExpenditures              stringFloat `json:"capitalExpenditures"`
}

type rawIncome struct {
	TotalRevenue stringFloat `json:"totalRevenue"`
	NetIncome    stringFloat `json:"netIncome"`
	GrossProfit  stringFloat `json:"grossProfit"`
}

// GetFundamentalData fetches raw fundamentals and reduces them to the
// fixed schema: company info, profitability, valuation, dividends,
// analyst ratings, and the most recent quarter of each statement with
// derived margins and debt/equity.
func (c *Client) GetFundamentalData(ctx context.Context, symbol string) (*models.FundamentalMetrics, error) {
	var raw rawFundamentals
	query := url.Values{"fmt": {"json"}}
	if err := c.rest.GetJSON(ctx, "/fundamentals/"+url.PathEscape(symbol), query, &raw); err != nil {
		return nil, err
	}
	if raw.General.Name == "" {
		return nil, &provider.ProviderError{
			Provider:  providerName,
			Operation: provider.OpGetFundamentalData,
			Code:      provider.ErrCodeNoData,
			Message:   "no fundamentals for " + symbol,
		}
	}

	m := &models.FundamentalMetrics{
		Symbol:             symbol,
		CompanyName:        raw.General.Name,
		Sector:             raw.General.Sector,
		Industry:           raw.General.Industry,
		Description:        raw.General.Description,
		NetMargin:          raw.Highlights.ProfitMargin,
		OperatingMargin:    raw.Highlights.OperatingMarginTTM,
		ROE:                raw.Highlights.ReturnOnEquityTTM,
		ROA:                raw.Highlights.ReturnOnAssetsTTM,
		MarketCap:          raw.Highlights.MarketCapitalization,
		PERatio:            raw.Highlights.PERatio,
		ForwardPE:          raw.Valuation.ForwardPE,
		PriceToBook:        raw.Valuation.PriceBookMRQ,
		PriceToSales:       raw.Valuation.PriceSalesTTM,
		EPS:                raw.Highlights.EarningsShare,
		DividendYield:      raw.Highlights.DividendYield,
		PayoutRatio:        raw.SplitsDividends.PayoutRatio,
		AnalystTargetPrice: raw.AnalystRatings.TargetPrice,
	}

	if d, err := time.Parse("2006-01-02", raw.SplitsDividends.ExDividendDate); err == nil {
		m.ExDividendDate = &d
	}
	m.AnalystCount = raw.AnalystRatings.StrongBuy + raw.AnalystRatings.Buy +
		raw.AnalystRatings.Hold + raw.AnalystRatings.Sell + raw.AnalystRatings.StrongSell
	m.AnalystRating = ratingLabel(raw.AnalystRatings.Rating)

	if bs, ok := latestQuarter(raw.Financials.BalanceSheet.Quarterly); ok {
		m.TotalAssets = bs.TotalAssets.Value()
		m.TotalLiabilities = bs.TotalLiab.Value()
		m.TotalEquity = bs.TotalStockholderEquity.Value()
		m.CashAndEquiv = bs.Cash.Value()
		m.TotalDebt = bs.ShortLongTermDebtTotal.Value()
		if m.TotalEquity != 0 {
			m.DebtToEquity = m.TotalDebt / m.TotalEquity
		}
	}
	if cf, ok := latestQuarter(raw.Financials.CashFlow.Quarterly); ok {
		m.OperatingCashFlow = cf.TotalCashFromOperatingActivities.Value()
		m.FreeCashFlow = cf.FreeCashFlow.Value()
		if m.FreeCashFlow == 0 && m.OperatingCashFlow != 0 {
			m.FreeCashFlow = m.OperatingCashFlow - cf.CapitalExpenditures.Value()
		}
	}
	if inc, ok := latestQuarter(raw.Financials.IncomeStatement.Quarterly); ok {
		m.Revenue = inc.TotalRevenue.Value()
		m.NetIncome = inc.NetIncome.Value()
		if m.Revenue != 0 {
			m.GrossMargin = inc.GrossProfit.Value() / m.Revenue
		}
	}

	return m, nil
}

// GetRiskMetrics exposes the fundamentals-side risk snapshot.
func (c *Client) GetRiskMetrics(ctx context.Context, symbol string) (*models.FundamentalRisk, error) {
	var raw rawFundamentals
	query := url.Values{"fmt": {"json"}, "filter": {"General,Technicals,Financials::Balance_Sheet::quarterly"}}
	if err := c.rest.GetJSON(ctx, "/fundamentals/"+url.PathEscape(symbol), query, &raw); err != nil {
		return nil, err
	}

	risk := &models.FundamentalRisk{
		Symbol:       symbol,
		Beta:         raw.Technicals.Beta,
		ShortPercent: raw.Technicals.ShortPercent,
	}
	if bs, ok := latestQuarter(raw.Financials.BalanceSheet.Quarterly); ok {
		equity := bs.TotalStockholderEquity.Value()
		if equity != 0 {
			risk.DebtToEquity = bs.ShortLongTermDebtTotal.Value() / equity
		}
	}
	return risk, nil
}

// latestQuarter returns the value under the lexically greatest date
// key, which is the most recent quarter for ISO-dated keys.
func latestQuarter[T any](quarters map[string]T) (T, bool) {
	var zero T
	if len(quarters) == 0 {
		return zero, false
	}
	keys := make([]string, 0, len(quarters))
	for k := range quarters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return quarters[keys[len(keys)-1]], true
}

// ratingLabel maps the upstream's 1-5 numeric rating to a label.
func ratingLabel(rating float64) string {
	switch {
	case rating == 0:
		return ""
	case rating <= 1.5:
		return "strong_buy"
	case rating <= 2.5:
		return "buy"
	case rating <= 3.5:
		return "hold"
	case rating <= 4.5:
		return "sell"
	default:
		return "strong_sell"
	}
}
