package eodhd

import (
	"context"
	"net/url"
	"time"

	"github.com/optrun/pmccscan/internal/models"
)

// rawEarnings is one upstream earnings calendar row. The upstream
// carries both the fiscal quarter end ("date") and the announcement
// date ("report_date"); the announcement date is authoritative here
// since it is the one that moves the underlying.
type rawEarnings struct {
	Code       string      `json:"code"`
	Date       string      `json:"date"`
	ReportDate string      `json:"report_date"`
	Estimate   stringFloat `json:"estimate"`
	Actual     stringFloat `json:"actual"`
}

type rawEarningsResponse struct {
	Earnings []rawEarnings `json:"earnings"`
}

type rawDividend struct {
	Date  string      `json:"date"`
	Value stringFloat `json:"value"`
}

// GetCalendarEvents fetches earnings and dividend events for one
// symbol in the window. Unknown event types are ignored.
func (c *Client) GetCalendarEvents(ctx context.Context, symbol string, types []string, from, to time.Time) ([]models.CalendarEvent, error) {
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	if len(wanted) == 0 {
		wanted["earnings"] = true
		wanted["dividend"] = true
	}

	var events []models.CalendarEvent

	if wanted["earnings"] {
		earnings, err := c.fetchEarnings(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}
		events = append(events, earnings...)
	}

	if wanted["dividend"] {
		dividends, err := c.fetchDividends(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}
		events = append(events, dividends...)
	}

	return events, nil
}

func (c *Client) fetchEarnings(ctx context.Context, symbol string, from, to time.Time) ([]models.CalendarEvent, error) {
	query := url.Values{
		"symbols": {symbol},
		"from":    {from.Format("2006-01-02")},
		"to":      {to.Format("2006-01-02")},
		"fmt":     {"json"},
	}

	var resp rawEarningsResponse
	if err := c.rest.GetJSON(ctx, "/calendar/earnings", query, &resp); err != nil {
		return nil, err
	}

	var events []models.CalendarEvent
	for _, row := range resp.Earnings {
		// report_date (announcement) over date (quarter end).
		dateStr := row.ReportDate
		if dateStr == "" {
			dateStr = row.Date
		}
		d, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		events = append(events, models.CalendarEvent{
			Symbol:   symbol,
			Type:     "earnings",
			Date:     d,
			Estimate: row.Estimate.Value(),
			Actual:   row.Actual.Value(),
		})
	}
	return events, nil
}

func (c *Client) fetchDividends(ctx context.Context, symbol string, from, to time.Time) ([]models.CalendarEvent, error) {
	query := url.Values{
		"from": {from.Format("2006-01-02")},
		"to":   {to.Format("2006-01-02")},
		"fmt":  {"json"},
	}

	var rows []rawDividend
	if err := c.rest.GetJSON(ctx, "/div/"+url.PathEscape(symbol), query, &rows); err != nil {
		return nil, err
	}

	var events []models.CalendarEvent
	for _, row := range rows {
		d, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		events = append(events, models.CalendarEvent{
			Symbol: symbol,
			Type:   "dividend",
			Date:   d,
			Amount: row.Value.Value(),
		})
	}
	return events, nil
}
