package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/optrun/pmccscan/internal/models"
)

type rawNews struct {
	Date      string `json:"date"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Sentiment struct {
		Polarity float64 `json:"polarity"`
	} `json:"sentiment"`
}

// GetCompanyNews fetches recent headlines for one symbol.
func (c *Client) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.NewsItem, error) {
	if limit <= 0 {
		limit = 10
	}
	query := url.Values{
		"s":     {symbol},
		"from":  {from.Format("2006-01-02")},
		"to":    {to.Format("2006-01-02")},
		"limit": {fmt.Sprintf("%d", limit)},
		"fmt":   {"json"},
	}

	var rows []rawNews
	if err := c.rest.GetJSON(ctx, "/news", query, &rows); err != nil {
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(rows))
	for _, row := range rows {
		published, err := time.Parse(time.RFC3339, row.Date)
		if err != nil {
			if published, err = time.Parse("2006-01-02", row.Date); err != nil {
				continue
			}
		}
		items = append(items, models.NewsItem{
			Symbol:      symbol,
			Title:       row.Title,
			Source:      row.Source,
			URL:         row.Link,
			PublishedAt: published,
			Sentiment:   row.Sentiment.Polarity,
		})
	}
	return items, nil
}

type rawEconEvent struct {
	Type     string      `json:"type"`
	Country  string      `json:"country"`
	Date     string      `json:"date"`
	Actual   stringFloat `json:"actual"`
	Previous stringFloat `json:"previous"`
	Estimate stringFloat `json:"estimate"`
}

// GetEconomicEvents fetches the macro calendar for the window.
func (c *Client) GetEconomicEvents(ctx context.Context, from, to time.Time, country string) ([]models.EconomicEvent, error) {
	if country == "" {
		country = "US"
	}
	query := url.Values{
		"country": {country},
		"from":    {from.Format("2006-01-02")},
		"to":      {to.Format("2006-01-02")},
		"fmt":     {"json"},
	}

	var rows []rawEconEvent
	if err := c.rest.GetJSON(ctx, "/economic-events", query, &rows); err != nil {
		return nil, err
	}

	events := make([]models.EconomicEvent, 0, len(rows))
	for _, row := range rows {
		d, err := time.Parse("2006-01-02 15:04:05", row.Date)
		if err != nil {
			if d, err = time.Parse("2006-01-02", row.Date); err != nil {
				continue
			}
		}
		events = append(events, models.EconomicEvent{
			Event:    row.Type,
			Country:  row.Country,
			Date:     d,
			Actual:   row.Actual.Value(),
			Previous: row.Previous.Value(),
			Estimate: row.Estimate.Value(),
		})
	}
	return events, nil
}
