// Package eodhd implements the fundamentals/screener provider adapter.
// It covers screening, fundamentals, calendar, technicals, news,
// economic events, historical prices, and the enhanced composite. Raw
// upstream payloads are reduced to the fixed schema in models and
// never leak past this package.
package eodhd

import (
	"context"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

const providerName = "eodhd"

// Config configures the eodhd adapter.
type Config struct {
	provider.ClientConfig `yaml:",inline"`

	// MaxResultsPerQuery is the upstream cap on a single screener
	// query; the adapter splits market-cap bands to stay under it.
	MaxResultsPerQuery int `yaml:"max_results_per_query"`

	// OffsetCeiling is the highest offset the upstream accepts when
	// paging within one band.
	OffsetCeiling int `yaml:"offset_ceiling"`
}

// Client is the fundamentals/screener provider adapter.
type Client struct {
	provider.Unsupported

	config Config
	rest   *provider.RESTClient
	health *provider.HealthTracker
	log    zerolog.Logger
}

var supportedOps = map[provider.Operation]bool{
	provider.OpHealthCheck:          true,
	provider.OpScreenStocks:         true,
	provider.OpGetFundamentalData:   true,
	provider.OpGetCalendarEvents:    true,
	provider.OpGetTechnicals:        true,
	provider.OpGetRiskMetrics:       true,
	provider.OpGetCompanyNews:       true,
	provider.OpGetEconomicEvents:    true,
	provider.OpGetHistoricalPrices:  true,
	provider.OpGetEnhancedStockData: true,
}

// New builds the adapter.
func New(config Config, log zerolog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://eodhd.com/api"
	}
	if config.MaxResultsPerQuery <= 0 {
		config.MaxResultsPerQuery = 1000
	}
	if config.OffsetCeiling <= 0 {
		config.OffsetCeiling = 900
	}

	health := provider.NewHealthTracker()
	return &Client{
		Unsupported: provider.Unsupported{ProviderName: providerName},
		config:      config,
		rest:        provider.NewRESTClient(providerName, config.ClientConfig, health),
		health:      health,
		log:         log.With().Str("provider", providerName).Logger(),
	}
}

func (c *Client) Name() string                { return providerName }
func (c *Client) Type() provider.ProviderType { return provider.TypeFundamentals }

func (c *Client) SupportsOperation(op provider.Operation) bool {
	return supportedOps[op]
}

// Health returns the cached health snapshot.
func (c *Client) Health() models.ProviderHealth {
	return c.health.Snapshot()
}

// HealthCheck probes the user endpoint, the cheapest authenticated call.
func (c *Client) HealthCheck(ctx context.Context) (*models.ProviderHealth, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var out map[string]any
	err := c.rest.GetJSON(probeCtx, "/user", url.Values{"fmt": {"json"}}, &out)
	snap := c.health.Snapshot()
	if err != nil {
		return &snap, err
	}
	return &snap, nil
}
