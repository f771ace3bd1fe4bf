// Package marketdata implements the options/quotes provider adapter.
// The upstream serves quotes and option chains with Greeks in a
// column-oriented JSON format; this adapter flattens it into the
// common data model and never leaks the raw payloads.
package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

const providerName = "marketdata"

// Config configures the marketdata adapter.
type Config struct {
	provider.ClientConfig `yaml:",inline"`

	// CachedFeed selects the feed billed per request rather than per
	// contract when the upstream offers both.
	CachedFeed bool `yaml:"cached_feed"`
}

// Client is the options/quotes provider adapter.
type Client struct {
	provider.Unsupported

	config Config
	rest   *provider.RESTClient
	health *provider.HealthTracker
	log    zerolog.Logger
}

var supportedOps = map[provider.Operation]bool{
	provider.OpHealthCheck:     true,
	provider.OpGetStockQuote:   true,
	provider.OpGetStockQuotes:  true,
	provider.OpGetOptionsChain: true,
}

// New builds the adapter. The token is required; calls without one fail
// upstream with an auth error rather than here, so a misconfigured
// token surfaces through the normal taxonomy.
func New(config Config, log zerolog.Logger) *Client {
	health := provider.NewHealthTracker()
	if config.BaseURL == "" {
		config.BaseURL = "https://api.marketdata.app/v1"
	}

	return &Client{
		Unsupported: provider.Unsupported{ProviderName: providerName},
		config:      config,
		rest:        provider.NewRESTClient(providerName, config.ClientConfig, health),
		health:      health,
		log:         log.With().Str("provider", providerName).Logger(),
	}
}

func (c *Client) Name() string                { return providerName }
func (c *Client) Type() provider.ProviderType { return provider.TypeOptions }

func (c *Client) SupportsOperation(op provider.Operation) bool {
	return supportedOps[op]
}

// Health returns the cached health snapshot.
func (c *Client) Health() models.ProviderHealth {
	return c.health.Snapshot()
}

// HealthCheck probes the cheapest endpoint (a single index quote) and
// refreshes the snapshot.
func (c *Client) HealthCheck(ctx context.Context) (*models.ProviderHealth, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := c.GetStockQuote(probeCtx, "SPY"); err != nil {
		snap := c.health.Snapshot()
		return &snap, err
	}
	snap := c.health.Snapshot()
	return &snap, nil
}
