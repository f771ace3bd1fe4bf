package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MARKETDATA_API_TOKEN", "md-token")
	t.Setenv("EODHD_API_TOKEN", "eodhd-token")
	t.Setenv("CLAUDE_API_KEY", "claude-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100, cfg.Scan.MaxStocks)
	assert.Equal(t, 25, cfg.Scan.MaxOpportunities)
	assert.Equal(t, 270, cfg.Analyzer.LEAPS.MinDTE)
	assert.Equal(t, 60.0, cfg.AI.MinCompleteness)
	assert.Equal(t, "md-token", cfg.Providers.MarketData.Token)
	assert.Equal(t, "eodhd-token", cfg.Providers.EODHD.Token)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "scanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
scan:
  max_stocks: 40
  max_opportunities: 10
  min_total_score: 55
  workers: 10
analyzer:
  leaps:
    min_dte: 300
    max_dte: 730
    min_delta: 0.75
    max_delta: 0.90
    max_spread_percent: 0.05
    min_open_interest: 10
  short:
    min_dte: 21
    max_dte: 45
    min_delta: 0.20
    max_delta: 0.35
    max_spread_percent: 0.10
    min_open_interest: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 40, cfg.Scan.MaxStocks)
	assert.Equal(t, 55.0, cfg.Scan.MinTotalScore)
	assert.Equal(t, 300, cfg.Analyzer.LEAPS.MinDTE)
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CLAUDE_MODEL", "claude-opus-4-20250514")
	t.Setenv("CLAUDE_DAILY_COST_LIMIT", "2.5")
	t.Setenv("CLAUDE_MIN_COMPLETENESS", "75")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-20250514", cfg.Providers.Claude.Model)
	assert.Equal(t, 2.5, cfg.Providers.Claude.DailyCostLimit)
	assert.Equal(t, 75.0, cfg.AI.MinCompleteness)
}

func TestLoadMissingTokensFails(t *testing.T) {
	t.Setenv("MARKETDATA_API_TOKEN", "")
	t.Setenv("EODHD_API_TOKEN", "")
	t.Setenv("CLAUDE_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MARKETDATA_API_TOKEN")
}

func TestLoadAIDisabledSkipsClaudeKey(t *testing.T) {
	t.Setenv("MARKETDATA_API_TOKEN", "md-token")
	t.Setenv("EODHD_API_TOKEN", "eodhd-token")
	t.Setenv("CLAUDE_API_KEY", "")

	path := filepath.Join(t.TempDir(), "scanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai:\n  enabled: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.AI.Enabled)
}

func TestValidateRejectsBadWindows(t *testing.T) {
	setRequiredEnv(t)

	cfg := Default()
	cfg.applyEnv()
	cfg.Analyzer.Short.MinDTE = 300 // overlaps the LEAPS window

	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadWeights(t *testing.T) {
	setRequiredEnv(t)

	cfg := Default()
	cfg.applyEnv()
	cfg.AI.QuantWeight = 0.8
	cfg.AI.AIWeight = 0.4

	require.Error(t, cfg.Validate())
}
