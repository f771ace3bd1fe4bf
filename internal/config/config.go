// Package config loads the scanner configuration: a YAML file for
// tunables, environment variables for secrets. Secrets never live in
// the YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/optrun/pmccscan/internal/ai"
	"github.com/optrun/pmccscan/internal/analyzer"
	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider/claude"
	"github.com/optrun/pmccscan/internal/provider/eodhd"
	"github.com/optrun/pmccscan/internal/provider/marketdata"
	"github.com/optrun/pmccscan/internal/scanner"
)

// Config is the full application configuration.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	OutputDir string `yaml:"output_dir"`

	Screening models.ScreeningCriteria `yaml:"screening"`
	Analyzer  analyzer.Config          `yaml:"analyzer"`
	Scan      scanner.Config           `yaml:"scan"`
	AI        ai.Config                `yaml:"ai"`

	Providers Providers `yaml:"providers"`
	Schedule  Schedule  `yaml:"schedule"`
	Monitor   Monitor   `yaml:"monitor"`
}

// Providers holds per-adapter settings; tokens come from the env.
type Providers struct {
	MarketData marketdata.Config `yaml:"marketdata"`
	EODHD      eodhd.Config      `yaml:"eodhd"`
	Claude     claude.Config     `yaml:"claude"`
}

// Schedule configures the cron-driven scan loop.
type Schedule struct {
	// Spec is a standard 5-field cron expression, local time.
	Spec string `yaml:"spec"`
}

// Monitor configures the health/metrics HTTP listener.
type Monitor struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel:  "info",
		OutputDir: "data",
		Screening: models.DefaultScreeningCriteria(),
		Analyzer:  analyzer.DefaultConfig(),
		Scan:      scanner.DefaultConfig(),
		AI:        ai.DefaultConfig(),
		Schedule:  Schedule{Spec: "30 9 * * 1-5"},
		Monitor:   Monitor{ListenAddr: ":8087"},
	}
}

// Load reads the YAML file (optional), overlays env secrets, and
// validates. A missing path loads pure defaults plus env.
func Load(path string) (*Config, error) {
	// .env is a local-dev convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Providers.MarketData.Token = os.Getenv("MARKETDATA_API_TOKEN")
	c.Providers.EODHD.Token = os.Getenv("EODHD_API_TOKEN")
	c.Providers.Claude.Token = os.Getenv("CLAUDE_API_KEY")

	if v := os.Getenv("CLAUDE_MODEL"); v != "" {
		c.Providers.Claude.Model = v
	}
	if v := os.Getenv("CLAUDE_DAILY_COST_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Providers.Claude.DailyCostLimit = f
		}
	}
	if v := os.Getenv("CLAUDE_MIN_COMPLETENESS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 100 {
			c.AI.MinCompleteness = f
		}
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Providers.MarketData.Token == "" {
		return fmt.Errorf("config: MARKETDATA_API_TOKEN is required")
	}
	if c.Providers.EODHD.Token == "" {
		return fmt.Errorf("config: EODHD_API_TOKEN is required")
	}
	if c.AI.Enabled && c.Providers.Claude.Token == "" {
		return fmt.Errorf("config: CLAUDE_API_KEY is required when the AI stage is enabled")
	}
	if c.Screening.MinPrice < 0 || c.Screening.MaxPrice < 0 {
		return fmt.Errorf("config: screening price bounds must be non-negative")
	}
	if c.Screening.MinPrice > 0 && c.Screening.MaxPrice > 0 && c.Screening.MinPrice > c.Screening.MaxPrice {
		return fmt.Errorf("config: screening min_price exceeds max_price")
	}
	if c.Scan.MinTotalScore < 0 || c.Scan.MinTotalScore > 100 {
		return fmt.Errorf("config: scan min_total_score must be in [0,100]")
	}
	if c.Analyzer.LEAPS.MinDTE >= c.Analyzer.LEAPS.MaxDTE {
		return fmt.Errorf("config: leaps dte window is empty")
	}
	if c.Analyzer.Short.MinDTE >= c.Analyzer.Short.MaxDTE {
		return fmt.Errorf("config: short dte window is empty")
	}
	if c.Analyzer.Short.MinDTE >= c.Analyzer.LEAPS.MinDTE {
		return fmt.Errorf("config: short and leaps dte windows must not overlap")
	}
	if c.AI.QuantWeight+c.AI.AIWeight != 0 {
		sum := c.AI.QuantWeight + c.AI.AIWeight
		if sum < 0.999 || sum > 1.001 {
			return fmt.Errorf("config: ai score weights must sum to 1.0")
		}
	}
	return nil
}
