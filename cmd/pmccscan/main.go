package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/optrun/pmccscan/internal/config"
)

const (
	appName = "pmccscan"
	version = "v1.2.0"
)

var (
	flagConfig string

	flagUniverse         []string
	flagMaxStocks        int
	flagMaxOpportunities int
	flagMinScore         float64
	flagNoAI             bool
	flagOutputDir        string
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "PMCC opportunity scanner",
		Version: version,
		Long: `pmccscan screens the US equity universe for poor man's covered call
setups: deep ITM LEAPS paired with short-dated OTM calls, scored on
liquidity, probability, ROI, and risk/reward, optionally vetted by an
AI analyst.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and export the results",
		RunE:  runScan,
	}
	scanCmd.Flags().StringSliceVar(&flagUniverse, "universe", nil, "explicit symbols to scan, skipping the screener")
	scanCmd.Flags().IntVar(&flagMaxStocks, "max-stocks", 0, "cap on screened symbols to scan")
	scanCmd.Flags().IntVar(&flagMaxOpportunities, "max-opportunities", -1, "cap on the final ranked list")
	scanCmd.Flags().Float64Var(&flagMinScore, "min-score", -1, "minimum total score to keep a candidate")
	scanCmd.Flags().BoolVar(&flagNoAI, "no-ai", false, "skip the AI augmentation stage")
	scanCmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "directory for exported results")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run scans on the configured cron schedule",
		RunE:  runSchedule,
	}
	scheduleCmd.Flags().BoolVar(&flagNoAI, "no-ai", false, "skip the AI augmentation stage")

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve /health and /metrics",
		RunE:  runMonitor,
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Probe all providers and print their health",
		RunE:  runHealth,
	}

	rootCmd.AddCommand(scanCmd, scheduleCmd, monitorCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// loadConfig reads the config, applies CLI overrides, and sets the
// global log level. Config errors are fatal by design.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	if len(flagUniverse) > 0 {
		cfg.Scan.Universe = flagUniverse
	}
	if flagMaxStocks > 0 {
		cfg.Scan.MaxStocks = flagMaxStocks
	}
	if flagMaxOpportunities >= 0 {
		cfg.Scan.MaxOpportunities = flagMaxOpportunities
	}
	if flagMinScore >= 0 {
		cfg.Scan.MinTotalScore = flagMinScore
	}
	if flagNoAI {
		cfg.AI.Enabled = false
	}
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: bad log_level %q: %w", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
