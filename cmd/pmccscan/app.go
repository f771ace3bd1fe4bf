package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/optrun/pmccscan/internal/ai"
	"github.com/optrun/pmccscan/internal/analyzer"
	"github.com/optrun/pmccscan/internal/config"
	"github.com/optrun/pmccscan/internal/export"
	"github.com/optrun/pmccscan/internal/monitor"
	"github.com/optrun/pmccscan/internal/provider"
	"github.com/optrun/pmccscan/internal/provider/claude"
	"github.com/optrun/pmccscan/internal/provider/eodhd"
	"github.com/optrun/pmccscan/internal/provider/marketdata"
	"github.com/optrun/pmccscan/internal/scanner"
	"github.com/optrun/pmccscan/internal/scheduler"
	"github.com/optrun/pmccscan/internal/screener"
)

// app holds the wired pipeline for one process.
type app struct {
	cfg     *config.Config
	router  *provider.Router
	scanner *scanner.Scanner
	export  *export.Exporter
}

// buildApp wires adapters, router, and pipeline stages from config.
func buildApp(cfg *config.Config) (*app, error) {
	router := provider.NewRouter(provider.DefaultRouterConfig(), log.Logger)

	if err := router.Register(eodhd.New(cfg.Providers.EODHD, log.Logger)); err != nil {
		return nil, err
	}
	if err := router.Register(marketdata.New(cfg.Providers.MarketData, log.Logger)); err != nil {
		return nil, err
	}
	if cfg.AI.Enabled {
		if err := router.Register(claude.New(cfg.Providers.Claude, log.Logger)); err != nil {
			return nil, err
		}
	}

	scr := screener.New(router, screener.NewAutoCache(), screener.DefaultCacheTTL, log.Logger)
	an := analyzer.New(cfg.Analyzer, log.Logger)

	var augment *ai.Augmentor
	if cfg.AI.Enabled {
		augment = ai.New(router, cfg.AI, log.Logger)
	}

	sc := scanner.New(scr, router, an, augment, cfg.Scan, cfg.Screening, cfg.Analyzer, log.Logger)

	return &app{
		cfg:     cfg,
		router:  router,
		scanner: sc,
		export:  export.New(cfg.OutputDir, log.Logger),
	}, nil
}

// runScanOnce executes one scan and writes the result files. Per-symbol
// errors do not fail the run; only pipeline-level failures do.
func (a *app) runScanOnce(ctx context.Context) error {
	result, err := a.scanner.Run(ctx)
	if err != nil {
		return err
	}

	jsonPath, csvPath, err := a.export.Write(result)
	if err != nil {
		return err
	}

	log.Info().
		Str("scan_id", result.ScanID).
		Int("opportunities", len(result.Opportunities)).
		Str("json", jsonPath).
		Str("csv", csvPath).
		Msg("scan exported")

	for _, w := range result.Warnings {
		log.Warn().Msg(w)
	}
	if n := len(result.Errors); n > 0 {
		log.Warn().Int("count", n).Msg("symbols failed during scan")
	}
	return nil
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return a.runScanOnce(ctx)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(cfg.Schedule.Spec, a.runScanOnce, log.Logger)
	if err != nil {
		return fmt.Errorf("bad schedule spec %q: %w", cfg.Schedule.Spec, err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Serve the operational surface alongside the schedule loop.
	mon := monitor.New(cfg.Monitor.ListenAddr, a.router, log.Logger)
	go func() {
		if err := mon.Run(ctx); err != nil {
			log.Error().Err(err).Msg("monitor server failed")
		}
	}()

	sched.Start(ctx)
	return nil
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return monitor.New(cfg.Monitor.ListenAddr, a.router, log.Logger).Run(ctx)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	health := a.router.HealthCheckAll(ctx)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(health)
}
