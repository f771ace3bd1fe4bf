// Package scheduler runs scans on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RunFunc executes one scheduled scan.
type RunFunc func(ctx context.Context) error

// Scheduler wraps robfig/cron with overlap protection: a tick that
// fires while the previous scan is still running is skipped.
type Scheduler struct {
	cron *cron.Cron
	spec string
	run  RunFunc
	log  zerolog.Logger

	busy chan struct{}
}

// New builds a scheduler for the given cron spec.
func New(spec string, run RunFunc, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		spec: spec,
		run:  run,
		log:  log.With().Str("component", "scheduler").Logger(),
		busy: make(chan struct{}, 1),
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins firing ticks and blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Msg("scheduler started")

	<-ctx.Done()
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(30 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) tick() {
	select {
	case s.busy <- struct{}{}:
	default:
		s.log.Warn().Msg("previous scan still running, tick skipped")
		return
	}
	defer func() { <-s.busy }()

	started := time.Now()
	if err := s.run(context.Background()); err != nil {
		s.log.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("scheduled scan failed")
		return
	}
	s.log.Info().Dur("elapsed", time.Since(started)).Msg("scheduled scan completed")
}
