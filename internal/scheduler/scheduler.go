package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"PaperTrader/internal/portfolio"
	"PaperTrader/internal/scanner"
)

// Scheduler starts trading sessions and the end-of-day snapshot on cron
// schedules.
type Scheduler struct {
	cron    *cron.Cron
	scanner *scanner.Scanner
	ledger  *portfolio.Ledger
	ctx     context.Context
	log     zerolog.Logger
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, ledger *portfolio.Ledger, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		scanner: sc,
		ledger:  ledger,
		ctx:     ctx,
		log:     logger.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the session-start and end-of-day tasks.
func (s *Scheduler) RegisterAll(sessionCron, eodCron string) error {
	if _, err := s.cron.AddFunc(sessionCron, s.sessionTask); err != nil {
		return fmt.Errorf("register session task: %w", err)
	}
	if eodCron != "" {
		if _, err := s.cron.AddFunc(eodCron, s.eodTask); err != nil {
			return fmt.Errorf("register end-of-day task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for an in-flight session to reach
// its final persist and return.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

// RunSessionNow executes a session immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunSessionNow() {
	s.sessionTask()
}

func (s *Scheduler) sessionTask() {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Msg("session already running, skipping trigger")
		return
	}
	s.wg.Add(1)
	defer func() {
		s.running.Store(false)
		s.wg.Done()
	}()

	if err := s.scanner.RunSession(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("session ended with error")
	}
}

func (s *Scheduler) eodTask() {
	if err := s.ledger.Persist(true, s.scanner.Marks()); err != nil {
		s.log.Error().Err(err).Msg("end-of-day snapshot failed")
		return
	}
	s.log.Info().Msg("end-of-day snapshot written")
}
