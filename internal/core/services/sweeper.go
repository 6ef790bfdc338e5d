package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/custodia-labs/tokenbridge/internal/core/ports/driven"
)

// DefaultSweepInterval is how often expired handles are purged.
const DefaultSweepInterval = time.Minute

// HandleSweeper periodically drops expired grants from a HandleStore so
// abandoned handles do not hold token bundles in memory forever.
type HandleSweeper struct {
	store     driven.HandleStore
	scheduler gocron.Scheduler
	interval  time.Duration
	logger    logrus.FieldLogger
}

// HandleSweeperConfig holds configuration for the sweeper.
type HandleSweeperConfig struct {
	Store    driven.HandleStore
	Interval time.Duration // default: 1m
	Logger   logrus.FieldLogger
}

// NewHandleSweeper creates a sweeper. Call Start to schedule it.
func NewHandleSweeper(cfg HandleSweeperConfig) (*HandleSweeper, error) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("cannot create sweep scheduler: %w", err)
	}

	return &HandleSweeper{
		store:     cfg.Store,
		scheduler: s,
		interval:  interval,
		logger:    logger.WithField("component", "handle_sweeper"),
	}, nil
}

// Start schedules the sweep job. Overlapping runs are skipped.
func (s *HandleSweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			defer cancel()
			s.Sweep(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("cannot create sweep job: %w", err)
	}
	s.scheduler.Start()
	s.logger.WithField("interval", s.interval.String()).Info("handle sweeper started")
	return nil
}

// Sweep runs one cleanup pass and returns how many grants were dropped.
func (s *HandleSweeper) Sweep(ctx context.Context) int {
	removed, err := s.store.Cleanup(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("handle sweep interrupted")
	}
	if removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": s.store.Len(),
		}).Info("swept expired handles")
	}
	return removed
}

// Stop shuts the scheduler down and waits for a running sweep to finish.
func (s *HandleSweeper) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("stop sweep scheduler: %w", err)
	}
	return nil
}
