package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"spinroute/backend/services/station-refresh/internal/models"
	"spinroute/backend/services/station-refresh/internal/service"
)

// ErrRunInProgress is returned by Trigger while another cycle is running.
var ErrRunInProgress = errors.New("refresh already in progress")

// Runner executes one refresh cycle.
type Runner interface {
	Options() service.Options
	RunWith(ctx context.Context, opts service.Options) (*models.RunSummary, error)
}

// Scheduler runs refresh cycles on a cron schedule and on demand. At most one
// cycle runs at a time; overlapping triggers are skipped, not queued.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	running sync.Mutex
	lastMu  sync.RWMutex
	last    *models.RunSummary
	logger  *zap.Logger
}

// New builds a stopped scheduler.
func New(runner Runner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger{logger.Sugar()}))),
		runner: runner,
		logger: logger,
	}
}

// Start registers the refresh job and starts the cron loop. Scheduled runs use
// ctx and the runner's default options.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.Trigger(ctx, s.runner.Options()); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				s.logger.Info("scheduled refresh skipped, previous run still active")
				return
			}
			s.logger.Error("scheduled refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid spec %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("refresh scheduler started", zap.String("schedule", spec))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("refresh scheduler stopped")
}

// Trigger runs one cycle now unless one is already running.
func (s *Scheduler) Trigger(ctx context.Context, opts service.Options) (*models.RunSummary, error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	summary, err := s.runner.RunWith(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.lastMu.Lock()
	s.last = summary
	s.lastMu.Unlock()
	return summary, nil
}

// Last returns the summary of the latest successful cycle in this process.
func (s *Scheduler) Last(ctx context.Context) (*models.RunSummary, error) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.last, nil
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
