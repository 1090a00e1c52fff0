package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"spinroute/backend/services/station-refresh/internal/metrics"
	"spinroute/backend/services/station-refresh/internal/models"
)

// ErrStalenessQuery marks the only failure that aborts a run.
var ErrStalenessQuery = errors.New("staleness query failed")

// Finder selects refresh candidates.
type Finder interface {
	Find(ctx context.Context, threshold time.Duration, limit int) ([]models.StaleNetwork, error)
}

// StationFetcher returns ok=false when a network yielded no usable data.
type StationFetcher interface {
	FetchStations(ctx context.Context, sourceID string) ([]models.UpstreamStation, bool)
}

// StationNormalizer maps upstream records to station rows.
type StationNormalizer interface {
	Stations(records []models.UpstreamStation, networkID string) []models.Station
}

// StationWriter upserts station rows keyed by id.
type StationWriter interface {
	UpsertBatch(ctx context.Context, stations []models.Station) (int, error)
}

// StatusSaver keeps the latest run summary somewhere readable.
type StatusSaver interface {
	Save(ctx context.Context, summary models.RunSummary) error
}

// Options tune one refresh cycle.
type Options struct {
	Threshold   time.Duration
	BatchSize   int
	DryRun      bool
	Concurrency int
}

// RefreshService drives find -> fetch -> normalize -> upsert for a batch of networks.
type RefreshService struct {
	finder     Finder
	fetcher    StationFetcher
	normalizer StationNormalizer
	writer     StationWriter
	status     StatusSaver
	metrics    metrics.Recorder
	opts       Options
	now        func() time.Time
	logger     *zap.Logger
}

// NewRefreshService wires the pipeline. status and recorder may be nil.
func NewRefreshService(
	finder Finder,
	fetcher StationFetcher,
	normalizer StationNormalizer,
	writer StationWriter,
	status StatusSaver,
	recorder metrics.Recorder,
	opts Options,
	logger *zap.Logger,
) *RefreshService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &RefreshService{
		finder:     finder,
		fetcher:    fetcher,
		normalizer: normalizer,
		writer:     writer,
		status:     status,
		metrics:    recorder,
		opts:       opts,
		now:        time.Now,
		logger:     logger,
	}
}

// Options returns the configured defaults.
func (s *RefreshService) Options() Options {
	return s.opts
}

// Run executes one cycle with the configured options.
func (s *RefreshService) Run(ctx context.Context) (*models.RunSummary, error) {
	return s.RunWith(ctx, s.opts)
}

// RunWith executes one cycle. Only a failing staleness query returns an error;
// per-network fetch and write failures are reported in the summary.
func (s *RefreshService) RunWith(ctx context.Context, opts Options) (*models.RunSummary, error) {
	started := s.now()
	summary := &models.RunSummary{StartedAt: started.UTC(), DryRun: opts.DryRun}

	candidates, err := s.finder.Find(ctx, opts.Threshold, opts.BatchSize)
	if err != nil {
		s.metrics.ObserveRun("error", s.now().Sub(started))
		return nil, fmt.Errorf("%w: %w", ErrStalenessQuery, err)
	}
	summary.Found = len(candidates)

	s.logger.Info("stale networks found",
		zap.Int("count", len(candidates)),
		zap.Duration("threshold", opts.Threshold),
		zap.Int("batch_size", opts.BatchSize),
		zap.Bool("dry_run", opts.DryRun))

	summary.Networks = s.processAll(ctx, candidates, opts)
	for _, r := range summary.Networks {
		if r.Outcome.Succeeded() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.StationsWritten += r.Written
		if r.Outcome == models.OutcomeDryRun {
			summary.StationsPlanned += r.Fetched
		}
	}
	summary.FinishedAt = s.now().UTC()

	outcome := "ok"
	if summary.Failed > 0 {
		outcome = "partial"
	}
	s.metrics.ObserveRun(outcome, summary.FinishedAt.Sub(summary.StartedAt))

	if s.status != nil {
		if err := s.status.Save(ctx, *summary); err != nil {
			s.logger.Warn("failed to save run status", zap.Error(err))
		}
	}

	s.logger.Info("refresh finished",
		zap.Int("found", summary.Found),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("stations_written", summary.StationsWritten),
		zap.Bool("dry_run", summary.DryRun))
	return summary, nil
}

func (s *RefreshService) processAll(ctx context.Context, candidates []models.StaleNetwork, opts Options) []models.NetworkResult {
	results := make([]models.NetworkResult, len(candidates))
	workers := opts.Concurrency
	if workers <= 1 || len(candidates) <= 1 {
		for i, c := range candidates {
			results[i] = s.processNetwork(ctx, c, opts.DryRun)
		}
		return results
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.processNetwork(ctx, candidates[i], opts.DryRun)
			}
		}()
	}
	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func (s *RefreshService) processNetwork(ctx context.Context, network models.StaleNetwork, dryRun bool) models.NetworkResult {
	result := models.NetworkResult{
		NetworkID: network.ID,
		Name:      network.Name,
		SourceID:  network.SourceID,
	}
	log := s.logger.With(zap.String("network_id", network.ID), zap.String("source_id", network.SourceID))

	fetchStarted := s.now()
	records, ok := s.fetcher.FetchStations(ctx, network.SourceID)
	s.metrics.ObserveFetch(s.now().Sub(fetchStarted))
	if !ok {
		result.Outcome = models.OutcomeNoData
		result.Error = "no upstream data"
		s.metrics.ObserveNetwork(string(result.Outcome))
		log.Warn("no upstream data, skipping network")
		return result
	}

	rows := s.normalizer.Stations(records, network.ID)
	result.Fetched = len(rows)

	if dryRun {
		result.Outcome = models.OutcomeDryRun
		s.metrics.ObserveNetwork(string(result.Outcome))
		log.Info("dry run, skipping write", zap.Int("stations", len(rows)))
		return result
	}

	written, err := s.writer.UpsertBatch(ctx, rows)
	if err != nil {
		result.Outcome = models.OutcomeWriteFailed
		result.Error = err.Error()
		s.metrics.ObserveNetwork(string(result.Outcome))
		log.Error("station upsert failed", zap.Int("stations", len(rows)), zap.Error(err))
		return result
	}

	result.Outcome = models.OutcomeUpdated
	result.Written = written
	s.metrics.ObserveNetwork(string(result.Outcome))
	s.metrics.AddStationsWritten(written)
	log.Info("network refreshed", zap.Int("stations", written))
	return result
}
