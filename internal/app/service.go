// Package service runs the vacancy statistics pipeline and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/vacstat/internal/adapters/mq/queue"
	workerpool "github.com/okian/vacstat/internal/adapters/mq/worker"
	"github.com/okian/vacstat/internal/adapters/repository"
	"github.com/okian/vacstat/internal/adapters/source"
	"github.com/okian/vacstat/internal/domain/currency"
	"github.com/okian/vacstat/internal/domain/model"
	"github.com/okian/vacstat/internal/domain/normalize"
	"github.com/okian/vacstat/internal/domain/report"
	"github.com/okian/vacstat/internal/domain/stats"
	"github.com/okian/vacstat/internal/domain/types"
	"github.com/okian/vacstat/pkg/logger"
	"github.com/okian/vacstat/pkg/metrics"
)

// Ranking names accepted by Cities.
const (
	RankBySalary = "salary"
	RankByShare  = "share"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrUnknownRanking = errors.New("unknown city ranking")
	ErrInvalidLimit   = errors.New("invalid city limit")
)

// Service builds statistics reports and keeps the finished ones.
type Service struct {
	mu sync.RWMutex

	store      repository.ReportStore
	normalizer *normalize.Normalizer

	// Configuration
	workerCount    int
	queueSize      int
	topCities      int
	minCityShare   float64
	maxUploadBytes int64
	maxReports     int
	rates          currency.Table
	newID          func() string

	// State
	started      bool
	startedAt    time.Time
	reportsBuilt atomic.Int64
	rowsRead     atomic.Int64
	rowsSkipped  atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of normalization workers. One or fewer
// normalizes on the calling goroutine.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the job queue feeding the workers.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCurrencyTable replaces the default exchange rates.
func WithCurrencyTable(table currency.Table) Option {
	return func(s *Service) {
		if len(table) > 0 {
			s.rates = table
		}
	}
}

// WithTopCities sets the length of the ranked city views.
func WithTopCities(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topCities = n
		}
	}
}

// WithMinCityShare sets the share below which a city is pruned.
func WithMinCityShare(share float64) Option {
	return func(s *Service) {
		if share >= 0 && share <= 1 {
			s.minCityShare = share
		}
	}
}

// WithMaxUploadBytes bounds the size of a submitted CSV body.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithMaxReports bounds the default in-memory report store.
func WithMaxReports(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxReports = n
		}
	}
}

// WithStore sets the report store used by Start instead of the in-memory one.
func WithStore(store repository.ReportStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithIDGenerator overrides how report ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New constructs a new Service with default configuration. The global
// logger must be initialized first.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      10_000,
		topCities:      stats.DefaultTopLimit,
		minCityShare:   stats.DefaultMinShare,
		maxUploadBytes: 64 << 20,
		maxReports:     1_000,
		rates:          currency.Default(),
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.normalizer = normalize.New(normalize.WithCurrencyTable(s.rates))
	return s
}

// Start prepares the report store. Starting twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithMaxReports(s.maxReports))
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "statistics service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("topCities", s.topCities),
		logger.Float64("minCityShare", s.minCityShare),
	)
	return nil
}

// Stop marks the service stopped. Stored reports are kept.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "statistics service stopped")
}

// MaxUploadBytes returns the configured upload limit.
func (s *Service) MaxUploadBytes() int64 { return s.maxUploadBytes }

// TopCities returns the configured ranked view length.
func (s *Service) TopCities() int { return s.topCities }

// Normalize converts every row of t into a record. The first failing row,
// by input position, aborts the run.
func (s *Service) Normalize(ctx context.Context, t *source.Table) ([]model.Record, error) {
	var (
		records []model.Record
		err     error
	)
	if s.workerCount <= 1 || t.Len() < 2 {
		records, err = s.normalizeSequential(ctx, t)
	} else {
		records, err = s.normalizeParallel(ctx, t)
	}
	if err != nil {
		metrics.RecordNormalizationError(normalize.Reason(err))
		return nil, err
	}
	metrics.RecordRecordsNormalized(len(records))
	return records, nil
}

func (s *Service) normalizeSequential(ctx context.Context, t *source.Table) ([]model.Record, error) {
	records := make([]model.Record, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := s.normalizer.Normalize(ctx, t.Row(i))
		if err != nil {
			return nil, normalize.AtRow(err, i)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Service) normalizeParallel(ctx context.Context, t *source.Table) ([]model.Record, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	collector := workerpool.NewCollector(t.Len())
	pool := workerpool.NewPool(min(s.workerCount, t.Len()), q, s.normalizer, collector)
	pool.Start(ctx)

	var enqueueErr error
	for i := 0; i < t.Len(); i++ {
		if err := q.EnqueueWait(ctx, jobqueue.Job{Index: i, Row: t.Row(i)}); err != nil {
			enqueueErr = err
			break
		}
	}
	_ = q.Close()
	if enqueueErr != nil {
		cancel()
	}
	pool.Wait()

	if enqueueErr != nil {
		return nil, fmt.Errorf("enqueue rows: %w", enqueueErr)
	}
	// Workers stop early on cancellation; report that instead of the gaps.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return collector.Result()
}

// BuildReport runs the whole pipeline over t for profession.
func (s *Service) BuildReport(ctx context.Context, t *source.Table, profession string) (*report.Report, error) {
	start := time.Now()
	if err := t.Validate(model.RequiredFields...); err != nil {
		return nil, err
	}

	s.rowsRead.Add(int64(t.Len()))
	s.rowsSkipped.Add(int64(t.Skipped))
	metrics.RecordRowsRead(t.Len())
	metrics.RecordRowsSkipped(t.Skipped)

	records, err := s.Normalize(ctx, t)
	if err != nil {
		return nil, err
	}

	agg := stats.Aggregate(records, profession)
	res, err := stats.NewEqualizer(
		stats.WithMinShare(s.minCityShare),
		stats.WithTopLimit(s.topCities),
	).Equalize(agg)
	if err != nil {
		return nil, err
	}

	r := report.Build(res)
	r.Skipped = t.Skipped

	s.reportsBuilt.Add(1)
	metrics.RecordReportBuilt()
	metrics.RecordReportBuildDuration(float64(time.Since(start).Milliseconds()))
	metrics.UpdateYearsGrouped(len(res.Years))
	metrics.UpdateCitiesGrouped(len(res.Cities))
	metrics.RecordCitiesPruned(len(res.Pruned))

	for _, c := range res.Pruned {
		s.logger.Debug(ctx, "city pruned",
			logger.String("city", c.City),
			logger.Int64("count", c.Count),
			logger.Float64("share", c.Share),
			logger.Float64("min_share", s.minCityShare),
		)
	}

	s.logger.Info(ctx, "report built",
		logger.String("profession", profession),
		logger.Int64("records", res.Records),
		logger.Int("skipped", t.Skipped),
		logger.Int("years", len(res.Years)),
		logger.Int("cities", len(res.Cities)),
		logger.Int("pruned", len(res.Pruned)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return r, nil
}

// Submit reads CSV from r, builds a report and stores it under a new id.
func (s *Service) Submit(ctx context.Context, r io.Reader, profession string) (repository.Entry, error) {
	store, err := s.currentStore()
	if err != nil {
		return repository.Entry{}, err
	}

	t, err := source.Read(r)
	if err != nil {
		return repository.Entry{}, err
	}
	rep, err := s.BuildReport(ctx, t, profession)
	if err != nil {
		return repository.Entry{}, err
	}
	return store.Save(ctx, s.newID(), rep)
}

// GetReport returns a stored report.
func (s *Service) GetReport(ctx context.Context, id string) (repository.Entry, error) {
	store, err := s.currentStore()
	if err != nil {
		return repository.Entry{}, err
	}
	return store.Get(ctx, id)
}

// Cities returns up to limit entries of a stored report's ranked view.
func (s *Service) Cities(ctx context.Context, id, by string, limit int) ([]types.Entry, error) {
	if limit < 1 || limit > s.topCities {
		return nil, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidLimit, limit, s.topCities)
	}
	var pick func(*report.Report) []types.Entry
	switch by {
	case RankBySalary, "":
		pick = func(r *report.Report) []types.Entry { return r.TopSalary }
	case RankByShare:
		pick = func(r *report.Report) []types.Entry { return r.TopShare }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRanking, by)
	}

	e, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	entries := pick(e.Report)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Service) currentStore() (repository.ReportStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"topCities":      s.topCities,
		"minCityShare":   s.minCityShare,
		"currencies":     s.rates.Codes(),
		"reportsBuilt":   s.reportsBuilt.Load(),
		"rowsRead":       s.rowsRead.Load(),
		"rowsSkipped":    s.rowsSkipped.Load(),
		"maxUploadBytes": s.maxUploadBytes,
	}
	if s.started {
		out["reportsStored"] = s.store.Count(ctx)
		out["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return out
}
