package loadtest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/vacstat/internal/domain/types"
	"github.com/okian/vacstat/pkg/logger"
)

const (
	directoryPermission  = 0o750
	filePermission       = 0o600
	percentageMultiplier = 100
)

// Run generates one export, submits it cfg.Reports times with cfg.Workers
// concurrent submitters, and checks every stored report ranks cities the
// same way.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("loadtest")

	log.Info(ctx, "starting vacstat load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rows", cfg.Rows),
		logger.Int("reports", cfg.Reports),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Healthz(ctx); err != nil {
		return stats, err
	}

	var export bytes.Buffer
	n, err := Generate(ctx, &export, cfg.Rows, cfg.Seed)
	if err != nil {
		return stats, fmt.Errorf("export generation failed: %w", err)
	}
	stats.RowsGenerated = n

	if cfg.OutputFile != "" {
		if err := saveExport(cfg.OutputFile, export.Bytes()); err != nil {
			log.Warn(ctx, "failed to save export", logger.Error(err))
		}
	}

	ids := submitAll(ctx, client, cfg, export.Bytes(), stats)
	if stats.ReportsFailed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrSubmit, stats.ReportsFailed, stats.ReportsSubmitted)
	}

	if err := verify(ctx, client, ids, stats); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)
	return stats, nil
}

// submitAll posts the export concurrently and returns the accepted ids in
// submission order; failed slots stay empty.
func submitAll(ctx context.Context, client *Client, cfg *Config, body []byte, stats *Stats) []string {
	ids := make([]string, cfg.Reports)
	jobs := make(chan int, cfg.Workers*2)
	var (
		wg               sync.WaitGroup
		accepted, failed int64
	)

	workers := max(1, cfg.Workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				id, err := client.Submit(ctx, body, cfg.Profession)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					logger.Get().Debug(ctx, "submission failed", logger.Int("index", i), logger.Error(err))
					continue
				}
				ids[i] = id
				atomic.AddInt64(&accepted, 1)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < cfg.Reports; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.ReportsAccepted = int(accepted)
	stats.ReportsFailed = int(failed)
	stats.ReportsSubmitted = stats.ReportsAccepted + stats.ReportsFailed
	return ids
}

// verify fetches both ranked views of every report and compares them with
// the first one.
func verify(ctx context.Context, client *Client, ids []string, stats *Stats) error {
	var want [2][]types.Entry
	for i, id := range ids {
		if id == "" {
			continue
		}
		for j, by := range []string{"salary", "share"} {
			got, err := client.Cities(ctx, id, by)
			if err != nil {
				return err
			}
			if want[j] == nil {
				want[j] = got
				continue
			}
			if !reflect.DeepEqual(got, want[j]) {
				return fmt.Errorf("%w: report %d (%s) ranks by %s differently", ErrInconsistent, i, id, by)
			}
		}
		stats.ReportsVerified++
	}
	return nil
}

func saveExport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, filePermission)
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, reportsPerSecond float64
	if stats.ReportsSubmitted > 0 {
		successRate = float64(stats.ReportsAccepted) / float64(stats.ReportsSubmitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		reportsPerSecond = float64(stats.ReportsSubmitted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("rowsGenerated", stats.RowsGenerated),
		logger.Int("reportsSubmitted", stats.ReportsSubmitted),
		logger.Int("reportsAccepted", stats.ReportsAccepted),
		logger.Int("reportsFailed", stats.ReportsFailed),
		logger.Int("reportsVerified", stats.ReportsVerified),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("reportsPerSecond", reportsPerSecond))
}
