// Package repository stores finished statistics reports.
package repository

import (
	"context"
	"time"

	"github.com/okian/vacstat/internal/domain/report"
)

// Entry is a stored report with its identity.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Report    *report.Report
}

// ReportStore provides read/write access to finished reports.
type ReportStore interface {
	// Save stores r under id. Returns ErrDuplicateID if id is taken.
	Save(ctx context.Context, id string, r *report.Report) (Entry, error)

	// Get returns the report stored under id, or ErrNotFound.
	Get(ctx context.Context, id string) (Entry, error)

	// Count returns the number of stored reports.
	Count(ctx context.Context) int
}
