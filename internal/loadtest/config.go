// Package loadtest generates synthetic vacancy exports and replays them
// against a running vacstat server.
package loadtest

import (
	"errors"
	"time"
)

// Errors returned by the runner.
var (
	ErrUnhealthy    = errors.New("service unhealthy")
	ErrSubmit       = errors.New("report submission failed")
	ErrInconsistent = errors.New("reports disagree")
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Rows       int           // Data rows in the generated export
	Reports    int           // Number of times the export is submitted
	Workers    int           // Concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Profession string        // Profession filter sent with every submission
	Seed       uint64        // Generator seed; equal seeds give equal exports
	OutputFile string        // Optional path the export is saved to
}

// Stats holds run statistics.
type Stats struct {
	RowsGenerated    int
	ReportsSubmitted int
	ReportsAccepted  int
	ReportsFailed    int
	ReportsVerified  int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

// created is the subset of the POST /reports response the runner reads.
type created struct {
	ID string `json:"id"`
}

// apiError is the error body written by the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
