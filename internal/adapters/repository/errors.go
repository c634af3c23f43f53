package repository

import "errors"

// Sentinel kinds for report store errors.
var (
	ErrNotFound    = errors.New("report not found")
	ErrDuplicateID = errors.New("report id already stored")
	ErrInvalidID   = errors.New("invalid report id")
)
