package stats

import "errors"

// Sentinel kinds for stats errors.
var (
	ErrAlreadyEqualized = errors.New("aggregation already equalized")
	ErrEmptyAggregation = errors.New("aggregation has no records")
)
