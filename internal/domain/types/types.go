// Package types contains common types used across the application
package types

// Entry represents one row of a ranked city view
type Entry struct {
	Rank  int     `json:"rank"`
	City  string  `json:"city"`
	Value float64 `json:"value"`
}
