// Package model contains domain models passed between layers.
package model

import "time"

// Source column names a row must carry.
const (
	FieldName        = "name"
	FieldSalaryFrom  = "salary_from"
	FieldSalaryTo    = "salary_to"
	FieldCurrency    = "salary_currency"
	FieldArea        = "area_name"
	FieldPublishedAt = "published_at"
)

// RequiredFields lists every column the normalizer reads, in source order.
var RequiredFields = []string{
	FieldName,
	FieldSalaryFrom,
	FieldSalaryTo,
	FieldCurrency,
	FieldArea,
	FieldPublishedAt,
}

// RawRow maps a header name to the raw text of one validated source row.
type RawRow map[string]string

// Record is a normalized vacancy. It is not modified after construction.
type Record struct {
	Name        string    // job title
	Salary      int64     // mid-range salary in base currency units
	Location    string    // city or region name
	PublishedAt time.Time // publication time with its original UTC offset
}

// Year returns the four-digit publication year in the record's own offset.
func (r Record) Year() int {
	return r.PublishedAt.Year()
}
