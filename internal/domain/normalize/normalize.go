// Package normalize converts raw source rows into typed vacancy records.
package normalize

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/vacstat/internal/domain/currency"
	"github.com/okian/vacstat/internal/domain/model"
)

// TimestampLayout is the only accepted publication time format,
// e.g. 2022-07-05T18:19:30+0300.
const TimestampLayout = "2006-01-02T15:04:05-0700"

// maxBound keeps truncated bounds inside int64.
const maxBound = 1 << 62

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithCurrencyTable replaces the default conversion table.
func WithCurrencyTable(table currency.Table) Option {
	return func(n *Normalizer) {
		if len(table) > 0 {
			n.table = table
		}
	}
}

// Normalizer turns a RawRow into a model.Record. It holds no mutable state and
// is safe for concurrent use.
type Normalizer struct {
	table currency.Table
}

// New creates a Normalizer using the default currency table unless overridden.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{table: currency.Default()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts one row. The returned error is an *Error matching
// ErrNormalization.
func (n *Normalizer) Normalize(_ context.Context, row model.RawRow) (model.Record, error) {
	name, err := field(row, model.FieldName)
	if err != nil {
		return model.Record{}, err
	}

	from, err := bound(row, model.FieldSalaryFrom)
	if err != nil {
		return model.Record{}, err
	}
	to, err := bound(row, model.FieldSalaryTo)
	if err != nil {
		return model.Record{}, err
	}

	code, err := field(row, model.FieldCurrency)
	if err != nil {
		return model.Record{}, err
	}
	rate, ok := n.table.Rate(code)
	if !ok {
		return model.Record{}, &Error{Row: -1, Field: model.FieldCurrency, Value: code, Err: ErrUnknownCurrency}
	}

	area, err := field(row, model.FieldArea)
	if err != nil {
		return model.Record{}, err
	}

	rawTS, err := field(row, model.FieldPublishedAt)
	if err != nil {
		return model.Record{}, err
	}
	published, err := time.Parse(TimestampLayout, rawTS)
	// Parse tolerates fractional seconds the layout does not name.
	if err != nil || published.Format(TimestampLayout) != rawTS {
		return model.Record{}, &Error{Row: -1, Field: model.FieldPublishedAt, Value: rawTS, Err: ErrInvalidTimestamp}
	}

	return model.Record{
		Name:        name,
		Salary:      Convert(from, to, rate),
		Location:    area,
		PublishedAt: published,
	}, nil
}

// Convert returns floor((from+to)*rate/2). The summed bounds are multiplied by
// the rate first and halved once afterwards; averaging first gives different
// results for fractional rates.
func Convert(from, to int64, rate float64) int64 {
	return int64(math.Floor(float64(from+to) * rate / 2))
}

// ParseBound strips every whitespace rune, parses the rest as a float and
// truncates it toward zero: "100 000" -> 100000, "1500.9" -> 1500,
// "1_000" -> 1000.
func ParseBound(raw string) (int64, error) {
	compact, ok := dropDigitSeparators(strings.Join(strings.Fields(raw), ""))
	if !ok {
		return 0, ErrInvalidSalary
	}
	f, err := strconv.ParseFloat(compact, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidSalary
	}
	if f < 0 || f >= maxBound {
		return 0, ErrInvalidSalary
	}
	return int64(f), nil
}

// dropDigitSeparators removes underscores that sit between two digits.
// Any other underscore makes the text invalid.
func dropDigitSeparators(s string) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return b.String(), true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func bound(row model.RawRow, name string) (int64, error) {
	raw, err := field(row, name)
	if err != nil {
		return 0, err
	}
	v, err := ParseBound(raw)
	if err != nil {
		return 0, &Error{Row: -1, Field: name, Value: raw, Err: err}
	}
	return v, nil
}

func field(row model.RawRow, name string) (string, error) {
	v, ok := row[name]
	if !ok {
		return "", &Error{Row: -1, Field: name, Err: ErrMissingField}
	}
	return v, nil
}
