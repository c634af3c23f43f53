package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

const yearPrefixLen = 4

// YearSplit groups table rows by the year prefix of a timestamp column.
type YearSplit struct {
	Header  []string
	Years   []string // first-seen order
	Rows    map[string][][]string
	Skipped int // rows whose value does not start with four digits
}

// SplitByYear groups t's rows by the first four characters of column. Rows
// whose value does not start with four ASCII digits are skipped, so every
// year is safe to use as a file name.
func SplitByYear(t *Table, column string) (*YearSplit, error) {
	idx := -1
	for i, h := range t.Header {
		if h == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
	}

	s := &YearSplit{Header: t.Header, Rows: make(map[string][][]string)}
	for _, rec := range t.Records {
		year, ok := yearPrefix(rec[idx])
		if !ok {
			s.Skipped++
			continue
		}
		if _, ok := s.Rows[year]; !ok {
			s.Years = append(s.Years, year)
		}
		s.Rows[year] = append(s.Rows[year], rec)
	}
	return s, nil
}

func yearPrefix(v string) (string, bool) {
	if len(v) < yearPrefixLen {
		return "", false
	}
	for i := 0; i < yearPrefixLen; i++ {
		if v[i] < '0' || v[i] > '9' {
			return "", false
		}
	}
	return v[:yearPrefixLen], true
}

// WriteYearFiles writes one <dir>/<year>.csv per year, each starting with a
// UTF-8 BOM and the header. It returns the written paths in year order.
func WriteYearFiles(ctx context.Context, dir string, s *YearSplit) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	paths := make([]string, 0, len(s.Years))
	for _, year := range s.Years {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, year+".csv")
		if err := writeFile(path, s.Header, s.Rows[year]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrWrite, cerr)
		}
	}()

	if _, err := f.Write(utf8BOM); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
