// Package source reads vacancy tables from CSV and splits them by year.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/vacstat/internal/domain/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a header plus the rows that passed validation.
type Table struct {
	Header  []string
	Records [][]string
	// Skipped counts rows dropped for an empty field or a column count that
	// differs from the header.
	Skipped int
}

// Read parses CSV from r. The first row is the header; a data row is kept
// only when it has exactly as many fields as the header and none is empty.
func Read(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrRead, err)
	}
	if len(header) == 0 {
		return nil, ErrEmptyFile
	}

	t := &Table{Header: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRead, err)
		}
		if !valid(row, len(header)) {
			t.Skipped++
			continue
		}
		t.Records = append(t.Records, row)
	}

	if len(t.Records) == 0 {
		return nil, ErrNoData
	}
	return t, nil
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

func valid(row []string, width int) bool {
	if len(row) != width {
		return false
	}
	for _, v := range row {
		if v == "" {
			return false
		}
	}
	return true
}

// Validate checks that every required column is present in the header.
func (t *Table) Validate(required ...string) error {
	present := make(map[string]struct{}, len(t.Header))
	for _, h := range t.Header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// Len returns the number of kept rows.
func (t *Table) Len() int { return len(t.Records) }

// Row returns kept row i as a header-keyed mapping. With duplicate header
// names the rightmost column wins.
func (t *Table) Row(i int) model.RawRow {
	rec := t.Records[i]
	row := make(model.RawRow, len(t.Header))
	for j, h := range t.Header {
		row[h] = rec[j]
	}
	return row
}

// Rows returns every kept row as a mapping, in input order.
func (t *Table) Rows() []model.RawRow {
	out := make([]model.RawRow, len(t.Records))
	for i := range t.Records {
		out[i] = t.Row(i)
	}
	return out
}
