// Package render writes finished reports for people and programs.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/vacstat/internal/domain/report"
)

// ErrUnknownFormat is returned by ForFormat for an unsupported name.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names accepted by ForFormat.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Renderer writes a report to w.
type Renderer interface {
	Render(w io.Writer, r *report.Report) error
}

// ForFormat returns the renderer registered under name.
func ForFormat(name string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatTable, "":
		return TableRenderer{}, nil
	case FormatJSON:
		return JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Formats lists the accepted format names.
func Formats() []string { return []string{FormatTable, FormatJSON} }
