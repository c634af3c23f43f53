package render

import (
	"encoding/json"
	"io"

	"github.com/okian/vacstat/internal/domain/report"
)

// JSONRenderer writes the seven-element positional list, one line.
type JSONRenderer struct {
	Indent bool
}

// Render implements Renderer.
func (j JSONRenderer) Render(w io.Writer, r *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r.Positional())
}
