package source

import (
	"errors"
	"fmt"
)

// Sentinel kinds for source errors. ErrEmptyFile and ErrNoData both match
// ErrEmptyInput.
var (
	ErrEmptyInput    = errors.New("empty input")
	ErrEmptyFile     = fmt.Errorf("%w: no header row", ErrEmptyInput)
	ErrNoData        = fmt.Errorf("%w: no data rows", ErrEmptyInput)
	ErrMissingColumn = errors.New("missing required column")
	ErrRead          = errors.New("read source failed")
	ErrWrite         = errors.New("write source failed")
)
