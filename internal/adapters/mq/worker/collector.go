package worker

import (
	"fmt"
	"sync"

	"github.com/okian/vacstat/internal/domain/model"
)

// Sink receives the outcome of each job.
type Sink interface {
	Put(index int, rec model.Record)
	Fail(index int, err error)
}

// Collector is a Sink that stores records by job index, so results come out
// in input order whatever order workers finish in. Of several failures it
// keeps the one with the lowest index.
type Collector struct {
	mu      sync.Mutex
	records []model.Record
	filled  []bool
	count   int

	errIndex int
	err      error
}

// NewCollector creates a collector for n jobs.
func NewCollector(n int) *Collector {
	return &Collector{
		records:  make([]model.Record, n),
		filled:   make([]bool, n),
		errIndex: -1,
	}
}

// Put stores rec at index. Out-of-range indexes are ignored.
func (c *Collector) Put(index int, rec model.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.records) || c.filled[index] {
		return
	}
	c.records[index] = rec
	c.filled[index] = true
	c.count++
}

// Fail records err for index.
func (c *Collector) Fail(index int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil || index < c.errIndex {
		c.err = err
		c.errIndex = index
	}
}

// Result returns the records in index order, or the earliest failure.
func (c *Collector) Result() ([]model.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.count != len(c.records) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIncomplete, c.count, len(c.records))
	}
	return c.records, nil
}
