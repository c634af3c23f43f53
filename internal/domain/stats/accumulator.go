// Package stats implements the single-pass grouping of vacancy records and
// the finishing pass that turns running sums into averages and shares.
package stats

// Accumulator is a running (sum, count) pair for one group key.
type Accumulator struct {
	Total int64
	Count int64
}

// NewAccumulator returns an accumulator seeded with total and count.
func NewAccumulator(total, count int64) *Accumulator {
	return &Accumulator{Total: total, Count: count}
}

// Incorporate adds one contribution.
func (a *Accumulator) Incorporate(value int64) {
	a.Total += value
	a.Count++
}

// Grouping maps keys to accumulators and iterates in first-seen key order.
type Grouping[K comparable] struct {
	keys  []K
	index map[K]*Accumulator
}

// NewGrouping returns an empty grouping.
func NewGrouping[K comparable]() *Grouping[K] {
	return &Grouping[K]{index: make(map[K]*Accumulator)}
}

// Get returns the accumulator for key.
func (g *Grouping[K]) Get(key K) (*Accumulator, bool) {
	acc, ok := g.index[key]
	return acc, ok
}

// Ensure returns the accumulator for key, creating it with the given seed on
// first sight. created reports whether it was created by this call.
func (g *Grouping[K]) Ensure(key K, total, count int64) (acc *Accumulator, created bool) {
	if acc, ok := g.index[key]; ok {
		return acc, false
	}
	acc = NewAccumulator(total, count)
	g.index[key] = acc
	g.keys = append(g.keys, key)
	return acc, true
}

// Keys returns a copy of the keys in first-seen order.
func (g *Grouping[K]) Keys() []K {
	out := make([]K, len(g.keys))
	copy(out, g.keys)
	return out
}

// Len returns the number of keys.
func (g *Grouping[K]) Len() int { return len(g.keys) }

// Remove deletes every key in drop, keeping the order of the rest.
func (g *Grouping[K]) Remove(drop map[K]struct{}) {
	if len(drop) == 0 {
		return
	}
	kept := g.keys[:0]
	for _, k := range g.keys {
		if _, ok := drop[k]; ok {
			delete(g.index, k)
			continue
		}
		kept = append(kept, k)
	}
	g.keys = kept
}
