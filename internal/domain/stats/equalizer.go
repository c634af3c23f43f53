package stats

import (
	"sort"
	"strconv"
)

// YearStat is a finished per-year value.
type YearStat struct {
	Year    int
	Average int64
	Count   int64
}

// CityStat is a finished per-city value. Count is the raw number of records
// and Share its fraction of all records, rounded to four decimals.
type CityStat struct {
	City    string
	Average int64
	Count   int64
	Share   float64
}

// Result holds finished statistics. Years and ProfessionYears share the same
// key order; Cities holds the retained cities in first-seen order.
type Result struct {
	Profession      string
	Records         int64
	Years           []YearStat
	ProfessionYears []YearStat
	Cities          []CityStat
	Pruned          []CityStat

	// TopSalary and TopShare rank the retained cities. They are auxiliary
	// orderings: Cities is not filtered by them.
	TopSalary []CityStat
	TopShare  []CityStat
}

// Equalizer performs the finishing pass.
type Equalizer struct {
	minShare float64
	topLimit int
}

// NewEqualizer returns an Equalizer with the default threshold and limit.
func NewEqualizer(opts ...Option) *Equalizer {
	e := &Equalizer{minShare: DefaultMinShare, topLimit: DefaultTopLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Equalize finishes a. It may run only once per aggregation: pruned cities are
// removed from a's city grouping and a second call returns ErrAlreadyEqualized.
func (e *Equalizer) Equalize(a *Aggregation) (*Result, error) {
	if a.equalized {
		return nil, ErrAlreadyEqualized
	}
	if a.records == 0 {
		return nil, ErrEmptyAggregation
	}
	a.equalized = true

	res := &Result{
		Profession:      a.profession,
		Records:         a.records,
		Years:           averageYears(a.byYear),
		ProfessionYears: averageYears(a.professionByYear),
	}

	drop := make(map[string]struct{})
	for _, city := range a.byCity.Keys() {
		acc, _ := a.byCity.Get(city)
		stat := CityStat{
			City:    city,
			Average: floorDiv(acc.Total, acc.Count),
			Count:   acc.Count,
			Share:   Share(acc.Count, a.records),
		}
		if stat.Share < e.minShare {
			drop[city] = struct{}{}
			res.Pruned = append(res.Pruned, stat)
			continue
		}
		res.Cities = append(res.Cities, stat)
	}
	a.byCity.Remove(drop)

	res.TopSalary = rank(res.Cities, e.topLimit, func(x, y CityStat) bool { return x.Average > y.Average })
	res.TopShare = rank(res.Cities, e.topLimit, func(x, y CityStat) bool { return x.Share > y.Share })

	return res, nil
}

// Equalize finishes a with the default Equalizer.
func Equalize(a *Aggregation) (*Result, error) {
	return NewEqualizer().Equalize(a)
}

// averageYears floors total/count per year. A year without contributions
// (possible only in the profession grouping) keeps its seed total of 0.
func averageYears(g *Grouping[int]) []YearStat {
	out := make([]YearStat, 0, g.Len())
	for _, year := range g.Keys() {
		acc, _ := g.Get(year)
		stat := YearStat{Year: year, Average: acc.Total, Count: acc.Count}
		if acc.Count != 0 {
			stat.Average = floorDiv(acc.Total, acc.Count)
		}
		out = append(out, stat)
	}
	return out
}

// Share returns count/total rounded to four decimals, ties resolved on the
// exact binary value (round(x, 4) semantics).
func Share(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	s := strconv.FormatFloat(float64(count)/float64(total), 'f', shareDecimals, 64)
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// floorDiv is integer division rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// rank returns at most n cities ordered by before; equal cities keep their
// first-seen order.
func rank(cities []CityStat, n int, before func(x, y CityStat) bool) []CityStat {
	sorted := make([]CityStat, len(cities))
	copy(sorted, cities)
	sort.SliceStable(sorted, func(i, j int) bool { return before(sorted[i], sorted[j]) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
