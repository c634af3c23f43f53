// Package report flattens finished statistics into the ordered mappings
// consumed by renderers.
package report

import (
	"encoding/json"

	"github.com/okian/vacstat/internal/domain/stats"
	"github.com/okian/vacstat/internal/domain/types"
)

// Report is the finished, render-ready statistics of one run.
type Report struct {
	Profession             string
	SalaryByYear           *OrderedMap[int, int64]
	CountByYear            *OrderedMap[int, int64]
	ProfessionSalaryByYear *OrderedMap[int, int64]
	ProfessionCountByYear  *OrderedMap[int, int64]
	SalaryByCity           *OrderedMap[string, int64]
	ShareByCity            *OrderedMap[string, float64]

	// Ranked views over the retained cities.
	TopSalary []types.Entry
	TopShare  []types.Entry

	Records int64
	Skipped int
	Pruned  int
}

// Build flattens res. City mappings carry every retained city in first-seen
// order; the ranked views are reported separately and do not filter them.
func Build(res *stats.Result) *Report {
	r := &Report{
		Profession:             res.Profession,
		SalaryByYear:           NewOrderedMap[int, int64](len(res.Years)),
		CountByYear:            NewOrderedMap[int, int64](len(res.Years)),
		ProfessionSalaryByYear: NewOrderedMap[int, int64](len(res.ProfessionYears)),
		ProfessionCountByYear:  NewOrderedMap[int, int64](len(res.ProfessionYears)),
		SalaryByCity:           NewOrderedMap[string, int64](len(res.Cities)),
		ShareByCity:            NewOrderedMap[string, float64](len(res.Cities)),
		Records:                res.Records,
		Pruned:                 len(res.Pruned),
	}

	for _, y := range res.Years {
		r.SalaryByYear.Set(y.Year, y.Average)
		r.CountByYear.Set(y.Year, y.Count)
	}
	for _, y := range res.ProfessionYears {
		r.ProfessionSalaryByYear.Set(y.Year, y.Average)
		r.ProfessionCountByYear.Set(y.Year, y.Count)
	}
	for _, c := range res.Cities {
		r.SalaryByCity.Set(c.City, c.Average)
		r.ShareByCity.Set(c.City, c.Share)
	}

	r.TopSalary = entries(res.TopSalary, func(c stats.CityStat) float64 { return float64(c.Average) })
	r.TopShare = entries(res.TopShare, func(c stats.CityStat) float64 { return c.Share })
	return r
}

// Positional returns the list handed to renderers:
// profession, salary by year, count by year, profession salary by year,
// profession count by year, salary by city, share by city.
func (r *Report) Positional() []any {
	return []any{
		r.Profession,
		r.SalaryByYear,
		r.CountByYear,
		r.ProfessionSalaryByYear,
		r.ProfessionCountByYear,
		r.SalaryByCity,
		r.ShareByCity,
	}
}

type reportJSON struct {
	Profession             string                       `json:"profession"`
	SalaryByYear           *OrderedMap[int, int64]      `json:"salary_by_year"`
	CountByYear            *OrderedMap[int, int64]      `json:"count_by_year"`
	ProfessionSalaryByYear *OrderedMap[int, int64]      `json:"profession_salary_by_year"`
	ProfessionCountByYear  *OrderedMap[int, int64]      `json:"profession_count_by_year"`
	SalaryByCity           *OrderedMap[string, int64]   `json:"salary_by_city"`
	ShareByCity            *OrderedMap[string, float64] `json:"share_by_city"`
	TopSalary              []types.Entry                `json:"top_salary"`
	TopShare               []types.Entry                `json:"top_share"`
	Records                int64                        `json:"records"`
	Skipped                int                          `json:"skipped"`
	Pruned                 int                          `json:"pruned"`
}

// MarshalJSON encodes the report as a named-field object.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		Profession:             r.Profession,
		SalaryByYear:           r.SalaryByYear,
		CountByYear:            r.CountByYear,
		ProfessionSalaryByYear: r.ProfessionSalaryByYear,
		ProfessionCountByYear:  r.ProfessionCountByYear,
		SalaryByCity:           r.SalaryByCity,
		ShareByCity:            r.ShareByCity,
		TopSalary:              r.TopSalary,
		TopShare:               r.TopShare,
		Records:                r.Records,
		Skipped:                r.Skipped,
		Pruned:                 r.Pruned,
	})
}

func entries(cities []stats.CityStat, value func(stats.CityStat) float64) []types.Entry {
	out := make([]types.Entry, len(cities))
	for i, c := range cities {
		out[i] = types.Entry{Rank: i + 1, City: c.City, Value: value(c)}
	}
	return out
}
