package stats

import (
	"strings"

	"github.com/okian/vacstat/internal/domain/model"
)

// Aggregation owns the three groupings built for one run. It is created by
// NewAggregation, filled by Add, and finished exactly once by Equalize.
type Aggregation struct {
	profession string

	byYear           *Grouping[int]
	professionByYear *Grouping[int]
	byCity           *Grouping[string]

	records   int64
	equalized bool
}

// NewAggregation returns an empty aggregation whose profession grouping
// counts records with profession contained in their name.
func NewAggregation(profession string) *Aggregation {
	return &Aggregation{
		profession:       profession,
		byYear:           NewGrouping[int](),
		professionByYear: NewGrouping[int](),
		byCity:           NewGrouping[string](),
	}
}

// Aggregate runs the single pass over records in input order.
func Aggregate(records []model.Record, profession string) *Aggregation {
	a := NewAggregation(profession)
	for i := range records {
		a.Add(records[i])
	}
	return a
}

// Add incorporates one record into every grouping it belongs to.
func (a *Aggregation) Add(rec model.Record) {
	a.records++
	year := rec.Year()

	yearAcc, created := a.byYear.Ensure(year, 0, 0)
	yearAcc.Incorporate(rec.Salary)
	if created {
		// Every year gets a profession entry, even if nothing ever matches.
		a.professionByYear.Ensure(year, 0, 0)
	}

	cityAcc, _ := a.byCity.Ensure(rec.Location, 0, 0)
	cityAcc.Incorporate(rec.Salary)

	if Matches(a.profession, rec.Name) {
		profAcc, _ := a.professionByYear.Get(year)
		profAcc.Incorporate(rec.Salary)
	}
}

// Matches is the profession filter: a case-sensitive substring test.
func Matches(profession, name string) bool {
	return strings.Contains(name, profession)
}

// Profession returns the filter this aggregation was built with.
func (a *Aggregation) Profession() string { return a.profession }

// Records returns the number of records seen.
func (a *Aggregation) Records() int64 { return a.records }

// ByYear returns the overall grouping keyed by publication year.
func (a *Aggregation) ByYear() *Grouping[int] { return a.byYear }

// ProfessionByYear returns the profession-filtered grouping keyed by year.
func (a *Aggregation) ProfessionByYear() *Grouping[int] { return a.professionByYear }

// ByCity returns the grouping keyed by location.
func (a *Aggregation) ByCity() *Grouping[string] { return a.byCity }

// Equalized reports whether Equalize has already consumed this aggregation.
func (a *Aggregation) Equalized() bool { return a.equalized }
