// Package currency holds the fixed conversion table used to bring salaries
// into roubles.
package currency

import (
	"sort"
	"strings"
)

// Base is the code every rate converts into.
const Base = "RUR"

// Table maps a currency code to the number of base units one unit is worth.
type Table map[string]float64

// Default returns the conversion table. Rates are fixed and must match exactly
// for reports to be reproducible.
func Default() Table {
	return Table{
		"AZN": 35.68,
		"BYR": 23.91,
		"EUR": 59.90,
		"GEL": 21.74,
		"KGS": 0.76,
		"KZT": 0.13,
		"RUR": 1,
		"UAH": 1.64,
		"USD": 60.66,
		"UZS": 0.0055,
	}
}

// Rate returns the rate for code. Lookup is exact: codes are not trimmed or
// case-folded.
func (t Table) Rate(code string) (float64, bool) {
	rate, ok := t[code]
	return rate, ok
}

// Codes returns the known codes in lexical order.
func (t Table) Codes() []string {
	codes := make([]string, 0, len(t))
	for code := range t {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// String lists the known codes, e.g. "AZN, BYR, ...".
func (t Table) String() string {
	return strings.Join(t.Codes(), ", ")
}
