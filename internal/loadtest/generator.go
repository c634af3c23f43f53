package loadtest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	"github.com/okian/vacstat/internal/domain/model"
	"github.com/okian/vacstat/pkg/logger"
)

// Every incompleteEvery-th row has an empty salary_from and is skipped by
// the reader.
const incompleteEvery = 50

var (
	names = []string{
		"Программист", "Ведущий программист", "Аналитик", "Тестировщик",
		"Менеджер проектов", "Системный администратор", "Дизайнер",
	}
	currencies = []string{"RUR", "RUR", "RUR", "USD", "EUR", "KZT", "UAH", "BYR"}
	// Weighted so some cities stay under the pruning threshold.
	cities = []struct {
		name   string
		weight int
	}{
		{"Москва", 40}, {"Санкт-Петербург", 20}, {"Новосибирск", 8},
		{"Екатеринбург", 8}, {"Казань", 7}, {"Нижний Новгород", 6},
		{"Краснодар", 5}, {"Томск", 4}, {"Урюпинск", 1}, {"Кострома", 1},
	}
	cityWeight = func() int {
		total := 0
		for _, c := range cities {
			total += c.weight
		}
		return total
	}()
)

const (
	firstYear     = 2015
	yearSpan      = 8
	salaryFloor   = 10_000
	salarySpread  = 150_000
	foreignFactor = 60
)

// Generate writes a vacancies export with rows data rows to w. Equal seeds
// produce byte-identical output.
func Generate(ctx context.Context, w io.Writer, rows int, seed uint64) (int, error) {
	rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	cw := csv.NewWriter(w)

	if err := cw.Write(model.RequiredFields); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < rows; i++ {
		if i%1024 == 0 && ctx.Err() != nil {
			return i, ctx.Err()
		}
		if err := cw.Write(generateRow(rnd, i)); err != nil {
			return i, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush: %w", err)
	}

	logger.Get().Debug(ctx, "generated vacancies export", logger.Int("rows", rows))
	return rows, nil
}

func generateRow(rnd *rand.Rand, index int) []string {
	cur := currencies[rnd.IntN(len(currencies))]
	from := salaryFloor + rnd.IntN(salarySpread)
	to := from + rnd.IntN(salarySpread/2)
	if cur != "RUR" {
		from /= foreignFactor
		to /= foreignFactor
	}

	fromText := strconv.Itoa(from)
	if index%incompleteEvery == incompleteEvery-1 {
		fromText = ""
	}

	year := firstYear + rnd.IntN(yearSpan)
	month := 1 + rnd.IntN(12)
	day := 1 + rnd.IntN(28)

	return []string{
		names[rnd.IntN(len(names))],
		fromText,
		strconv.Itoa(to),
		cur,
		pickCity(rnd),
		fmt.Sprintf("%d-%02d-%02dT%02d:%02d:00+0300", year, month, day, rnd.IntN(24), rnd.IntN(60)),
	}
}

func pickCity(rnd *rand.Rand) string {
	n := rnd.IntN(cityWeight)
	for _, c := range cities {
		if n < c.weight {
			return c.name
		}
		n -= c.weight
	}
	return cities[0].name
}
