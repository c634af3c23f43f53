package render

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/okian/vacstat/internal/domain/report"
)

const (
	yearTitle = "Статистика по годам"
	cityTitle = "Статистика по городам"
)

// TableRenderer writes the year and city tables as aligned text.
type TableRenderer struct{}

// Render implements Renderer.
func (TableRenderer) Render(w io.Writer, r *report.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, yearTitle)
	fmt.Fprintf(tw, "Год\tСредняя зарплата\tСредняя зарплата - %s\tКоличество вакансий\tКоличество вакансий - %s\n",
		r.Profession, r.Profession)
	for _, year := range r.SalaryByYear.Keys() {
		salary, _ := r.SalaryByYear.Get(year)
		count, _ := r.CountByYear.Get(year)
		profSalary, _ := r.ProfessionSalaryByYear.Get(year)
		profCount, _ := r.ProfessionCountByYear.Get(year)
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n", year, salary, profSalary, count, profCount)
	}

	fmt.Fprintln(tw, "\t\t\t\t")
	fmt.Fprintln(tw, cityTitle)
	fmt.Fprintln(tw, "Город\tУровень зарплат\t\tГород\tДоля вакансий")

	salaryCities := r.SalaryByCity.Keys()
	shareCities := r.ShareByCity.Keys()
	rows := max(len(salaryCities), len(shareCities))
	for i := 0; i < rows; i++ {
		var left, right string
		if i < len(salaryCities) {
			v, _ := r.SalaryByCity.Get(salaryCities[i])
			left = salaryCities[i] + "\t" + strconv.FormatInt(v, 10)
		} else {
			left = "\t"
		}
		if i < len(shareCities) {
			v, _ := r.ShareByCity.Get(shareCities[i])
			right = shareCities[i] + "\t" + strconv.FormatFloat(v, 'f', -1, 64)
		} else {
			right = "\t"
		}
		fmt.Fprintf(tw, "%s\t\t%s\n", left, right)
	}

	return tw.Flush()
}
