package report_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/vacstat/internal/domain/model"
	"github.com/okian/vacstat/internal/domain/report"
	"github.com/okian/vacstat/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(name string, salary int64, city string, year int) model.Record {
	return model.Record{
		Name:        name,
		Salary:      salary,
		Location:    city,
		PublishedAt: time.Date(year, time.March, 3, 10, 0, 0, 0, time.UTC),
	}
}

func build(records []model.Record, profession string) *report.Report {
	res, err := stats.Equalize(stats.Aggregate(records, profession))
	So(err, ShouldBeNil)
	return report.Build(res)
}

func TestBuild(t *testing.T) {
	Convey("Given finished statistics", t, func() {
		r := build([]model.Record{
			rec("Программист", 1000, "Москва", 2021),
			rec("Водитель", 500, "Казань", 2020),
			rec("Программист", 2000, "Казань", 2021),
			rec("Водитель", 300, "Москва", 2020),
		}, "Программист")

		Convey("Then year mappings should keep first-seen order", func() {
			So(r.SalaryByYear.Keys(), ShouldResemble, []int{2021, 2020})
			v, _ := r.SalaryByYear.Get(2021)
			So(v, ShouldEqual, 1500)
			c, _ := r.CountByYear.Get(2020)
			So(c, ShouldEqual, 2)
			p, _ := r.ProfessionSalaryByYear.Get(2020)
			So(p, ShouldEqual, 0)
			pc, _ := r.ProfessionCountByYear.Get(2021)
			So(pc, ShouldEqual, 2)
		})

		Convey("Then city mappings should hold averages and shares", func() {
			So(r.SalaryByCity.Keys(), ShouldResemble, []string{"Москва", "Казань"})
			s, _ := r.SalaryByCity.Get("Казань")
			So(s, ShouldEqual, 1250)
			sh, _ := r.ShareByCity.Get("Москва")
			So(sh, ShouldEqual, 0.5)
		})

		Convey("Then ranked views should be numbered from one", func() {
			So(r.TopSalary[0].Rank, ShouldEqual, 1)
			So(r.TopSalary[0].City, ShouldEqual, "Казань")
			So(r.TopSalary[0].Value, ShouldEqual, 1250)
			So(r.TopShare[0].City, ShouldEqual, "Москва")
		})

		Convey("Then the positional list should have the fixed layout", func() {
			pos := r.Positional()
			So(len(pos), ShouldEqual, 7)
			So(pos[0], ShouldEqual, "Программист")
			So(pos[1], ShouldEqual, r.SalaryByYear)
			So(pos[6], ShouldEqual, r.ShareByCity)
		})

		Convey("When marshaled to JSON", func() {
			data, err := json.Marshal(r.Positional())

			Convey("Then object keys should follow report order", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual,
					`["Программист",{"2021":1500,"2020":400},{"2021":2,"2020":2},`+
						`{"2021":1500,"2020":0},{"2021":2,"2020":0},`+
						`{"Москва":650,"Казань":1250},{"Москва":0.5,"Казань":0.5}]`)
			})
		})

		Convey("When the whole report is marshaled", func() {
			data, err := json.Marshal(r)
			So(err, ShouldBeNil)
			var decoded map[string]any
			So(json.Unmarshal(data, &decoded), ShouldBeNil)

			Convey("Then it should carry named sections", func() {
				So(decoded["profession"], ShouldEqual, "Программист")
				So(decoded["records"], ShouldEqual, 4.0)
				So(decoded, ShouldContainKey, "top_salary")
				So(decoded, ShouldContainKey, "share_by_city")
			})
		})
	})

	Convey("Given more than ten retained cities", t, func() {
		records := []model.Record{}
		names := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
		for i, city := range names {
			records = append(records, rec("x", int64(100*(i+1)), city, 2022))
		}
		r := build(records, "x")

		Convey("Then the city mappings should not be cut to the ranked top ten", func() {
			So(r.SalaryByCity.Len(), ShouldEqual, 12)
			So(r.ShareByCity.Len(), ShouldEqual, 12)
			So(r.SalaryByCity.Keys()[0], ShouldEqual, "A")
			So(len(r.TopSalary), ShouldEqual, 10)
			So(r.TopSalary[0].City, ShouldEqual, "L")
		})
	})
}

func TestOrderedMap(t *testing.T) {
	Convey("Given an ordered map", t, func() {
		m := report.NewOrderedMap[string, int](0)
		m.Set("b", 1)
		m.Set("a", 2)
		m.Set("b", 3)

		Convey("Then re-setting a key should keep its position", func() {
			So(m.Keys(), ShouldResemble, []string{"b", "a"})
			v, ok := m.Get("b")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 3)
		})

		Convey("Then JSON should follow insertion order", func() {
			data, err := json.Marshal(m)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{"b":3,"a":2}`)
		})

		Convey("Then an empty map should encode as an empty object", func() {
			data, err := json.Marshal(report.NewOrderedMap[int, int](0))
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{}`)
		})
	})
}
