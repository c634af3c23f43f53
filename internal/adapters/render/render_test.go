package render_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/vacstat/internal/adapters/render"
	"github.com/okian/vacstat/internal/domain/model"
	"github.com/okian/vacstat/internal/domain/report"
	"github.com/okian/vacstat/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleReport() *report.Report {
	at := func(y int) time.Time { return time.Date(y, time.May, 1, 0, 0, 0, 0, time.UTC) }
	records := []model.Record{
		{Name: "Программист", Salary: 1000, Location: "Москва", PublishedAt: at(2021)},
		{Name: "Водитель", Salary: 500, Location: "Казань", PublishedAt: at(2020)},
		{Name: "Программист", Salary: 2000, Location: "Казань", PublishedAt: at(2021)},
		{Name: "Водитель", Salary: 300, Location: "Москва", PublishedAt: at(2020)},
	}
	res, err := stats.Equalize(stats.Aggregate(records, "Программист"))
	So(err, ShouldBeNil)
	return report.Build(res)
}

func TestForFormat(t *testing.T) {
	Convey("Given format names", t, func() {
		Convey("Then known names should resolve", func() {
			r, err := render.ForFormat("table")
			So(err, ShouldBeNil)
			So(r, ShouldHaveSameTypeAs, render.TableRenderer{})

			r, err = render.ForFormat(" JSON ")
			So(err, ShouldBeNil)
			So(r, ShouldHaveSameTypeAs, render.JSONRenderer{})

			r, err = render.ForFormat("")
			So(err, ShouldBeNil)
			So(r, ShouldHaveSameTypeAs, render.TableRenderer{})
		})

		Convey("Then an unknown name should fail", func() {
			_, err := render.ForFormat("xlsx")
			So(errors.Is(err, render.ErrUnknownFormat), ShouldBeTrue)
		})
	})
}

func TestJSONRenderer(t *testing.T) {
	Convey("Given a finished report", t, func() {
		r := sampleReport()

		Convey("When rendered as JSON", func() {
			var buf bytes.Buffer
			err := render.JSONRenderer{}.Render(&buf, r)

			Convey("Then the positional list should be written on one line", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldEqual,
					`["Программист",{"2021":1500,"2020":400},{"2021":2,"2020":2},`+
						`{"2021":1500,"2020":0},{"2021":2,"2020":0},`+
						`{"Москва":650,"Казань":1250},{"Москва":0.5,"Казань":0.5}]`+"\n")
			})
		})
	})
}

func TestTableRenderer(t *testing.T) {
	Convey("Given a finished report", t, func() {
		r := sampleReport()

		Convey("When rendered as a table", func() {
			var buf bytes.Buffer
			err := render.TableRenderer{}.Render(&buf, r)
			out := buf.String()

			Convey("Then both sections should be present", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Статистика по годам")
				So(out, ShouldContainSubstring, "Средняя зарплата - Программист")
				So(out, ShouldContainSubstring, "Статистика по городам")
			})

			Convey("Then year rows should follow report order", func() {
				lines := strings.Split(out, "\n")
				So(strings.Fields(lines[2]), ShouldResemble, []string{"2021", "1500", "1500", "2", "2"})
				So(strings.Fields(lines[3]), ShouldResemble, []string{"2020", "400", "0", "2", "0"})
			})

			Convey("Then city rows should pair salary and share", func() {
				So(out, ShouldContainSubstring, "Москва")
				lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
				last := strings.Fields(lines[len(lines)-1])
				So(last, ShouldResemble, []string{"Казань", "1250", "Казань", "0.5"})
			})
		})
	})
}
