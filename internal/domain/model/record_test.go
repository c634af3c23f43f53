package model_test

import (
	"testing"
	"time"

	"github.com/okian/vacstat/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecord_Year(t *testing.T) {
	Convey("Given a record published just after midnight in a positive offset", t, func() {
		loc := time.FixedZone("", 3*60*60)
		rec := model.Record{
			Name:        "Программист",
			Salary:      55000,
			Location:    "Москва",
			PublishedAt: time.Date(2020, time.January, 1, 0, 30, 0, 0, loc),
		}

		Convey("Then the year should come from the local wall clock, not UTC", func() {
			So(rec.Year(), ShouldEqual, 2020)
			So(rec.PublishedAt.UTC().Year(), ShouldEqual, 2019)
		})
	})
}

func TestRequiredFields(t *testing.T) {
	Convey("Given the required field list", t, func() {
		Convey("Then it should name all six source columns", func() {
			So(model.RequiredFields, ShouldResemble, []string{
				"name", "salary_from", "salary_to", "salary_currency", "area_name", "published_at",
			})
		})
	})
}
