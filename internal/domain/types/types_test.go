package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/vacstat/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given an Entry struct", t, func() {
		entry := types.Entry{Rank: 1, City: "Москва", Value: 0.3217}

		Convey("When marshaling to JSON", func() {
			data, err := json.Marshal(entry)

			Convey("Then it should use snake-case field names", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"rank":1,"city":"Москва","value":0.3217}`)
			})
		})

		Convey("When creating an entry with zero values", func() {
			entry := types.Entry{}

			Convey("Then it should have default values", func() {
				So(entry.Rank, ShouldEqual, 0)
				So(entry.City, ShouldEqual, "")
				So(entry.Value, ShouldEqual, 0.0)
			})
		})
	})
}
