package currency_test

import (
	"testing"

	"github.com/okian/vacstat/internal/domain/currency"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultTable(t *testing.T) {
	Convey("Given the default currency table", t, func() {
		table := currency.Default()

		Convey("Then it should carry exactly the published rates", func() {
			So(len(table), ShouldEqual, 10)
			expected := map[string]float64{
				"AZN": 35.68, "BYR": 23.91, "EUR": 59.90, "GEL": 21.74, "KGS": 0.76,
				"KZT": 0.13, "RUR": 1, "UAH": 1.64, "USD": 60.66, "UZS": 0.0055,
			}
			for code, rate := range expected {
				got, ok := table.Rate(code)
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, rate)
			}
		})

		Convey("Then the base currency should convert one to one", func() {
			rate, ok := table.Rate(currency.Base)
			So(ok, ShouldBeTrue)
			So(rate, ShouldEqual, 1)
		})

		Convey("When looking up an unknown or differently cased code", func() {
			_, okUnknown := table.Rate("GBP")
			_, okLower := table.Rate("usd")

			Convey("Then the lookup should fail", func() {
				So(okUnknown, ShouldBeFalse)
				So(okLower, ShouldBeFalse)
			})
		})

		Convey("Then codes should be listed in order", func() {
			So(table.Codes()[0], ShouldEqual, "AZN")
			So(table.Codes()[9], ShouldEqual, "UZS")
			So(table.String(), ShouldStartWith, "AZN, BYR, EUR")
		})

		Convey("Then each call should return an independent copy", func() {
			table["USD"] = 1
			rate, _ := currency.Default().Rate("USD")
			So(rate, ShouldEqual, 60.66)
		})
	})
}
