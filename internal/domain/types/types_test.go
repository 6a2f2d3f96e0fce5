package types_test

import (
	"encoding/json"
	"math"
	"testing"

	types "github.com/okian/mvpcast/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFloat(t *testing.T) {
	Convey("Given non-finite values", t, func() {
		Convey("When marshalling positive infinity", func() {
			b, err := json.Marshal(types.Float(math.Inf(1)))

			Convey("Then it should be null", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, "null")
			})
		})

		Convey("When marshalling NaN and negative infinity", func() {
			b, err := json.Marshal([]types.Float{types.Float(math.NaN()), types.Float(math.Inf(-1))})

			Convey("Then both should be null", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, "[null,null]")
			})
		})

		Convey("When decoding null", func() {
			var f types.Float
			So(json.Unmarshal([]byte("null"), &f), ShouldBeNil)

			Convey("Then it should be NaN", func() {
				So(math.IsNaN(float64(f)), ShouldBeTrue)
			})
		})
	})

	Convey("Given finite values", t, func() {
		b, err := json.Marshal(types.Float(0.935))
		So(err, ShouldBeNil)
		So(string(b), ShouldEqual, "0.935")

		var f types.Float
		So(json.Unmarshal(b, &f), ShouldBeNil)
		So(float64(f), ShouldEqual, 0.935)
	})
}

func TestEntry(t *testing.T) {
	Convey("Given an Entry with an infinite stat", t, func() {
		entry := types.Entry{
			Rank:           1,
			Player:         "Nikola Jokić",
			Team:           "DEN",
			Season:         "2025-26",
			SeasonEndYear:  2026,
			PredictedShare: 0.81,
			Games:          types.Float(math.NaN()),
			Stats:          map[string]types.Float{"PER": types.Float(math.Inf(1))},
		}

		Convey("When serialized", func() {
			b, err := json.Marshal(entry)

			Convey("Then it should arrive as null and never as Infinity", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldNotContainSubstring, "Inf")
				So(string(b), ShouldContainSubstring, `"PER":null`)
				So(string(b), ShouldContainSubstring, `"games":null`)
				So(string(b), ShouldContainSubstring, `"predicted_share":0.81`)
			})
		})

		Convey("When the stats are empty", func() {
			entry.Stats = nil
			b, _ := json.Marshal(entry)

			Convey("Then they should be omitted", func() {
				So(string(b), ShouldNotContainSubstring, "stats")
			})
		})
	})
}
