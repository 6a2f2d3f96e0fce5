package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/mvpcast/internal/domain/model"
	"github.com/okian/mvpcast/internal/domain/scoring"
	"github.com/okian/mvpcast/internal/domain/split"
	"github.com/okian/mvpcast/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

// stump splits on its only feature at 1: 0.2 below, 0.9 above.
func stump() *scoring.ForestModel {
	return &scoring.ForestModel{
		Params:   scoring.ForestParams{Trees: 1, MinLeaf: 1},
		Features: 3,
		Columns:  3,
		Trees: []scoring.Tree{{Nodes: []scoring.Node{
			{Feature: 1, Threshold: 1, Left: 1, Right: 2},
			{Feature: -1, Value: 0.2},
			{Feature: -1, Value: 0.9},
		}}},
	}
}

func TestBundle(t *testing.T) {
	Convey("Given a bundle trained on three columns", t, func() {
		m := &scoring.RidgeModel{Alpha: 1, Intercept: 0.1, Weights: []float64{1, 2, 3}}
		plan := split.Plan{Train: []int{2020, 2021}, Validation: 2022, Test: 2023}
		b := model.NewBundle(m, []string{"WS", "PER", "VORP"}, "award_share", plan, 2023)

		So(b.RunID, ShouldNotEqual, uuid.Nil)
		So(b.Plan(), ShouldResemble, plan)

		Convey("Aligning keeps stored order and reports missing columns", func() {
			panel := table.New(1)
			panel.SetNum("VORP", []float64{2})
			panel.SetNum("WS", []float64{10})
			panel.SetNum("extra", []float64{7})

			a, err := b.Align(panel)
			So(err, ShouldBeNil)
			So(a.Present, ShouldResemble, []string{"WS", "VORP"})
			So(a.Missing, ShouldResemble, []string{"PER"})
			So(a.Predictor.Width(), ShouldEqual, 2)

			pred, err := a.Predictor.Predict([][]float64{{10, 2}})
			So(err, ShouldBeNil)
			So(pred[0], ShouldAlmostEqual, 16.1, 1e-12)
		})

		Convey("Aligning does not modify the bundle", func() {
			_, err := b.Align(table.New(0))
			So(err, ShouldBeNil)
			So(b.FeatureColumns, ShouldResemble, []string{"WS", "PER", "VORP"})
			So(m.Weights, ShouldResemble, []float64{1, 2, 3})
		})

		Convey("A bundle whose weights and columns disagree is rejected", func() {
			b.FeatureColumns = b.FeatureColumns[:2]
			_, err := b.Align(table.New(0))
			So(errors.Is(err, model.ErrInvalidBundle), ShouldBeTrue)
		})

		Convey("The model kind is persisted with the model", func() {
			raw, err := json.Marshal(b)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, `"model_kind":"ridge"`)

			var back model.Bundle
			So(json.Unmarshal(raw, &back), ShouldBeNil)
			So(back.RunID, ShouldEqual, b.RunID)
			So(back.Model, ShouldResemble, b.Model)
			So(back.FeatureColumns, ShouldResemble, b.FeatureColumns)
		})
	})

	Convey("Given a bundle holding a forest", t, func() {
		b := model.NewBundle(stump(), []string{"WS", "PER", "VORP"}, "award_share", split.Plan{}, 2023)

		Convey("It round trips as a forest", func() {
			raw, err := json.Marshal(b)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, `"model_kind":"forest"`)

			var back model.Bundle
			So(json.Unmarshal(raw, &back), ShouldBeNil)
			So(back.Model.Kind(), ShouldEqual, scoring.KindForest)
			So(back.Validate(), ShouldBeNil)
		})

		Convey("A missing split column reads as zero after alignment", func() {
			panel := table.New(1)
			panel.SetNum("WS", []float64{10})
			panel.SetNum("VORP", []float64{5})

			a, err := b.Align(panel)
			So(err, ShouldBeNil)
			So(a.Missing, ShouldResemble, []string{"PER"})
			pred, err := a.Predictor.Predict([][]float64{{10, 5}})
			So(err, ShouldBeNil)
			So(pred[0], ShouldEqual, 0.2)
		})
	})

	Convey("Given a persisted bundle with an unknown model kind", t, func() {
		var b model.Bundle
		err := json.Unmarshal([]byte(`{"model_kind":"svm","model":{},"feature_columns":[]}`), &b)
		So(errors.Is(err, model.ErrInvalidBundle), ShouldBeTrue)
		So(errors.Is(err, scoring.ErrUnknownModel), ShouldBeTrue)
	})
}
