package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSynthSeasonsCommand(t *testing.T) {
	convey.Convey("Given the synth-seasons command", t, func() {
		dir := t.TempDir()
		run := func(args ...string) error {
			cmd := newCmd()
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs(args)
			return cmd.ExecuteContext(context.Background())
		}

		convey.Convey("When writing a range of seasons", func() {
			err := run("--dir", dir, "--from", "2024", "--to", "2026", "--last-voting", "2025")

			convey.Convey("Then each season gets its tables and only past seasons get votes", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, y := range []string{"2024", "2025", "2026"} {
					_, statErr := os.Stat(filepath.Join(dir, y, "players_totals.csv"))
					convey.So(statErr, convey.ShouldBeNil)
				}
				_, statErr := os.Stat(filepath.Join(dir, "2025", "mvp_voting.csv"))
				convey.So(statErr, convey.ShouldBeNil)
				_, statErr = os.Stat(filepath.Join(dir, "2026", "mvp_voting.csv"))
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the range is inverted", func() {
			err := run("--dir", dir, "--from", "2026", "--to", "2020")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the pool is too small for a voting table", func() {
			err := run("--dir", dir, "--players", "3")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
