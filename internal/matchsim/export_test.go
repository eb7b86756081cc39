package matchsim_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/matchsim"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExport(t *testing.T) {
	Convey("Given a recorded match", t, func() {
		tl, err := matchsim.New(matchsim.WithSeed(11)).Run(context.Background(), fixedRecorder())
		So(err, ShouldBeNil)

		Convey("When exported without timelines", func() {
			var buf bytes.Buffer
			So(matchsim.Export(&buf, []*model.Timeline{tl}, false), ShouldBeNil)

			var got []map[string]any
			So(json.Unmarshal(buf.Bytes(), &got), ShouldBeNil)

			Convey("Then each record carries the recap fields only", func() {
				So(got, ShouldHaveLength, 1)
				So(got[0]["id"], ShouldEqual, "sim-1")
				So(got[0]["mvpName"], ShouldEqual, tl.Summary.MVP.Name)
				So(got[0]["totalKills"], ShouldEqual, float64(tl.Summary.TotalKills))
				So(got[0], ShouldNotContainKey, "timeline")
			})
		})

		Convey("When exported to a nested file with timelines", func() {
			path := filepath.Join(t.TempDir(), "out", "replays.json")
			So(matchsim.ExportFile(path, []*model.Timeline{tl}, true), ShouldBeNil)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			var got []matchsim.ExportRecord
			So(json.Unmarshal(data, &got), ShouldBeNil)

			Convey("Then the full timeline round trips", func() {
				So(got, ShouldHaveLength, 1)
				So(got[0].Timeline, ShouldNotBeNil)
				So(got[0].Timeline.Frames, ShouldHaveLength, len(tl.Frames))
				So(got[0].MVPTokens, ShouldEqual, tl.Summary.MVP.Tokens)
			})
		})
	})

	Convey("Given no matches", t, func() {
		var buf bytes.Buffer
		So(matchsim.Export(&buf, nil, false), ShouldBeNil)
		So(buf.String(), ShouldEqual, "[]\n")
	})
}
