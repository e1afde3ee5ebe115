package model_test

import (
	"testing"

	"github.com/hirestorm/matchd/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseLevel(t *testing.T) {
	Convey("Given free-form level strings", t, func() {
		Convey("Then they normalize to the three-level scale", func() {
			So(model.ParseLevel("Senior"), ShouldEqual, model.LevelSenior)
			So(model.ParseLevel("lead"), ShouldEqual, model.LevelSenior)
			So(model.ParseLevel("intermediate"), ShouldEqual, model.LevelMid)
			So(model.ParseLevel("mid"), ShouldEqual, model.LevelMid)
			So(model.ParseLevel("entry"), ShouldEqual, model.LevelEntry)
			So(model.ParseLevel(""), ShouldEqual, model.LevelEntry)
			So(model.ParseLevel("fresher"), ShouldEqual, model.LevelEntry)
		})

		Convey("And numeric ranks are ordered", func() {
			So(model.LevelEntry.Numeric(), ShouldEqual, 1)
			So(model.LevelMid.Numeric(), ShouldEqual, 2)
			So(model.LevelSenior.Numeric(), ShouldEqual, 3)
			So(model.ExperienceLevel("unknown").Numeric(), ShouldEqual, 1)
		})
	})
}

func TestNormalizeSkills(t *testing.T) {
	Convey("Given a raw skill list with noise", t, func() {
		raw := []string{" Python ", "python", "Django", "", "  ", "DOCKER", "django"}

		Convey("When normalized", func() {
			got := model.NormalizeSkills(raw)

			Convey("Then it is lowercased, trimmed and de-duplicated in order", func() {
				So(got, ShouldResemble, []string{"python", "django", "docker"})
			})
		})
	})

	Convey("Given an empty list", t, func() {
		So(model.NormalizeSkills(nil), ShouldBeEmpty)
	})
}

func TestUserRejected(t *testing.T) {
	Convey("Given a user with rejection history", t, func() {
		u := model.User{ID: "u1", RejectionHistory: []string{"job-9", "job-3"}}

		Convey("Then membership checks work", func() {
			So(u.Rejected("job-9"), ShouldBeTrue)
			So(u.Rejected("job-1"), ShouldBeFalse)
		})
	})
}
