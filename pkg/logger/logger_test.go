package logger_test

import (
	"context"
	"testing"

	"github.com/hirestorm/matchd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an uninitialized logger package", t, func() {
		Convey("When Init is called with console format", func() {
			err := logger.Init("console")

			Convey("Then the global logger is usable", func() {
				So(err, ShouldBeNil)
				So(func() { logger.Get() }, ShouldNotPanic)
				logger.Get().Info(context.Background(), "hello", logger.String("k", "v"))
			})
		})

		Convey("When Init is called with json format", func() {
			err := logger.Init("json")

			Convey("Then named sub-loggers can be created", func() {
				So(err, ShouldBeNil)
				named := logger.Named("ranker")
				So(named, ShouldNotBeNil)
				named.Debug(context.Background(), "debug line", logger.Int("n", 3))
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(logger.Init("console"), ShouldBeNil)

		Convey("When valid levels are set", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", ""} {
				So(logger.SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("When an unknown level is set", func() {
			err := logger.SetLevelString("verbose")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
