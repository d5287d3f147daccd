package conf

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestConf(t *testing.T) {
	Convey("While using conf package", t, func() {
		Convey("App name should be settable", func() {
			SetAppName("example-name")
			So(AppName(), ShouldEqual, "example-name")
		})

		Convey("Default log level should be info", func() {
			So(LogLevel(), ShouldEqual, logrus.InfoLevel)
		})
	})
}

func TestFlags(t *testing.T) {
	Convey("While using conf flags", t, func() {
		Convey("When a string flag is defined", func() {
			stringFlag := NewStringFlag("test_string_flag", "test String flag", "default")
			defer stringFlag.clear()

			Convey("Without parse, the default value should be returned", func() {
				So(stringFlag.Value(), ShouldEqual, "default")
			})

			Convey("When the corresponding env variable is set", func() {
				So(stringFlag.envName(), ShouldEqual, "ASGIBENCH_TEST_STRING_FLAG")
				os.Setenv(stringFlag.envName(), "overridden")

				Convey("After parse, the value from env should be returned", func() {
					err := ParseEnv()
					So(err, ShouldBeNil)
					So(stringFlag.Value(), ShouldEqual, "overridden")
				})
			})

			Convey("Redefining the flag with the same type and default should return the registered one", func() {
				redefined := NewStringFlag("test_string_flag", "duplicate", "default")
				So(redefined, ShouldEqual, stringFlag)
			})

			Convey("Redefining the flag with a different default should panic", func() {
				So(func() {
					NewStringFlag("test_string_flag", "duplicate", "other")
				}, ShouldPanic)
			})
		})

		Convey("When an int flag is defined", func() {
			intFlag := NewIntFlag("test_int_flag", "test Int flag", 42)
			defer intFlag.clear()

			Convey("Without parse, the default value should be returned", func() {
				So(intFlag.Value(), ShouldEqual, 42)
			})

			Convey("When the corresponding env variable is set", func() {
				os.Setenv(intFlag.envName(), "13")

				Convey("After parse, the value from env should be returned", func() {
					err := ParseEnv()
					So(err, ShouldBeNil)
					So(intFlag.Value(), ShouldEqual, 13)
				})
			})
		})
	})
}
