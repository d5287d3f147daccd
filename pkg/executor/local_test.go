package executor

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

// TestLocal tests the execution of a process on the local machine.
func TestLocal(t *testing.T) {
	log.SetLevel(log.ErrorLevel)

	Convey("While using Local Executor", t, func() {
		l := NewLocal()

		Convey("When command `echo output` is executed", func() {
			handle, err := l.Execute("echo output")
			So(err, ShouldBeNil)
			defer handle.EraseOutput()

			Convey("When we wait for the task to terminate", func() {
				terminated := handle.Wait(0)
				So(terminated, ShouldBeTrue)

				Convey("The task should be terminated with exit code 0", func() {
					So(handle.Status(), ShouldEqual, TERMINATED)
					exitCode, err := handle.ExitCode()
					So(err, ShouldBeNil)
					So(exitCode, ShouldEqual, 0)
				})

				Convey("And command output should be stored in the stdout file", func() {
					stdoutFile, err := handle.StdoutFile()
					So(err, ShouldBeNil)
					defer stdoutFile.Close()

					data, err := io.ReadAll(stdoutFile)
					So(err, ShouldBeNil)
					So(strings.TrimSpace(string(data)), ShouldEqual, "output")
				})

				Convey("And EraseOutput should remove the scratch directory", func() {
					stdoutFile, err := handle.StdoutFile()
					So(err, ShouldBeNil)
					outputDir := filepath.Dir(stdoutFile.Name())
					stdoutFile.Close()

					So(handle.Clean(), ShouldBeNil)
					So(handle.EraseOutput(), ShouldBeNil)

					_, statErr := os.Stat(outputDir)
					So(os.IsNotExist(statErr), ShouldBeTrue)
				})
			})
		})

		Convey("When command which exits with code 1 is executed", func() {
			handle, err := l.Execute("exit 1")
			So(err, ShouldBeNil)
			defer handle.EraseOutput()

			handle.Wait(0)

			Convey("The exit code should equal 1", func() {
				exitCode, err := handle.ExitCode()
				So(err, ShouldBeNil)
				So(exitCode, ShouldEqual, 1)
			})
		})

		Convey("When blocking sleep command is executed", func() {
			handle, err := l.Execute("sleep 60")
			So(err, ShouldBeNil)
			defer handle.EraseOutput()

			Convey("Task should be running and the wait timeout should exceed", func() {
				So(handle.Status(), ShouldEqual, RUNNING)

				terminated := handle.Wait(10 * time.Millisecond)
				So(terminated, ShouldBeFalse)

				So(handle.Stop(), ShouldBeNil)
			})

			Convey("When we stop the task", func() {
				err := handle.Stop()
				So(err, ShouldBeNil)

				Convey("The task should be terminated by SIGTERM", func() {
					So(handle.Status(), ShouldEqual, TERMINATED)

					exitCode, err := handle.ExitCode()
					So(err, ShouldBeNil)
					// Negative exit code means termination by signal (15 is SIGTERM).
					So(exitCode, ShouldEqual, -15)
				})

				Convey("Stopping an already terminated task should not be an error", func() {
					So(handle.Stop(), ShouldBeNil)
				})
			})
		})

		Convey("When ExitCode is read on a running task, an error should be returned", func() {
			handle, err := l.Execute("sleep 60")
			So(err, ShouldBeNil)
			defer handle.EraseOutput()

			_, err = handle.ExitCode()
			So(err, ShouldNotBeNil)

			So(handle.Stop(), ShouldBeNil)
		})
	})
}

func TestStopAndEraseOutput(t *testing.T) {
	log.SetLevel(log.ErrorLevel)

	Convey("While using Local Executor", t, func() {
		l := NewLocal()

		Convey("StopAndEraseOutput should terminate the task and remove scratch files", func() {
			handle, err := l.Execute("sleep 60")
			So(err, ShouldBeNil)

			stdoutFile, err := handle.StdoutFile()
			So(err, ShouldBeNil)
			outputDir := filepath.Dir(stdoutFile.Name())
			stdoutFile.Close()

			errs := StopAndEraseOutput(handle)
			So(errs, ShouldBeEmpty)

			So(handle.Status(), ShouldEqual, TERMINATED)
			_, statErr := os.Stat(outputDir)
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})

		Convey("StopAndEraseOutput should tolerate a nil handle", func() {
			So(StopAndEraseOutput(nil), ShouldBeEmpty)
		})
	})
}
