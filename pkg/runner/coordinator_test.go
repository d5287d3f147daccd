package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/Albrrak773/fastapi-async-test/pkg/executor"
	"github.com/Albrrak773/fastapi-async-test/pkg/executor/mocks"
	"github.com/Albrrak773/fastapi-async-test/pkg/loadgen"
	"github.com/Albrrak773/fastapi-async-test/pkg/procmon"
	"github.com/Albrrak773/fastapi-async-test/pkg/server"
)

type fakeLauncher struct {
	handle executor.TaskHandle
	err    error
}

func (f fakeLauncher) Launch() (executor.TaskHandle, error) { return f.handle, f.err }
func (f fakeLauncher) Name() string                         { return "fake server" }

type fakeProber struct {
	ready bool
	log   *[]string
}

func (f fakeProber) WaitUntilReady(url string) (bool, int) {
	*f.log = append(*f.log, "probe")
	return f.ready, 1
}

type fakeLoad struct {
	report loadgen.Report
	err    error
	log    *[]string
}

func (f fakeLoad) Run(url string) (loadgen.Report, error) {
	*f.log = append(*f.log, "load")
	return f.report, f.err
}

type fakeMonitor struct {
	samples []float64
	stopped bool
	log     *[]string
}

func (f *fakeMonitor) Start() { *f.log = append(*f.log, "monitor start") }
func (f *fakeMonitor) Stop() {
	f.stopped = true
	*f.log = append(*f.log, "monitor stop")
}
func (f *fakeMonitor) Samples() []float64 { return f.samples }

func newServerHandleMock(t *testing.T) *mocks.TaskHandle {
	t.Helper()
	dir := t.TempDir()
	stdoutPath := filepath.Join(dir, "stdout")
	stderrPath := filepath.Join(dir, "stderr")
	os.WriteFile(stdoutPath, []byte(""), 0644)
	os.WriteFile(stderrPath, []byte("INFO: Started server process [4242]\n"), 0644)

	handle := new(mocks.TaskHandle)
	handle.On("StdoutFile").Return(func() *os.File {
		file, _ := os.Open(stdoutPath)
		return file
	}, nil)
	handle.On("StderrFile").Return(func() *os.File {
		file, _ := os.Open(stderrPath)
		return file
	}, nil)
	return handle
}

func TestCoordinator(t *testing.T) {
	log.SetLevel(log.ErrorLevel)

	request := Request{
		ScriptPath:  "app/main.py",
		Host:        "http://localhost:8000",
		Endpoint:    "/",
		Requests:    200,
		Concurrency: 50,
	}

	newCoordinator := func(handle executor.TaskHandle, loadErr error, events *[]string) (*Coordinator, *fakeMonitor) {
		monitor := &fakeMonitor{samples: []float64{100, 200, 300}, log: events}

		loadReport := loadgen.Report{RequestsPerSec: loadgen.AvailableField("123.45")}
		coordinator := New(
			request,
			fakeLauncher{handle: handle},
			fakeProber{ready: true, log: events},
			fakeLoad{report: loadReport, err: loadErr, log: events},
		)
		coordinator.newMonitor = func(pid int) MemoryMonitor {
			*events = append(*events, "monitor created")
			return monitor
		}
		coordinator.finalStatus = func(pid int) (procmon.Metric, procmon.Count) {
			*events = append(*events, "final status")
			return procmon.AvailableMetric(450), procmon.Count{Value: 5, OK: true}
		}
		return coordinator, monitor
	}

	Convey("While coordinating a benchmark run", t, func() {
		events := []string{}

		Convey("On the success path", func() {
			handle := newServerHandleMock(t)
			handle.On("Stop").Return(nil).Once()
			handle.On("Clean").Return(nil).Once()
			handle.On("EraseOutput").Return(nil).Once()

			coordinator, monitor := newCoordinator(handle, nil, &events)

			summary, err := coordinator.Run()
			So(err, ShouldBeNil)
			So(coordinator.State(), ShouldEqual, Done)

			Convey("The summary should carry load, memory and thread results", func() {
				So(summary.Load.RequestsPerSec.Value, ShouldEqual, "123.45")
				So(summary.Memory.AverageKB.Value, ShouldEqual, 200)
				So(summary.Memory.PeakKB.Value, ShouldEqual, 450)
				So(summary.Threads.Value, ShouldEqual, 5)
				So(summary.Target.URL, ShouldEqual, "http://localhost:8000/")
			})

			Convey("Monitoring should start before the load and stop in teardown", func() {
				So(events, ShouldResemble, []string{
					"probe", "monitor created", "monitor start", "load",
					"monitor stop", "final status",
				})
				So(monitor.stopped, ShouldBeTrue)
			})

			Convey("The server process and scratch files should be released exactly once", func() {
				handle.AssertExpectations(t)
			})
		})

		Convey("When PID discovery fails", func() {
			dir := t.TempDir()
			stdoutPath := filepath.Join(dir, "stdout")
			os.WriteFile(stdoutPath, []byte("no marker here\n"), 0644)

			handle := new(mocks.TaskHandle)
			handle.On("StdoutFile").Return(func() *os.File {
				file, _ := os.Open(stdoutPath)
				return file
			}, nil)
			handle.On("StderrFile").Return(nil, errors.New("no stderr file"))
			handle.On("Status").Return(executor.RUNNING)
			handle.On("Stop").Return(nil).Once()
			handle.On("Clean").Return(nil).Once()
			handle.On("EraseOutput").Return(nil).Once()

			coordinator, _ := newCoordinator(handle, nil, &events)
			coordinator.discoverPID = func(logPaths []string) (int, error) {
				return 0, server.ErrProcessDiscovery
			}

			_, err := coordinator.Run()
			So(errors.Cause(err), ShouldEqual, server.ErrProcessDiscovery)
			So(coordinator.State(), ShouldEqual, Failed)

			Convey("No probing, monitoring or load should have happened", func() {
				So(events, ShouldBeEmpty)
			})

			Convey("The teardown barrier should still have run", func() {
				handle.AssertExpectations(t)
			})
		})

		Convey("When the load tool fails", func() {
			handle := newServerHandleMock(t)
			handle.On("Stop").Return(nil).Once()
			handle.On("Clean").Return(nil).Once()
			handle.On("EraseOutput").Return(nil).Once()

			coordinator, monitor := newCoordinator(handle, loadgen.ErrLoadTool, &events)

			_, err := coordinator.Run()
			So(err, ShouldNotBeNil)
			So(errors.Cause(err), ShouldEqual, loadgen.ErrLoadTool)
			So(coordinator.State(), ShouldEqual, Failed)

			Convey("The monitor and the server should still be torn down", func() {
				So(monitor.stopped, ShouldBeTrue)
				handle.AssertExpectations(t)
			})
		})

		Convey("When the server fails to launch", func() {
			coordinator := New(
				request,
				fakeLauncher{err: errors.New("cannot start command")},
				fakeProber{ready: true, log: &events},
				fakeLoad{log: &events},
			)

			_, err := coordinator.Run()
			So(err, ShouldNotBeNil)
			So(coordinator.State(), ShouldEqual, Failed)
			So(events, ShouldBeEmpty)
		})

		Convey("The default PID discovery should find the pid in the server log", func() {
			handle := newServerHandleMock(t)
			handle.On("Stop").Return(nil)
			handle.On("Clean").Return(nil)
			handle.On("EraseOutput").Return(nil)

			coordinator, _ := newCoordinator(handle, nil, &events)
			discoveredPID := 0
			defaultDiscover := coordinator.discoverPID
			coordinator.discoverPID = func(logPaths []string) (int, error) {
				pid, err := defaultDiscover(logPaths)
				discoveredPID = pid
				return pid, err
			}

			_, err := coordinator.Run()
			So(err, ShouldBeNil)
			So(discoveredPID, ShouldEqual, 4242)
		})
	})
}
