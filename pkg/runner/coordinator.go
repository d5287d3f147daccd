package runner

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Albrrak773/fastapi-async-test/pkg/executor"
	"github.com/Albrrak773/fastapi-async-test/pkg/loadgen"
	"github.com/Albrrak773/fastapi-async-test/pkg/procmon"
	"github.com/Albrrak773/fastapi-async-test/pkg/report"
	"github.com/Albrrak773/fastapi-async-test/pkg/server"
	"github.com/Albrrak773/fastapi-async-test/pkg/utils/errcollection"
)

// State is the lifecycle phase of one benchmark run.
type State int

const (
	// Idle means the run has not started yet.
	Idle State = iota
	// ServerStarting means the server process is being launched.
	ServerStarting
	// PidDiscovering means the server log is being scanned for the pid.
	PidDiscovering
	// AwaitingReadiness means the endpoint is being probed.
	AwaitingReadiness
	// Benchmarking means the load test runs with memory sampling alongside.
	Benchmarking
	// TearingDown means spawned processes and scratch files are being removed.
	TearingDown
	// Done means the run finished and the summary is complete.
	Done
	// Failed means the run was aborted by a fatal error.
	Failed
)

var stateNames = map[State]string{
	Idle:              "Idle",
	ServerStarting:    "ServerStarting",
	PidDiscovering:    "PidDiscovering",
	AwaitingReadiness: "AwaitingReadiness",
	Benchmarking:      "Benchmarking",
	TearingDown:       "TearingDown",
	Done:              "Done",
	Failed:            "Failed",
}

func (s State) String() string {
	return stateNames[s]
}

// ServerLauncher starts the benchmarked server process.
type ServerLauncher interface {
	Launch() (executor.TaskHandle, error)
	Name() string
}

// LoadDriver drives the load test against the ready endpoint.
type LoadDriver interface {
	Run(url string) (loadgen.Report, error)
}

// ReadinessProber reports when the endpoint answers requests.
type ReadinessProber interface {
	WaitUntilReady(url string) (ready bool, probes int)
}

// MemoryMonitor samples resident memory of the server concurrently with the
// load test.
type MemoryMonitor interface {
	Start()
	Stop()
	Samples() []float64
}

// Coordinator owns the benchmark lifecycle: it starts the server, discovers
// its pid from logs, waits for readiness, samples memory while the load test
// runs and reconciles all results into one summary. Cleanup of the spawned
// processes and scratch files is guaranteed on every exit path.
type Coordinator struct {
	request Request
	server  ServerLauncher
	prober  ReadinessProber
	load    LoadDriver

	// Injection points for tests.
	discoverPID func(logPaths []string) (int, error)
	newMonitor  func(pid int) MemoryMonitor
	finalStatus func(pid int) (peakKB procmon.Metric, threads procmon.Count)

	state        State
	serverHandle executor.TaskHandle
	serverPID    int
	monitor      MemoryMonitor
	loadReport   loadgen.Report
	peakKB       procmon.Metric
	threads      procmon.Count
}

// New is a constructor for the Coordinator.
func New(request Request, serverLauncher ServerLauncher, prober ReadinessProber, load LoadDriver) *Coordinator {
	return &Coordinator{
		request: request,
		server:  serverLauncher,
		prober:  prober,
		load:    load,

		discoverPID: func(logPaths []string) (int, error) {
			return server.DiscoverPID(logPaths, server.DiscoveryInterval, server.DiscoveryAttempts)
		},
		newMonitor: func(pid int) MemoryMonitor {
			return procmon.NewMonitor(pid, procmon.DefaultSampleInterval)
		},
		finalStatus: func(pid int) (procmon.Metric, procmon.Count) {
			reader := procmon.NewStatusReader(pid)
			return procmon.MetricFromRead(reader.HighWaterMarkKB()),
				procmon.CountFromRead(reader.ThreadCount())
		},

		state: Idle,
	}
}

// State returns the current lifecycle phase.
func (c *Coordinator) State() State {
	return c.state
}

// Run executes the whole benchmark and returns its summary.
// The teardown barrier executes exactly once, on the success path and on
// every fatal path alike.
func (c *Coordinator) Run() (report.Summary, error) {
	err := c.benchmark()

	c.setState(TearingDown)
	c.teardown()

	if err != nil {
		c.setState(Failed)
		return report.Summary{}, err
	}

	c.setState(Done)
	return c.summarize(), nil
}

func (c *Coordinator) setState(state State) {
	log.Debugf("Benchmark state: %s -> %s", c.state, state)
	c.state = state
}

func (c *Coordinator) benchmark() error {
	c.setState(ServerStarting)
	handle, err := c.server.Launch()
	if err != nil {
		return errors.Wrapf(err, "cannot start %s", c.server.Name())
	}
	c.serverHandle = handle

	c.setState(PidDiscovering)
	pid, err := c.discoverPID(outputPaths(handle))
	if err != nil {
		if handle.Status() == executor.TERMINATED {
			// The script most likely crashed on startup; surface its output.
			executor.LogUnsuccessfulExecution(c.server.Name(), "local", handle)
		}
		return err
	}
	c.serverPID = pid
	log.Debugf("Discovered server process id %d", pid)

	c.setState(AwaitingReadiness)
	ready, probes := c.prober.WaitUntilReady(c.request.URL())
	if ready {
		log.Debugf("Endpoint %q ready after %d probes", c.request.URL(), probes)
	}

	c.setState(Benchmarking)
	c.monitor = c.newMonitor(pid)
	c.monitor.Start()

	loadReport, err := c.load.Run(c.request.URL())
	if err != nil {
		return errors.Wrap(err, "load test failed")
	}
	c.loadReport = loadReport

	return nil
}

// teardown is the invariant cleanup barrier: stop the sampling loop, snapshot
// the final process status, terminate the server process group and remove all
// scratch files. Individual failures are collected and logged, never masked
// by one another, and an already-dead target is not an error.
func (c *Coordinator) teardown() {
	var errs errcollection.ErrorCollection

	if c.monitor != nil {
		c.monitor.Stop()
	}

	// The status snapshot must happen while the server still has a procfs
	// entry; after the SIGTERM below it is gone.
	if c.serverPID != 0 {
		c.peakKB, c.threads = c.finalStatus(c.serverPID)
	}

	errs.AddAll(executor.StopAndEraseOutput(c.serverHandle))

	if err := errs.GetErrIfAny(); err != nil {
		log.Errorf("Teardown finished with errors: %v", err)
	}
}

func (c *Coordinator) summarize() report.Summary {
	var samples []float64
	if c.monitor != nil {
		samples = c.monitor.Samples()
	}

	return report.Summary{
		Target: report.Target{
			ScriptPath:  c.request.ScriptPath,
			URL:         c.request.URL(),
			Requests:    c.request.Requests,
			Concurrency: c.request.Concurrency,
		},
		Load:    c.loadReport,
		Memory:  procmon.Aggregate(samples, c.peakKB),
		Threads: c.threads,
	}
}

// outputPaths lists the scratch log files of a task. The server runtime may
// log its startup lines to either stream, so both are watched.
func outputPaths(handle executor.TaskHandle) []string {
	paths := []string{}
	if file, err := handle.StdoutFile(); err == nil {
		paths = append(paths, file.Name())
		file.Close()
	}
	if file, err := handle.StderrFile(); err == nil {
		paths = append(paths, file.Name())
		file.Close()
	}
	return paths
}
