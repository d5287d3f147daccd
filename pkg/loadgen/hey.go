package loadgen

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Albrrak773/fastapi-async-test/pkg/conf"
	"github.com/Albrrak773/fastapi-async-test/pkg/executor"
)

const name = "hey"

var loadToolPathFlag = conf.NewStringFlag(
	"load_tool",
	"Path to the hey load generator binary",
	name,
)

// ErrLoadTool indicates that the load generator exited with a failure status.
// This is fatal for the run; its captured output is surfaced for diagnosis.
var ErrLoadTool = errors.New("load generator failed")

// Config contains all data for one load-test invocation.
type Config struct {
	Path        string
	Requests    int
	Concurrency int
}

// DefaultConfig is a constructor for Config with the binary path taken from
// configuration. Request and concurrency values come from the benchmark
// request.
func DefaultConfig() Config {
	return Config{
		Path: loadToolPathFlag.Value(),
	}
}

// Hey drives the external HTTP load generator and parses its report.
type Hey struct {
	exec executor.Executor
	conf Config
}

// New is a constructor for the Hey load driver.
func New(exec executor.Executor, config Config) Hey {
	return Hey{
		exec: exec,
		conf: config,
	}
}

func (h Hey) buildCommand(url string) string {
	return fmt.Sprintf("%s -n %d -c %d %s",
		h.conf.Path,
		h.conf.Requests,
		h.conf.Concurrency,
		url,
	)
}

// Name returns human readable name of the load driver.
func (h Hey) Name() string {
	return name
}

// Run invokes the load generator synchronously against the given url and
// parses its textual report. The tool's scratch output files are removed
// before returning, on the failure paths too.
func (h Hey) Run(url string) (Report, error) {
	command := h.buildCommand(url)

	handle, err := h.exec.Execute(command)
	if err != nil {
		return Report{}, errors.Wrapf(err, "executing load command %q failed", command)
	}
	defer func() {
		handle.Clean()
		handle.EraseOutput()
	}()

	log.Debug("Waiting for the load test to finish")
	handle.Wait(0)

	exitCode, err := handle.ExitCode()
	if err != nil {
		return Report{}, errors.Wrapf(err, "cannot read exit code of %q", command)
	}
	if exitCode != 0 {
		executor.LogUnsuccessfulExecution(command, h.exec.Name(), handle)
		return Report{}, errors.Wrapf(ErrLoadTool, "%q exited with code %d", command, exitCode)
	}

	stdoutFile, err := handle.StdoutFile()
	if err != nil {
		return Report{}, errors.Wrapf(err, "cannot open output of %q", command)
	}
	defer stdoutFile.Close()

	return ParseReport(stdoutFile)
}
