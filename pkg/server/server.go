package server

import (
	"fmt"

	"github.com/Albrrak773/fastapi-async-test/pkg/conf"
	"github.com/Albrrak773/fastapi-async-test/pkg/executor"
)

const name = "ASGI server"

var runtimePathFlag = conf.NewStringFlag(
	"runtime",
	"Path to the script runtime used to launch the server",
	"python3",
)

// Config contains all data needed for launching the benchmarked server script.
type Config struct {
	RuntimePath string
	ScriptPath  string
}

// DefaultConfig is a constructor for Config with the runtime taken from
// configuration.
func DefaultConfig() Config {
	return Config{
		RuntimePath: runtimePathFlag.Value(),
	}
}

// Launcher starts the web-server script under the configured runtime.
// The server's stdout & stderr land in the executor scratch files, which the
// PID discovery then watches for the startup marker line.
type Launcher struct {
	exec executor.Executor
	conf Config
}

// New is a constructor for the server Launcher.
func New(exec executor.Executor, config Config) Launcher {
	return Launcher{
		exec: exec,
		conf: config,
	}
}

func (l Launcher) buildCommand() string {
	return fmt.Sprintf("%s %s", l.conf.RuntimePath, l.conf.ScriptPath)
}

// Launch starts the server process in the background. It returns a handle to
// the process; readiness of the application is not awaited here.
func (l Launcher) Launch() (executor.TaskHandle, error) {
	return l.exec.Execute(l.buildCommand())
}

// Name returns human readable name of the job.
func (l Launcher) Name() string {
	return name
}
