package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Albrrak773/fastapi-async-test/pkg/conf"
	"github.com/Albrrak773/fastapi-async-test/pkg/executor"
	"github.com/Albrrak773/fastapi-async-test/pkg/loadgen"
	"github.com/Albrrak773/fastapi-async-test/pkg/readiness"
	"github.com/Albrrak773/fastapi-async-test/pkg/report"
	"github.com/Albrrak773/fastapi-async-test/pkg/runner"
	"github.com/Albrrak773/fastapi-async-test/pkg/server"
	"github.com/Albrrak773/fastapi-async-test/pkg/utils/errutil"
)

var (
	hostFlag = conf.NewStringFlag(
		"host",
		"Address of the server under test. Defaults to http://localhost with the default port; a loopback host needs an explicit port.",
		"").Short('h')
	portFlag = conf.NewIntFlag(
		"port",
		"Port the server listens on, appended to the host when it carries none.",
		0).Short('p')
	requestsFlag = conf.NewIntFlag(
		"requests",
		"Number of requests to perform",
		200).Short('n')
	concurrencyFlag = conf.NewIntFlag(
		"concurrency",
		"Number of requests to run concurrently. Cannot exceed the request count.",
		50).Short('c')

	scriptArg   = conf.NewStringArg("script", "Path to the web-server script to benchmark")
	endpointArg = conf.NewStringArg("endpoint", "Endpoint to drive load against (default /)")
)

func main() {
	conf.SetAppName("asgibench")
	conf.SetHelp(`asgibench starts a local web-server script, waits for it to become ready,
drives HTTP load against it with an external load generator while sampling the
server's resident memory, and prints one summary report.`)
	errutil.Check(conf.ParseFlags())
	logrus.SetLevel(conf.LogLevel())

	request, err := runner.NewRequest(
		scriptArg.Value(),
		hostFlag.Value(),
		portFlag.Value(),
		endpointArg.Value(),
		requestsFlag.Value(),
		concurrencyFlag.Value(),
	)
	errutil.CheckWithContext(err, "invalid benchmark parameters")

	local := executor.NewLocal()

	serverConfig := server.DefaultConfig()
	serverConfig.ScriptPath = request.ScriptPath
	serverLauncher := server.New(local, serverConfig)

	loadConfig := loadgen.DefaultConfig()
	loadConfig.Requests = request.Requests
	loadConfig.Concurrency = request.Concurrency
	loadDriver := loadgen.New(local, loadConfig)

	coordinator := runner.New(request, serverLauncher, readiness.NewProber(), loadDriver)

	summary, err := coordinator.Run()
	errutil.Check(err)

	report.Render(os.Stdout, summary)
}
