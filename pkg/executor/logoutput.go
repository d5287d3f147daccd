package executor

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// outputTailLines is the number of lines printed from stderr & stdout when a
// task terminated unsuccessfully.
const outputTailLines = 5

// LogUnsuccessfulExecution logs the tails of stdout & stderr of a failed task.
// Used for diagnosis when an external tool exits with an error; the captured
// output is surfaced verbatim.
func LogUnsuccessfulExecution(whatWasExecuted string, executorName string, handle TaskHandle) {
	logrus.Errorf("Command %q failed on %q", whatWasExecuted, executorName)

	logFileTail := func(streamName string, open func() (*os.File, error)) {
		file, err := open()
		if err != nil {
			logrus.Errorf("Cannot retrieve %s file: %v", streamName, err)
			return
		}
		defer file.Close()

		tail, err := readTail(file.Name(), outputTailLines)
		if err != nil {
			logrus.Errorf("Cannot read tail of %s file %q: %v", streamName, file.Name(), err)
			return
		}

		logrus.Errorf("Last %d lines of %s (%s):", outputTailLines, streamName, file.Name())
		for _, line := range strings.Split(tail, "\n") {
			logrus.Error(line)
		}
	}

	logFileTail("stdout", handle.StdoutFile)
	logFileTail("stderr", handle.StderrFile)

	exitCode, err := handle.ExitCode()
	if err != nil {
		logrus.Errorf("Cannot read exit code: %v", err)
	} else {
		logrus.Errorf("Exit code: %d", exitCode)
	}
}

// readTail returns up to lineCount last lines of a file.
func readTail(filePath string, lineCount int) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read %q", filePath)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > lineCount {
		lines = lines[len(lines)-lineCount:]
	}
	return strings.Join(lines, "\n"), nil
}
