package executor

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

func getBinaryNameFromCommand(command string) (string, error) {
	nameSplit := strings.Split(strings.TrimSpace(command), " ")
	if len(nameSplit) == 0 || nameSplit[0] == "" {
		return "", errors.Errorf("cannot extract binary name from command %q", command)
	}
	return path.Base(nameSplit[0]), nil
}

// createOutputFiles creates a scratch directory in the working directory with
// stdout & stderr files for one task execution.
func createOutputFiles(command, prefix string) (stdout, stderr *os.File, err error) {
	if len(command) == 0 {
		return nil, nil, errors.New("empty command string")
	}

	commandName, err := getBinaryNameFromCommand(command)
	if err != nil {
		return nil, nil, err
	}

	pwd, err := os.Getwd()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot get working directory")
	}

	outputDir, err := os.MkdirTemp(pwd, prefix+"_"+commandName+"_")
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cannot create output directory for %q", commandName)
	}

	stdoutFileName := filepath.Join(outputDir, "stdout")
	stdout, err = os.Create(stdoutFileName)
	if err != nil {
		os.RemoveAll(outputDir)
		return nil, nil, errors.Wrapf(err, "cannot create %q", stdoutFileName)
	}

	stderrFileName := filepath.Join(outputDir, "stderr")
	stderr, err = os.Create(stderrFileName)
	if err != nil {
		stdout.Close()
		os.RemoveAll(outputDir)
		return nil, nil, errors.Wrapf(err, "cannot create %q", stderrFileName)
	}

	return stdout, stderr, nil
}

// removeOutputDir closes given output files and removes the directory holding them.
// Used when a task failed to start and leaves no handle behind.
func removeOutputDir(stdout, stderr *os.File) {
	stdout.Close()
	stderr.Close()
	os.RemoveAll(filepath.Dir(stdout.Name()))
}

func openOutputFile(filePath string) (*os.File, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open output file %q", filePath)
	}
	return file, nil
}
