package executor

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Local provides the execution environment on the local machine via exec.Command.
// It runs the command as the current user.
type Local struct {
}

// NewLocal returns a Local instance.
func NewLocal() Local {
	return Local{}
}

// Name returns user-friendly name of the executor.
func (l Local) Name() string {
	return "Local Executor"
}

// Execute runs the command given as input.
// The returned TaskHandle is able to stop & monitor the provisioned process.
func (l Local) Execute(command string) (TaskHandle, error) {
	log.Debug("Launching ", command)

	stdoutFile, stderrFile, err := createOutputFiles(command, "local")
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create output files for command %q", command)
	}

	cmd := exec.Command("sh", "-c", command)
	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile

	// Additional process group for the command and its children gives Stop
	// the ability to kill the whole tree at once.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	err = cmd.Start()
	if err != nil {
		removeOutputDir(stdoutFile, stderrFile)
		return nil, errors.Wrapf(err, "cannot start command %q", command)
	}

	log.Debug("Started with pid ", cmd.Process.Pid)

	waitEndChannel := make(chan struct{})
	handle := &localTaskHandle{
		cmdHandler:     cmd,
		stdoutFilePath: stdoutFile.Name(),
		stderrFilePath: stderrFile.Name(),
		waitEndChannel: waitEndChannel,
	}

	// Wait for the task in a goroutine; closing waitEndChannel marks termination.
	go func() {
		defer close(waitEndChannel)

		// NOTE: Wait returns an error also on nonzero exit codes. The exit
		// status is recovered from ProcessState in ExitCode, so the error
		// itself is only logged.
		err := cmd.Wait()
		if err != nil {
			log.Debugf("Task %q terminated: %v", command, err)
		}

		stdoutFile.Close()
		stderrFile.Close()

		log.Debug(
			"Ended ", command,
			" with output in dir: ", filepath.Dir(handle.stdoutFilePath))
	}()

	return handle, nil
}

// localTaskHandle implements the TaskHandle interface.
type localTaskHandle struct {
	cmdHandler     *exec.Cmd
	stdoutFilePath string
	stderrFilePath string

	// waitEndChannel is closed by the waiter goroutine when the process ends.
	waitEndChannel chan struct{}
}

// isTerminated checks for task completion without blocking.
func (handle *localTaskHandle) isTerminated() bool {
	select {
	case <-handle.waitEndChannel:
		return true
	default:
		return false
	}
}

func (handle *localTaskHandle) pid() int {
	return handle.cmdHandler.Process.Pid
}

// Stop terminates the local task.
func (handle *localTaskHandle) Stop() error {
	if handle.isTerminated() {
		return nil
	}

	// Signal the entire process group.
	// The kill syscall interprets a negated PID N as the process group N belongs to.
	log.Debug("Sending SIGTERM to process group ", handle.pid())
	err := syscall.Kill(-handle.pid(), syscall.SIGTERM)
	if err != nil {
		if err == syscall.ESRCH {
			// Process group is already gone. Termination of an already-dead
			// target is not an error; just reap the waiter.
			handle.Wait(0)
			return nil
		}
		return errors.Wrapf(err, "cannot signal process group %d", handle.pid())
	}

	<-handle.waitEndChannel
	return nil
}

// Status returns the current state of the task.
func (handle *localTaskHandle) Status() TaskState {
	if !handle.isTerminated() {
		return RUNNING
	}
	return TERMINATED
}

// ExitCode returns the task exit code. It returns an error when the task
// is still running.
func (handle *localTaskHandle) ExitCode() (int, error) {
	if !handle.isTerminated() {
		return -1, errors.New("task is not terminated")
	}

	waitStatus := handle.cmdHandler.ProcessState.Sys().(syscall.WaitStatus)
	if waitStatus.Exited() {
		return waitStatus.ExitStatus(), nil
	}
	// Process was killed by a signal; expose it as a negative exit code.
	return -int(waitStatus.Signal()), nil
}

// StdoutFile returns a file handle to the task's stdout file.
func (handle *localTaskHandle) StdoutFile() (*os.File, error) {
	return openOutputFile(handle.stdoutFilePath)
}

// StderrFile returns a file handle to the task's stderr file.
func (handle *localTaskHandle) StderrFile() (*os.File, error) {
	return openOutputFile(handle.stderrFilePath)
}

// Wait blocks until the task terminates or the timeout elapses.
// Zero timeout means wait indefinitely. Returns true when the task is terminated.
func (handle *localTaskHandle) Wait(timeout time.Duration) bool {
	if handle.isTerminated() {
		return true
	}

	var timeoutChannel <-chan time.Time
	if timeout != 0 {
		timeoutChannel = time.After(timeout)
	}

	select {
	case <-handle.waitEndChannel:
		return true
	case <-timeoutChannel:
		return false
	}
}

// Clean closes the task's open resources.
// Output files are closed by the waiter goroutine, so there is nothing left
// to release here. Kept for TaskHandle contract symmetry.
func (handle *localTaskHandle) Clean() error {
	return nil
}

// EraseOutput removes the scratch directory with the task's stdout & stderr files.
func (handle *localTaskHandle) EraseOutput() error {
	outputDir := filepath.Dir(handle.stdoutFilePath)
	if err := os.RemoveAll(outputDir); err != nil {
		return errors.Wrapf(err, "cannot remove output directory %q", outputDir)
	}
	return nil
}

// Address returns the address where the task is running.
func (handle *localTaskHandle) Address() string {
	return "127.0.0.1"
}
