package executor

import (
	"os"
	"time"
)

// TaskState is an enum presenting current task state.
type TaskState int

const (
	// RUNNING task state means that task is still running.
	RUNNING TaskState = iota
	// TERMINATED task state means that task completed or was stopped.
	TERMINATED
)

// TaskHandle represents a process which can be stopped or monitored.
type TaskHandle interface {
	// Stop terminates the task. Stopping an already terminated task is not an error.
	Stop() error
	// Status returns the current state of the task.
	Status() TaskState
	// ExitCode returns the task exit code. It returns an error when the task
	// is still running.
	ExitCode() (int, error)
	// StdoutFile returns a file handle to the task's stdout file.
	StdoutFile() (*os.File, error)
	// StderrFile returns a file handle to the task's stderr file.
	StderrFile() (*os.File, error)
	// Wait blocks until the task terminates or the timeout elapses.
	// Zero timeout means wait indefinitely. Returns true when the task is terminated.
	Wait(timeout time.Duration) bool
	// Clean closes the task's open resources.
	Clean() error
	// EraseOutput removes the task's scratch output directory.
	EraseOutput() error
	// Address returns the address where the task is running.
	Address() string
}

// StopAndEraseOutput is a helper for the common teardown sequence.
// Errors are collected, not short-circuited, so that a failed Stop does not
// leave scratch files behind.
func StopAndEraseOutput(handle TaskHandle) (errs []error) {
	if handle == nil {
		return errs
	}
	if err := handle.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := handle.Clean(); err != nil {
		errs = append(errs, err)
	}
	if err := handle.EraseOutput(); err != nil {
		errs = append(errs, err)
	}
	return errs
}
