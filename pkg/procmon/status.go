package procmon

import (
	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
)

// StatusReader reads memory and thread metrics of a single process from the
// procfs status interface. Every read degrades to an error once the process
// is gone; callers translate that to not-available values, never to a failed
// run.
type StatusReader struct {
	pid int
}

// NewStatusReader is a constructor for StatusReader.
func NewStatusReader(pid int) StatusReader {
	return StatusReader{pid: pid}
}

// Alive reports whether the process still has a procfs entry.
func (r StatusReader) Alive() bool {
	_, err := procfs.NewProc(r.pid)
	return err == nil
}

// ResidentSetKB returns the current resident set size in kilobytes.
func (r StatusReader) ResidentSetKB() (float64, error) {
	status, err := r.status()
	if err != nil {
		return 0, err
	}
	return float64(status.VmRSS) / 1024, nil
}

// HighWaterMarkKB returns the peak resident set size in kilobytes, as tracked
// by the kernel over the whole process lifetime.
func (r StatusReader) HighWaterMarkKB() (float64, error) {
	status, err := r.status()
	if err != nil {
		return 0, err
	}
	return float64(status.VmHWM) / 1024, nil
}

// ThreadCount returns the number of threads in the process.
func (r StatusReader) ThreadCount() (int, error) {
	proc, err := procfs.NewProc(r.pid)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot access process %d", r.pid)
	}
	stat, err := proc.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "cannot read stat of process %d", r.pid)
	}
	return stat.NumThreads, nil
}

func (r StatusReader) status() (procfs.ProcStatus, error) {
	proc, err := procfs.NewProc(r.pid)
	if err != nil {
		return procfs.ProcStatus{}, errors.Wrapf(err, "cannot access process %d", r.pid)
	}
	status, err := proc.NewStatus()
	if err != nil {
		return procfs.ProcStatus{}, errors.Wrapf(err, "cannot read status of process %d", r.pid)
	}
	return status, nil
}
