package procmon

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultSampleInterval is the pause between two memory samples.
const DefaultSampleInterval = 500 * time.Millisecond

// Monitor samples the resident memory of a process at a fixed interval in its
// own goroutine, so that sampling overlaps the blocking load-test call.
// The sample series has exactly one producer (the sampling loop) and one
// consumer (whoever calls Samples after Stop), so no locking of the series
// is needed beyond the stop handshake.
type Monitor struct {
	interval time.Duration

	// Injection points for tests.
	alive   func() bool
	readRSS func() (float64, error)

	samples     []float64
	stopChannel chan struct{}
	doneChannel chan struct{}
	stopOnce    sync.Once
}

// NewMonitor returns a Monitor sampling the process with the given pid.
func NewMonitor(pid int, interval time.Duration) *Monitor {
	reader := NewStatusReader(pid)
	return &Monitor{
		interval:    interval,
		alive:       reader.Alive,
		readRSS:     reader.ResidentSetKB,
		stopChannel: make(chan struct{}),
		doneChannel: make(chan struct{}),
	}
}

// Start launches the sampling loop in a background goroutine.
func (m *Monitor) Start() {
	go m.samplingLoop()
}

func (m *Monitor) samplingLoop() {
	defer close(m.doneChannel)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChannel:
			return
		case <-ticker.C:
			if !m.alive() {
				log.Debug("Monitored process is gone; sampling loop ends")
				return
			}
			sample, err := m.readRSS()
			if err != nil {
				// Unreadable tick is skipped, not fatal.
				log.Debugf("Skipping memory sample: %v", err)
				continue
			}
			m.samples = append(m.samples, sample)
		}
	}
}

// Stop signals the sampling loop and waits for its exit. Stopping an already
// finished monitor is not an error.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChannel)
	})
	<-m.doneChannel
}

// Samples returns the collected resident-memory series in kilobytes.
// It must only be called after Stop returned.
func (m *Monitor) Samples() []float64 {
	return m.samples
}
