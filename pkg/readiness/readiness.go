package readiness

import (
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultInterval is the pause between two probes.
	DefaultInterval = 100 * time.Millisecond
	// DefaultAttempts bounds the probing; with the default interval the
	// prober gives up after ~10 seconds.
	DefaultAttempts = 100
	// DefaultSettleDelay is slept before proceeding when the budget is
	// exhausted, to give the server one last moment to come up.
	DefaultSettleDelay = time.Second

	probeTimeout = time.Second
)

// Prober determines when a freshly started server accepts application-level
// requests at the target endpoint, which is distinct from the OS having
// merely started the process.
type Prober struct {
	Interval    time.Duration
	Attempts    int
	SettleDelay time.Duration

	client *resty.Client
}

// NewProber returns a Prober with default timing.
func NewProber() *Prober {
	client := resty.New()
	client.SetTimeout(probeTimeout)

	return &Prober{
		Interval:    DefaultInterval,
		Attempts:    DefaultAttempts,
		SettleDelay: DefaultSettleDelay,
		client:      client,
	}
}

// WaitUntilReady polls the url until it answers with a success status.
// It returns true and the number of probes performed once the endpoint is
// ready. An exhausted budget is a soft failure: the run proceeds after the
// settle delay, tolerating the race between "port open" and "application
// ready" the same way the prober tolerates probing false negatives.
func (p *Prober) WaitUntilReady(url string) (ready bool, probes int) {
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if attempt > 1 {
			time.Sleep(p.Interval)
		}

		response, err := p.client.R().Get(url)
		if err != nil {
			log.Debugf("Probe %d of %q failed: %v", attempt, url, err)
			continue
		}
		if response.StatusCode() < 400 {
			return true, attempt
		}
		log.Debugf("Probe %d of %q answered status %d", attempt, url, response.StatusCode())
	}

	log.Warnf("Endpoint %q did not become ready within %d probes; proceeding anyway",
		url, p.Attempts)
	time.Sleep(p.SettleDelay)
	return false, p.Attempts
}
