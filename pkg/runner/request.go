package runner

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const defaultPort = 8000

// Request carries the resolved benchmark parameters. It is immutable once
// created and passed by value into the Coordinator; there is no process-wide
// configuration state behind it.
type Request struct {
	ScriptPath  string
	Host        string
	Endpoint    string
	Requests    int
	Concurrency int
}

// URL returns the full endpoint address the benchmark targets.
func (r Request) URL() string {
	return r.Host + r.Endpoint
}

// NewRequest validates and normalizes user input into a Request.
// Any violation is a validation error reported before a single process is
// spawned.
func NewRequest(scriptPath, host string, port int, endpoint string, requests, concurrency int) (Request, error) {
	if scriptPath == "" {
		return Request{}, errors.New("server script path is required")
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return Request{}, errors.Wrapf(err, "server script %q is not accessible", scriptPath)
	}
	if requests <= 0 {
		return Request{}, errors.Errorf("request count must be positive, got %d", requests)
	}
	if concurrency <= 0 {
		return Request{}, errors.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if concurrency > requests {
		return Request{}, errors.Errorf(
			"concurrency (%d) cannot exceed request count (%d)", concurrency, requests)
	}

	normalizedHost, err := normalizeHost(host, port)
	if err != nil {
		return Request{}, err
	}

	return Request{
		ScriptPath:  scriptPath,
		Host:        normalizedHost,
		Endpoint:    normalizeEndpoint(endpoint),
		Requests:    requests,
		Concurrency: concurrency,
	}, nil
}

// normalizeHost resolves the target authority. With no host given the
// benchmark targets http://localhost with the default port. A loopback host
// requires an explicit port, either from the port option or embedded in the
// host string.
func normalizeHost(host string, port int) (string, error) {
	if host == "" {
		if port == 0 {
			port = defaultPort
		}
		return fmt.Sprintf("http://localhost:%d", port), nil
	}

	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	host = strings.TrimRight(host, "/")

	parsed, err := url.Parse(host)
	if err != nil {
		return "", errors.Wrapf(err, "cannot parse host %q", host)
	}

	if parsed.Port() == "" {
		switch {
		case port != 0:
			host = fmt.Sprintf("%s:%d", host, port)
		case isLoopback(parsed.Hostname()):
			return "", errors.Errorf(
				"host %q points to the local machine and needs an explicit port (use --port or embed it in the host)", host)
		}
	}

	return host, nil
}

func normalizeEndpoint(endpoint string) string {
	if endpoint == "" {
		return "/"
	}
	if !strings.HasPrefix(endpoint, "/") {
		return "/" + endpoint
	}
	return endpoint
}

func isLoopback(hostname string) bool {
	if hostname == "localhost" {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}
