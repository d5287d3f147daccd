package server

import (
	"bufio"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// pidMarker is the phrase the server runtime emits when its worker
	// process is up, followed by the bracketed process id.
	pidMarker = "Started server process"

	// DiscoveryInterval is the pause between two scans of the server log.
	DiscoveryInterval = 100 * time.Millisecond
	// DiscoveryAttempts bounds the log polling; with the default interval
	// the discovery gives up after ~5 seconds.
	DiscoveryAttempts = 50
)

// ErrProcessDiscovery is returned when the server process id could not be
// found in the log within the polling budget. This is fatal for the run.
var ErrProcessDiscovery = errors.Errorf(
	"could not discover server process id: no %q line appeared in the server log", pidMarker)

var (
	// Primary extraction rule: first run of digits enclosed in square brackets.
	bracketedPIDPattern = regexp.MustCompile(`\[(\d+)\]`)
	// Fallback extraction rule: first run of digits anywhere on the marker line.
	barePIDPattern = regexp.MustCompile(`(\d+)`)
)

func matchNotFound(match []string) bool {
	return match == nil || len(match) < 2 || len(match[1]) == 0
}

// DiscoverPID polls the given log files until one of them contains the
// startup marker line and a process id can be extracted from it.
// Log scraping is inherently fragile, so the whole contract is contained
// here; the coordinator only sees a pid or ErrProcessDiscovery.
func DiscoverPID(logPaths []string, interval time.Duration, attempts int) (int, error) {
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(interval)
		}

		for _, logPath := range logPaths {
			line, found := findMarkerLine(logPath)
			if !found {
				continue
			}
			if pid, ok := extractPID(line); ok {
				return pid, nil
			}
		}
	}

	return 0, ErrProcessDiscovery
}

// findMarkerLine scans a growing log file for the first line containing the
// marker. An unreadable or incomplete file simply means "not yet".
func findMarkerLine(logPath string) (string, bool) {
	file, err := os.Open(logPath)
	if err != nil {
		return "", false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), pidMarker) {
			return scanner.Text(), true
		}
	}
	return "", false
}

func extractPID(line string) (int, bool) {
	match := bracketedPIDPattern.FindStringSubmatch(line)
	if matchNotFound(match) {
		match = barePIDPattern.FindStringSubmatch(line)
	}
	if matchNotFound(match) {
		return 0, false
	}

	pid, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return pid, true
}
