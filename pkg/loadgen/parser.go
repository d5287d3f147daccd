package loadgen

import (
	"io"
	"regexp"
	"strconv"
	"strings"
)

// The load tool emits a fixed-format text report with labeled metric lines:
//
//	Summary:
//	  Total:	1.0022 secs
//	  Slowest:	0.0353 secs
//	  ...
//	  Requests/sec:	9276.5008
//
//	  Total data:	1000000 bytes
//	  Size/request:	10 bytes
//
//	Details (average, fastest, slowest):
//	  DNS+dialup:	0.0004 secs, 0.0013 secs, 0.0353 secs
//	  ...
//
// Each field is located by its label; the Details lines carry three values of
// which the first (the average) is extracted.

func matchNotFound(match []string) bool {
	return match == nil || len(match) < 2 || len(match[1]) == 0
}

// ParseReport extracts the known labeled fields from the load tool output.
// Any label not found yields a not-available Field; parsing itself never
// fails once the output was read.
func ParseReport(outputReader io.Reader) (Report, error) {
	buff, err := io.ReadAll(outputReader)
	if err != nil {
		return Report{}, err
	}
	output := string(buff)

	return Report{
		TotalDuration:  getFieldFrom(output, "Total"),
		Slowest:        getFieldFrom(output, "Slowest"),
		Fastest:        getFieldFrom(output, "Fastest"),
		Average:        getFieldFrom(output, "Average"),
		RequestsPerSec: getFieldFrom(output, "Requests/sec"),

		TotalDataBytes:      getBytesFrom(output, "Total data"),
		SizePerRequestBytes: getBytesFrom(output, "Size/request"),

		DNSDialup:    getFieldFrom(output, "DNS+dialup"),
		DNSLookup:    getFieldFrom(output, "DNS-lookup"),
		RequestWrite: getFieldFrom(output, "req write"),
		ResponseWait: getFieldFrom(output, "resp wait"),
		ResponseRead: getFieldFrom(output, "resp read"),
	}, nil
}

// getFieldFrom locates the line starting with the given label and returns the
// value after the colon. For multi-value Details lines only the first value,
// the average, is returned.
func getFieldFrom(output string, label string) Field {
	labelRegex := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(label) + `:\s*(.+)$`)
	match := labelRegex.FindStringSubmatch(output)
	if matchNotFound(match) {
		return Field{}
	}

	value := strings.TrimSpace(match[1])
	if commaIndex := strings.Index(value, ","); commaIndex != -1 {
		value = strings.TrimSpace(value[:commaIndex])
	}
	return AvailableField(value)
}

// getBytesFrom extracts a numeric byte count for the given label. A missing
// label or an unparsable number defaults to the zero sentinel.
func getBytesFrom(output string, label string) float64 {
	labelRegex := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(label) + `:\s*([0-9.]+)`)
	match := labelRegex.FindStringSubmatch(output)
	if matchNotFound(match) {
		return 0
	}

	bytes, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return bytes
}
