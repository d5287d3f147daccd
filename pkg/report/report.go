package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/Albrrak773/fastapi-async-test/pkg/loadgen"
	"github.com/Albrrak773/fastapi-async-test/pkg/procmon"
)

// notAvailable is the rendering of a metric that could not be read.
// The sentinel exists only here; the data model carries typed optional values.
const notAvailable = "N/A"

// Target describes what was benchmarked and how hard.
type Target struct {
	ScriptPath  string
	URL         string
	Requests    int
	Concurrency int
}

// Summary is the terminal artifact of one benchmark run: the request
// parameters, the load tool report, the derived memory statistics and the
// final thread count.
type Summary struct {
	Target  Target
	Load    loadgen.Report
	Memory  procmon.Stats
	Threads procmon.Count
}

// Render prints the benchmark summary as a table.
func Render(writer io.Writer, summary Summary) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAutoWrapText(false)

	for _, row := range summaryRows(summary) {
		table.Append(row)
	}
	table.Render()
}

func summaryRows(summary Summary) [][]string {
	return [][]string{
		{"Server script", summary.Target.ScriptPath},
		{"Benchmarked URL", summary.Target.URL},
		{"Requests", strconv.Itoa(summary.Target.Requests)},
		{"Concurrency", strconv.Itoa(summary.Target.Concurrency)},

		{"Total duration", fieldValue(summary.Load.TotalDuration)},
		{"Slowest request", fieldValue(summary.Load.Slowest)},
		{"Fastest request", fieldValue(summary.Load.Fastest)},
		{"Average request", fieldValue(summary.Load.Average)},
		{"Requests per second", fieldValue(summary.Load.RequestsPerSec)},
		{"Total data (MB)", MegabytesFromBytes(summary.Load.TotalDataBytes)},
		{"Size per request (MB)", MegabytesFromBytes(summary.Load.SizePerRequestBytes)},
		{"DNS+dialup (avg)", fieldValue(summary.Load.DNSDialup)},
		{"DNS lookup (avg)", fieldValue(summary.Load.DNSLookup)},
		{"Request write (avg)", fieldValue(summary.Load.RequestWrite)},
		{"Response wait (avg)", fieldValue(summary.Load.ResponseWait)},
		{"Response read (avg)", fieldValue(summary.Load.ResponseRead)},

		{"Average memory (MB)", MegabytesFromKB(summary.Memory.AverageKB)},
		{"Peak memory (MB)", MegabytesFromKB(summary.Memory.PeakKB)},
		{"Minimum memory (MB)", MegabytesFromKB(summary.Memory.MinimumKB)},
		{"Threads", countValue(summary.Threads)},
	}
}

func fieldValue(field loadgen.Field) string {
	if !field.OK {
		return notAvailable
	}
	return field.Value
}

func countValue(count procmon.Count) string {
	if !count.OK {
		return notAvailable
	}
	return strconv.Itoa(count.Value)
}

// MegabytesFromKB renders a kilobyte metric as megabytes with two decimals.
func MegabytesFromKB(metric procmon.Metric) string {
	if !metric.OK {
		return notAvailable
	}
	return megabytes(metric.Value, 1024)
}

// MegabytesFromBytes renders a byte count as megabytes with two decimals.
func MegabytesFromBytes(bytes float64) string {
	return megabytes(bytes, 1024*1024)
}

func megabytes(value, divisor float64) string {
	return decimal.NewFromFloat(value).Div(decimal.NewFromFloat(divisor)).StringFixed(2)
}
