package loadgen

// Field is one labeled metric extracted from the load tool report. A label
// missing from the tool output is carried as a not-available Field, never as
// a parsing failure; rendering of the sentinel belongs to the reporter.
type Field struct {
	Value string
	OK    bool
}

// AvailableField wraps a successfully extracted value.
func AvailableField(value string) Field {
	return Field{Value: value, OK: true}
}

// Report is the structured result of one load-test invocation.
// The byte-count fields default to zero instead of not-available because they
// feed the megabyte conversion step in the reporter.
type Report struct {
	TotalDuration  Field
	Slowest        Field
	Fastest        Field
	Average        Field
	RequestsPerSec Field

	TotalDataBytes      float64
	SizePerRequestBytes float64

	DNSDialup    Field
	DNSLookup    Field
	RequestWrite Field
	ResponseWait Field
	ResponseRead Field
}
