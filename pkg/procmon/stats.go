package procmon

// Metric is an optionally-available measurement. A metric that could not be
// read is carried as a typed not-available value instead of a magic string;
// rendering of the sentinel is left to the reporter.
type Metric struct {
	Value float64
	OK    bool
}

// AvailableMetric wraps a successfully read value.
func AvailableMetric(value float64) Metric {
	return Metric{Value: value, OK: true}
}

// MetricFromRead translates a read result into a Metric.
func MetricFromRead(value float64, err error) Metric {
	if err != nil {
		return Metric{}
	}
	return AvailableMetric(value)
}

// Count is an optionally-available integer measurement.
type Count struct {
	Value int
	OK    bool
}

// CountFromRead translates a read result into a Count.
func CountFromRead(value int, err error) Count {
	if err != nil {
		return Count{}
	}
	return Count{Value: value, OK: true}
}

// Stats are the derived memory statistics of one benchmark run.
type Stats struct {
	AverageKB Metric
	MinimumKB Metric
	PeakKB    Metric
}

// Aggregate computes memory statistics from the sample series and the kernel
// high-water-mark reading. Peak comes only from the high-water-mark counter:
// max(samples) could under-report a transient spike between two ticks, so the
// two values are never used interchangeably.
func Aggregate(samplesKB []float64, peakKB Metric) Stats {
	stats := Stats{PeakKB: peakKB}

	if len(samplesKB) == 0 {
		return stats
	}

	sum := 0.0
	minimum := samplesKB[0]
	for _, sample := range samplesKB {
		sum += sample
		if sample < minimum {
			minimum = sample
		}
	}

	stats.AverageKB = AvailableMetric(sum / float64(len(samplesKB)))
	stats.MinimumKB = AvailableMetric(minimum)
	return stats
}
