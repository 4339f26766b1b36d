package metrics

import (
	"github.com/kilianp07/firmfleet/core/compare"
	coremetrics "github.com/kilianp07/firmfleet/core/metrics"
)

// MultiSink fans reliability reports out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.ReportSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.ReportSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordReport forwards the report to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordReport(r coremetrics.ReliabilityReport) error {
	for _, s := range m.Sinks {
		if err := s.RecordReport(r); err != nil {
			return err
		}
	}
	return nil
}

// RecordComparison forwards comparison reports to sinks that accept them.
func (m *MultiSink) RecordComparison(rep *compare.Report) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.ComparisonRecorder); ok {
			if err := rec.RecordComparison(rep); err != nil {
				return err
			}
		}
	}
	return nil
}
