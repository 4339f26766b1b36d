// Package metrics defines the structured results the engine hands to its
// observability sinks. Sinks like PromSink and InfluxSink record per-scenario
// reliability reports and cross-scenario comparisons and can be combined with
// NewMultiSink in infra/metrics.
package metrics

import (
	"time"

	"github.com/kilianp07/firmfleet/core/compare"
)

// ReliabilityReport is the full metric battery computed for one scenario.
// Fractions are in [0,1]; power values are GW, energy TWh.
type ReliabilityReport struct {
	RunID    string
	Scenario string
	Time     time.Time

	TargetGW      float64
	SoftTargetGW  float64
	PlantTargetGW float64

	// Hourly threshold-crossing statistics.
	AggregateAvailability  float64
	SoftAvailability       float64
	IndividualAvailability float64
	// AvailabilityByResolution holds the aggregate availability at the hard
	// target for every resolution, keyed by Resolution.String(). The hourly
	// entry equals AggregateAvailability.
	AvailabilityByResolution map[string]float64

	PerfectDays int
	GoodDays    int

	EnergyDeliveredTWh float64
	TargetEnergyShare  float64
	WorstHourGW        float64

	WorstWeekIndex     int
	WorstWeekStartHour int
	WorstWeekMeanGW    float64

	MaxSimultaneousFailures int
	FailureCountThreshold   int
	HoursAboveFailureCount  int
	// MeanFailingOutputGW is only meaningful when MeanFailingDefined is
	// set; a year without a single failing sample leaves it undefined.
	MeanFailingOutputGW float64
	MeanFailingDefined  bool

	// GroupCorrelations holds one entry per unordered group pair, in the
	// analysed group order.
	GroupCorrelations []GroupCorrelation
	// ConditionalFailures holds one entry per ordered group pair.
	ConditionalFailures []ConditionalFailure
}

// GroupCorrelation is one off-diagonal cell of the regional failure
// correlation matrix. Defined is false when either group's failure signal
// has zero variance over the year.
type GroupCorrelation struct {
	GroupA      string
	GroupB      string
	Coefficient float64
	Defined     bool
}

// ConditionalFailure is the affected group's mean failure fraction over the
// hours where the trigger group's fraction exceeded the trigger, next to its
// unconditional rate. Defined is false when no hour activated the condition.
type ConditionalFailure struct {
	TriggerGroup  string
	AffectedGroup string
	Rate          float64
	Unconditional float64
	TriggerHours  int
	Defined       bool
}

// ReportSink records reliability reports for observability purposes.
type ReportSink interface {
	RecordReport(r ReliabilityReport) error
}

// ComparisonRecorder records cross-scenario metric deltas.
type ComparisonRecorder interface {
	RecordComparison(rep *compare.Report) error
}

// NopSink implements ReportSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordReport(ReliabilityReport) error   { return nil }
func (NopSink) RecordComparison(*compare.Report) error { return nil }
