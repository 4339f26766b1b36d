package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/firmfleet/core/compare"
	coremetrics "github.com/kilianp07/firmfleet/core/metrics"
)

// PromSink exposes reliability reports as Prometheus gauges, labelled by
// scenario so greedy and coordinated runs can be graphed side by side.
type PromSink struct {
	availability *prometheus.GaugeVec
	days         *prometheus.GaugeVec
	energy       *prometheus.GaugeVec
	failures     *prometheus.GaugeVec
	correlation  *prometheus.GaugeVec
	conditional  *prometheus.GaugeVec
	deltas       *prometheus.GaugeVec
}

// NewPromSink registers reliability metrics on the default Prometheus
// registerer. The metrics server is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	availability := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_availability_ratio",
		Help: "Fraction of hourly samples meeting the threshold",
	}, []string{"scenario", "kind"})
	days := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_reliable_days_total",
		Help: "Count of perfect and good days in the analysed year",
	}, []string{"scenario", "kind"})
	energy := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_energy_delivered_twh",
		Help: "Energy delivered over the analysed year",
	}, []string{"scenario"})
	failures := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_simultaneous_failures",
		Help: "Simultaneous-failure structure of the analysed year",
	}, []string{"scenario", "kind"})
	correlation := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_group_failure_correlation",
		Help: "Pearson correlation between two groups' failure fractions",
	}, []string{"scenario", "group_a", "group_b"})
	conditional := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_conditional_failure_rate",
		Help: "Affected group's failure rate given the trigger group failing past the trigger",
	}, []string{"scenario", "trigger", "affected", "kind"})
	deltas := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_comparison_delta_points",
		Help: "Signed percentage-point metric difference against the baseline scenario",
	}, []string{"metric", "scenario", "baseline"})

	for _, c := range []*prometheus.GaugeVec{availability, days, energy, failures, correlation, conditional, deltas} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return &PromSink{
		availability: availability,
		days:         days,
		energy:       energy,
		failures:     failures,
		correlation:  correlation,
		conditional:  conditional,
		deltas:       deltas,
	}, nil
}

// RecordReport sets the gauges for one scenario report.
func (s *PromSink) RecordReport(r coremetrics.ReliabilityReport) error {
	s.availability.WithLabelValues(r.Scenario, "aggregate").Set(r.AggregateAvailability)
	s.availability.WithLabelValues(r.Scenario, "aggregate_soft").Set(r.SoftAvailability)
	s.availability.WithLabelValues(r.Scenario, "individual").Set(r.IndividualAvailability)
	s.days.WithLabelValues(r.Scenario, "perfect").Set(float64(r.PerfectDays))
	s.days.WithLabelValues(r.Scenario, "good").Set(float64(r.GoodDays))
	s.energy.WithLabelValues(r.Scenario).Set(r.EnergyDeliveredTWh)
	s.failures.WithLabelValues(r.Scenario, "max").Set(float64(r.MaxSimultaneousFailures))
	s.failures.WithLabelValues(r.Scenario, "hours_above_"+strconv.Itoa(r.FailureCountThreshold)).
		Set(float64(r.HoursAboveFailureCount))
	if r.MeanFailingDefined {
		s.failures.WithLabelValues(r.Scenario, "mean_failing_output_gw").Set(r.MeanFailingOutputGW)
	}
	for res, v := range r.AvailabilityByResolution {
		s.availability.WithLabelValues(r.Scenario, "aggregate_"+res).Set(v)
	}
	for _, gc := range r.GroupCorrelations {
		if gc.Defined {
			s.correlation.WithLabelValues(r.Scenario, gc.GroupA, gc.GroupB).Set(gc.Coefficient)
		}
	}
	for _, cf := range r.ConditionalFailures {
		if !cf.Defined {
			continue
		}
		s.conditional.WithLabelValues(r.Scenario, cf.TriggerGroup, cf.AffectedGroup, "rate").Set(cf.Rate)
		s.conditional.WithLabelValues(r.Scenario, cf.TriggerGroup, cf.AffectedGroup, "unconditional").
			Set(cf.Unconditional)
	}
	return nil
}

// RecordComparison publishes signed percentage-point deltas per scenario.
func (s *PromSink) RecordComparison(rep *compare.Report) error {
	for _, d := range rep.Deltas {
		s.deltas.WithLabelValues(rep.Metric, d.Scenario, d.Baseline).Set(d.Points)
	}
	return nil
}
