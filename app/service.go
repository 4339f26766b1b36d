// Package app wires configuration, analyzers and sinks into one service that
// runs the full reliability study for a set of dispatch scenarios.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/firmfleet/config"
	"github.com/kilianp07/firmfleet/core/aggregate"
	"github.com/kilianp07/firmfleet/core/availability"
	"github.com/kilianp07/firmfleet/core/compare"
	"github.com/kilianp07/firmfleet/core/failure"
	"github.com/kilianp07/firmfleet/core/fleet"
	coremetrics "github.com/kilianp07/firmfleet/core/metrics"
	"github.com/kilianp07/firmfleet/core/series"
	"github.com/kilianp07/firmfleet/core/worst"
	"github.com/kilianp07/firmfleet/infra/logger"
	"github.com/kilianp07/firmfleet/infra/metrics"
)

// Service runs the reliability study end to end: per-scenario reports,
// cross-scenario comparison, and delivery to the configured sinks.
type Service struct {
	cfg   *config.Config
	agg   *aggregate.Aggregator
	avail availability.Analyzer
	fail  failure.Analyzer
	sink  coremetrics.ReportSink
	log   logger.Logger

	promEnabled bool
	promAddr    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logg := logger.New("service")

	var sinks []coremetrics.ReportSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.ReportSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	av := availability.New()
	av.Epsilon = cfg.Analysis.Epsilon
	fa := failure.New(cfg.Analysis.PlantTargetGW)
	fa.Epsilon = cfg.Analysis.Epsilon

	return &Service{
		cfg:         cfg,
		agg:         aggregate.New(),
		avail:       av,
		fail:        fa,
		sink:        sink,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promAddr:    cfg.Metrics.PrometheusAddr,
	}, nil
}

// Analyze computes the full reliability report for one scenario.
func (s *Service) Analyze(sc *fleet.Scenario) (coremetrics.ReliabilityReport, error) {
	if err := sc.Validate(); err != nil {
		return coremetrics.ReliabilityReport{}, err
	}
	an := s.cfg.Analysis

	hourly, err := s.agg.Series(sc.Output, series.Hourly)
	if err != nil {
		return coremetrics.ReliabilityReport{}, err
	}
	aggAvail, err := s.avail.Aggregate(hourly, an.TargetGW)
	if err != nil {
		return coremetrics.ReliabilityReport{}, err
	}
	softAvail, err := s.avail.Aggregate(hourly, an.SoftTargetGW)
	if err != nil {
		return coremetrics.ReliabilityReport{}, err
	}
	indAvail, err := s.avail.Individual(hourly, an.PlantTargetGW)
	if err != nil {
		return coremetrics.ReliabilityReport{}, err
	}
	perfect, err := s.avail.PerfectDays(hourly.Aggregate, an.TargetGW)
	if err != nil {
		return coremetrics.ReliabilityReport{}, err
	}
	good, err := s.avail.GoodDays(hourly.Aggregate, an.SoftTargetGW)
	if err != nil {
		return coremetrics.ReliabilityReport{}, err
	}
	window, err := worst.Locate(hourly.Aggregate, an.WorstWindowHours)
	if err != nil {
		return coremetrics.ReliabilityReport{}, err
	}
	sim, err := s.fail.Simultaneous(sc.Output)
	if err != nil {
		return coremetrics.ReliabilityReport{}, err
	}

	availBy := map[string]float64{series.Hourly.String(): aggAvail}
	for _, r := range []series.Resolution{series.Daily, series.Weekly, series.Annual} {
		sr, err := s.agg.Series(sc.Output, r)
		if err != nil {
			return coremetrics.ReliabilityReport{}, err
		}
		v, err := s.avail.Aggregate(sr, an.TargetGW)
		if err != nil {
			return coremetrics.ReliabilityReport{}, err
		}
		availBy[r.String()] = v
	}

	names := s.groupNames(sc)
	correlations, err := s.groupCorrelations(sc, names)
	if err != nil {
		return coremetrics.ReliabilityReport{}, err
	}
	conditionals, err := s.conditionalFailures(sc, names)
	if err != nil {
		return coremetrics.ReliabilityReport{}, err
	}

	rep := coremetrics.ReliabilityReport{
		RunID:    uuid.NewString(),
		Scenario: sc.Name,
		Time:     time.Now(),

		TargetGW:      an.TargetGW,
		SoftTargetGW:  an.SoftTargetGW,
		PlantTargetGW: an.PlantTargetGW,

		AggregateAvailability:    aggAvail,
		SoftAvailability:         softAvail,
		IndividualAvailability:   indAvail,
		AvailabilityByResolution: availBy,
		PerfectDays:              perfect,
		GoodDays:                 good,

		EnergyDeliveredTWh: floats.Sum(hourly.Aggregate) / 1000,
		TargetEnergyShare:  floats.Sum(hourly.Aggregate) / (an.TargetGW * float64(len(hourly.Aggregate))),
		WorstHourGW:        floats.Min(hourly.Aggregate),

		WorstWeekIndex:     window.Index,
		WorstWeekStartHour: window.StartHour,
		WorstWeekMeanGW:    window.Mean,

		MaxSimultaneousFailures: sim.Max,
		FailureCountThreshold:   an.FailureCountThreshold,
		HoursAboveFailureCount:  sim.HoursAbove(an.FailureCountThreshold),

		GroupCorrelations:   correlations,
		ConditionalFailures: conditionals,
	}
	if mean, err := sim.MeanFailingOutput(); err == nil {
		rep.MeanFailingOutputGW = mean
		rep.MeanFailingDefined = true
	} else if !errors.Is(err, series.ErrUndefinedStatistic) {
		return coremetrics.ReliabilityReport{}, err
	}
	return rep, nil
}

// groupNames returns the configured analysis groups, or every group of the
// scenario's fleet when none are configured.
func (s *Service) groupNames(sc *fleet.Scenario) []string {
	if len(s.cfg.Analysis.Groups) > 0 {
		return s.cfg.Analysis.Groups
	}
	return sc.Fleet.GroupNames()
}

// groupCorrelations flattens the upper triangle of the correlation matrix
// into report entries. Degenerate cells stay in the report as undefined.
func (s *Service) groupCorrelations(sc *fleet.Scenario, names []string) ([]coremetrics.GroupCorrelation, error) {
	if len(names) < 2 {
		return nil, nil
	}
	cm, err := s.fail.Correlations(sc.Output, sc.Fleet, names)
	if err != nil {
		return nil, err
	}
	var out []coremetrics.GroupCorrelation
	for i := 0; i < len(cm.Names); i++ {
		for j := i + 1; j < len(cm.Names); j++ {
			gc := coremetrics.GroupCorrelation{GroupA: cm.Names[i], GroupB: cm.Names[j]}
			v, err := cm.At(i, j)
			if err == nil {
				gc.Coefficient = v
				gc.Defined = true
			} else if !errors.Is(err, series.ErrUndefinedStatistic) {
				return nil, err
			}
			out = append(out, gc)
		}
	}
	return out, nil
}

// conditionalFailures evaluates every ordered group pair against the
// configured trigger fraction. A pair whose condition never activated stays
// in the report as undefined.
func (s *Service) conditionalFailures(sc *fleet.Scenario, names []string) ([]coremetrics.ConditionalFailure, error) {
	var out []coremetrics.ConditionalFailure
	for _, a := range names {
		for _, b := range names {
			if a == b {
				continue
			}
			c, err := s.Conditional(sc, a, b)
			cf := coremetrics.ConditionalFailure{TriggerGroup: a, AffectedGroup: b}
			if err == nil {
				cf.Rate = c.Rate
				cf.Unconditional = c.Unconditional
				cf.TriggerHours = c.TriggerHours
				cf.Defined = true
			} else if !errors.Is(err, series.ErrUndefinedStatistic) {
				return nil, err
			}
			out = append(out, cf)
		}
	}
	return out, nil
}

// Correlations returns the failure correlation matrix between the configured
// fleet groups of the scenario, or all groups when none are configured.
func (s *Service) Correlations(sc *fleet.Scenario) (*failure.CorrelationMatrix, error) {
	return s.fail.Correlations(sc.Output, sc.Fleet, s.groupNames(sc))
}

// Conditional returns group B's co-failure statistics given group A failing
// beyond the configured trigger fraction.
func (s *Service) Conditional(sc *fleet.Scenario, groupA, groupB string) (failure.Conditional, error) {
	return s.fail.Conditional(sc.Output,
		sc.Fleet.Group(groupA), sc.Fleet.Group(groupB), s.cfg.Analysis.TriggerFraction)
}

// Compare evaluates the aggregate-availability metric across scenarios
// against the configured baseline.
func (s *Service) Compare(scenarios ...*fleet.Scenario) (*compare.Report, error) {
	metric := compare.Metric{
		Name: "aggregate_availability_hourly",
		Eval: func(sc *fleet.Scenario) (float64, error) {
			sr, err := s.agg.Series(sc.Output, series.Hourly)
			if err != nil {
				return 0, err
			}
			return s.avail.Aggregate(sr, s.cfg.Analysis.TargetGW)
		},
	}
	return compare.Compare(s.cfg.Analysis.Baseline, metric, scenarios...)
}

// Run analyzes every scenario, publishes reports and the cross-scenario
// comparison, and blocks on the Prometheus server when one is configured.
func (s *Service) Run(ctx context.Context, scenarios ...*fleet.Scenario) error {
	for _, sc := range scenarios {
		rep, err := s.Analyze(sc)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", sc.Name, err)
		}
		if err := s.sink.RecordReport(rep); err != nil {
			return fmt.Errorf("record %s: %w", sc.Name, err)
		}
		s.log.Infof("scenario %s: %.1f%% hours at %.0f GW, %d perfect days",
			sc.Name, rep.AggregateAvailability*100, rep.TargetGW, rep.PerfectDays)
	}
	if len(scenarios) >= 2 {
		cmp, err := s.Compare(scenarios...)
		if err != nil {
			return err
		}
		if rec, ok := s.sink.(coremetrics.ComparisonRecorder); ok {
			if err := rec.RecordComparison(cmp); err != nil {
				return err
			}
		}
		for _, d := range cmp.Deltas {
			s.log.Infof("%s: %s vs %s: %+.1f points", cmp.Metric, d.Scenario, d.Baseline, d.Points)
		}
	}
	if s.promEnabled {
		return metrics.StartPromServer(ctx, s.promAddr)
	}
	return nil
}
