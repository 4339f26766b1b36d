package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/kilianp07/firmfleet/core/compare"
	coremetrics "github.com/kilianp07/firmfleet/core/metrics"
)

func sampleReport() coremetrics.ReliabilityReport {
	return coremetrics.ReliabilityReport{
		RunID:                   "run-1",
		Scenario:                "greedy",
		Time:                    time.Unix(1700000000, 0),
		TargetGW:                100,
		SoftTargetGW:            95,
		PlantTargetGW:           1,
		AggregateAvailability:   0.62,
		SoftAvailability:        0.81,
		IndividualAvailability:  0.88,
		PerfectDays:             120,
		GoodDays:                200,
		EnergyDeliveredTWh:      801.5,
		TargetEnergyShare:       0.915,
		WorstHourGW:             31.2,
		WorstWeekIndex:          37,
		WorstWeekStartHour:      37 * 168,
		WorstWeekMeanGW:         88.4,
		MaxSimultaneousFailures: 111,
		FailureCountThreshold:   50,
		HoursAboveFailureCount:  555,
		MeanFailingOutputGW:     0.26,
		MeanFailingDefined:      true,
		AvailabilityByResolution: map[string]float64{
			"hourly": 0.62, "daily": 0.7, "weekly": 0.79, "annual": 1,
		},
		GroupCorrelations: []coremetrics.GroupCorrelation{
			{GroupA: "north", GroupB: "south", Coefficient: 0.42, Defined: true},
			{GroupA: "north", GroupB: "east"},
		},
		ConditionalFailures: []coremetrics.ConditionalFailure{
			{TriggerGroup: "north", AffectedGroup: "south", Rate: 0.5, Unconditional: 0.25,
				TriggerHours: 12, Defined: true},
			{TriggerGroup: "south", AffectedGroup: "north"},
		},
	}
}

func TestPromSinkRecordsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	if err := sink.RecordReport(sampleReport()); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := sink.RecordComparison(&compare.Report{
		RunID:    "run-1",
		Metric:   "aggregate_availability",
		Baseline: "greedy",
		Results:  map[string]float64{"greedy": 0.62, "optimized": 0.95},
		Deltas:   []compare.Delta{{Scenario: "optimized", Baseline: "greedy", Points: 33}},
	}); err != nil {
		t.Fatalf("comparison: %v", err)
	}

	fams, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := map[string]*dto.MetricFamily{}
	for _, f := range fams {
		byName[f.GetName()] = f
	}
	// Three hourly kinds plus one aggregate kind per resolution.
	if f, ok := byName["fleet_availability_ratio"]; !ok || len(f.Metric) != 7 {
		t.Fatalf("availability gauges missing: %v", byName)
	}
	// Only the defined correlation cell and conditional pair get gauges.
	if f, ok := byName["fleet_group_failure_correlation"]; !ok || len(f.Metric) != 1 {
		t.Fatalf("correlation gauge missing: %v", byName)
	}
	if f, ok := byName["fleet_conditional_failure_rate"]; !ok || len(f.Metric) != 2 {
		t.Fatalf("conditional gauges missing: %v", byName)
	}
	if _, ok := byName["fleet_comparison_delta_points"]; !ok {
		t.Fatalf("comparison gauge missing")
	}
}

func TestInfluxSinkWritesReportPoints(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	if err := sink.RecordReport(sampleReport()); err != nil {
		t.Fatalf("record: %v", err)
	}
	// One report point, one defined correlation cell, one defined conditional pair.
	if len(bodies) != 3 {
		t.Fatalf("expected 3 writes, got %d: %v", len(bodies), bodies)
	}
	if !strings.HasPrefix(bodies[0], "reliability_report,") {
		t.Fatalf("unexpected measurement: %s", bodies[0])
	}
	for _, want := range []string{
		"scenario=greedy", "run_id=run-1", "perfect_days=120i", "mean_failing_output_gw=0.26",
		"availability_daily=0.7", "availability_annual=1",
	} {
		if !strings.Contains(bodies[0], want) {
			t.Fatalf("line protocol missing %q: %s", want, bodies[0])
		}
	}
	if !strings.HasPrefix(bodies[1], "failure_correlation,") ||
		!strings.Contains(bodies[1], "group_b=south") || !strings.Contains(bodies[1], "coefficient=0.42") {
		t.Fatalf("bad correlation point: %s", bodies[1])
	}
	if !strings.HasPrefix(bodies[2], "conditional_failure,") ||
		!strings.Contains(bodies[2], "trigger_group=north") || !strings.Contains(bodies[2], "trigger_hours=12i") {
		t.Fatalf("bad conditional point: %s", bodies[2])
	}
}

func TestInfluxFallbackToNop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	sink := NewInfluxSinkWithFallback(srv.URL, "token", "org", "bucket")
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink fallback, got %T", sink)
	}
}

type countSink struct {
	reports     int
	comparisons int
}

func (c *countSink) RecordReport(coremetrics.ReliabilityReport) error { c.reports++; return nil }
func (c *countSink) RecordComparison(*compare.Report) error           { c.comparisons++; return nil }

func TestMultiSinkFanout(t *testing.T) {
	s1 := &countSink{}
	s2 := &countSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordReport(coremetrics.ReliabilityReport{}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if err := m.RecordComparison(&compare.Report{}); err != nil {
		t.Fatalf("comparison: %v", err)
	}
	if s1.reports != 1 || s2.reports != 1 || s1.comparisons != 1 || s2.comparisons != 1 {
		t.Fatalf("fanout incomplete: %+v %+v", s1, s2)
	}
}
