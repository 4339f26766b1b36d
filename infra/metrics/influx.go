package metrics

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/firmfleet/core/compare"
	coremetrics "github.com/kilianp07/firmfleet/core/metrics"
	"github.com/kilianp07/firmfleet/infra/logger"
)

// InfluxSink writes reliability reports to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns
// a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.ReportSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordReport writes the full scenario report as one point.
func (s *InfluxSink) RecordReport(r coremetrics.ReliabilityReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("reliability_report").
		AddTag("scenario", r.Scenario).
		AddTag("run_id", r.RunID).
		AddTag("failure_count_threshold", strconv.Itoa(r.FailureCountThreshold)).
		AddField("target_gw", round3(r.TargetGW)).
		AddField("soft_target_gw", round3(r.SoftTargetGW)).
		AddField("aggregate_availability", round3(r.AggregateAvailability)).
		AddField("soft_availability", round3(r.SoftAvailability)).
		AddField("individual_availability", round3(r.IndividualAvailability)).
		AddField("perfect_days", r.PerfectDays).
		AddField("good_days", r.GoodDays).
		AddField("energy_delivered_twh", round3(r.EnergyDeliveredTWh)).
		AddField("target_energy_share", round3(r.TargetEnergyShare)).
		AddField("worst_hour_gw", round3(r.WorstHourGW)).
		AddField("worst_week_index", r.WorstWeekIndex).
		AddField("worst_week_mean_gw", round3(r.WorstWeekMeanGW)).
		AddField("max_simultaneous_failures", r.MaxSimultaneousFailures).
		AddField("hours_above_failure_count", r.HoursAboveFailureCount).
		SetTime(r.Time)
	if r.MeanFailingDefined {
		p.AddField("mean_failing_output_gw", round3(r.MeanFailingOutputGW))
	}
	resolutions := make([]string, 0, len(r.AvailabilityByResolution))
	for res := range r.AvailabilityByResolution {
		resolutions = append(resolutions, res)
	}
	sort.Strings(resolutions)
	for _, res := range resolutions {
		p.AddField("availability_"+res, round3(r.AvailabilityByResolution[res]))
	}
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return err
	}
	for _, gc := range r.GroupCorrelations {
		if !gc.Defined {
			continue
		}
		cp := write.NewPointWithMeasurement("failure_correlation").
			AddTag("scenario", r.Scenario).
			AddTag("run_id", r.RunID).
			AddTag("group_a", gc.GroupA).
			AddTag("group_b", gc.GroupB).
			AddField("coefficient", round3(gc.Coefficient)).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, cp); err != nil {
			return err
		}
	}
	for _, cf := range r.ConditionalFailures {
		if !cf.Defined {
			continue
		}
		cp := write.NewPointWithMeasurement("conditional_failure").
			AddTag("scenario", r.Scenario).
			AddTag("run_id", r.RunID).
			AddTag("trigger_group", cf.TriggerGroup).
			AddTag("affected_group", cf.AffectedGroup).
			AddField("rate", round3(cf.Rate)).
			AddField("unconditional", round3(cf.Unconditional)).
			AddField("trigger_hours", cf.TriggerHours).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, cp); err != nil {
			return err
		}
	}
	return nil
}

// RecordComparison writes one point per scenario delta.
func (s *InfluxSink) RecordComparison(rep *compare.Report) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	now := time.Now()
	for _, d := range rep.Deltas {
		p := write.NewPointWithMeasurement("scenario_comparison").
			AddTag("metric", rep.Metric).
			AddTag("scenario", d.Scenario).
			AddTag("baseline", d.Baseline).
			AddTag("run_id", rep.RunID).
			AddField("delta_points", round3(d.Points)).
			AddField("value", round3(rep.Results[d.Scenario])).
			AddField("baseline_value", round3(rep.Results[d.Baseline])).
			SetTime(now)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
