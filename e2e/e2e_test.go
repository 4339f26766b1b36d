package e2e

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/firmfleet/core/compare"
	coremetrics "github.com/kilianp07/firmfleet/core/metrics"
	"github.com/kilianp07/firmfleet/infra/metrics"
)

const (
	e2eOrg    = "e2e_org"
	e2eBucket = "e2e_bucket"
	e2eToken  = "e2e-token"
)

// startInflux starts an InfluxDB 2.7 container pre-onboarded with the e2e
// org, bucket and token, and returns it along with the base URL.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         e2eOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      e2eBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": e2eToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	url := fmt.Sprintf("http://%s:%s", host, port.Port())
	return cont, url
}

// Test_E2E_InfluxReportRoundTrip records a reliability report and a scenario
// comparison through the Influx sink against a real InfluxDB instance and
// reads both back with Flux queries.
func Test_E2E_InfluxReportRoundTrip(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cont, url := startInflux(ctx, t)
	if cont != nil {
		defer cont.Terminate(ctx) //nolint:errcheck
	}
	t.Logf("InfluxDB started at %s", url)

	sink := metrics.NewInfluxSink(url, e2eToken, e2eOrg, e2eBucket)
	defer sink.Close()

	report := coremetrics.ReliabilityReport{
		RunID:                   "e2e-run",
		Scenario:                "greedy",
		Time:                    time.Now(),
		TargetGW:                100,
		SoftTargetGW:            95,
		AggregateAvailability:   0.974,
		SoftAvailability:        0.988,
		IndividualAvailability:  0.941,
		PerfectDays:             118,
		GoodDays:                203,
		EnergyDeliveredTWh:      812.4,
		TargetEnergyShare:       0.927,
		WorstHourGW:             61.2,
		WorstWeekIndex:          2,
		WorstWeekMeanGW:         78.9,
		MaxSimultaneousFailures: 37,
		FailureCountThreshold:   50,
		HoursAboveFailureCount:  0,
		MeanFailingOutputGW:     71.5,
		MeanFailingDefined:      true,
		AvailabilityByResolution: map[string]float64{
			"hourly": 0.974, "daily": 0.982, "weekly": 0.99, "annual": 1,
		},
		GroupCorrelations: []coremetrics.GroupCorrelation{
			{GroupA: "north", GroupB: "south", Coefficient: 0.38, Defined: true},
		},
	}
	if err := sink.RecordReport(report); err != nil {
		t.Fatalf("record report: %v", err)
	}

	comparison := &compare.Report{
		RunID:    "e2e-run",
		Metric:   "aggregate_availability_hourly",
		Baseline: "greedy",
		Results:  map[string]float64{"greedy": 0.974, "battery": 0.991},
		Deltas:   []compare.Delta{{Scenario: "battery", Baseline: "greedy", Points: 1.7}},
	}
	if err := sink.RecordComparison(comparison); err != nil {
		t.Fatalf("record comparison: %v", err)
	}

	cli := NewInfluxClient(url, e2eOrg, e2eBucket, e2eToken)
	defer cli.Close()

	res, err := cli.Query(ctx, fmt.Sprintf(
		`from(bucket:"%s") |> range(start:-5m) |> filter(fn: (r) => r._measurement == "reliability_report")`, e2eBucket))
	if err != nil {
		t.Fatalf("query report: %v", err)
	}
	defer res.Close()
	reportRows := 0
	for res.Next() {
		reportRows++
		if got := res.Record().ValueByKey("scenario"); got != "greedy" {
			t.Fatalf("unexpected scenario tag %v", got)
		}
	}
	if err := res.Err(); err != nil {
		t.Fatalf("report query iteration: %v", err)
	}
	if reportRows == 0 {
		t.Fatalf("no reliability_report points returned from Influx")
	}
	t.Logf("report query returned %d rows", reportRows)

	cmpRes, err := cli.Query(ctx, fmt.Sprintf(
		`from(bucket:"%s") |> range(start:-5m) |> filter(fn: (r) => r._measurement == "scenario_comparison")`, e2eBucket))
	if err != nil {
		t.Fatalf("query comparison: %v", err)
	}
	defer cmpRes.Close()
	cmpRows := 0
	for cmpRes.Next() {
		cmpRows++
		if got := cmpRes.Record().ValueByKey("baseline"); got != "greedy" {
			t.Fatalf("unexpected baseline tag %v", got)
		}
	}
	if err := cmpRes.Err(); err != nil {
		t.Fatalf("comparison query iteration: %v", err)
	}
	if cmpRows == 0 {
		t.Fatalf("no scenario_comparison points returned from Influx")
	}
	t.Logf("comparison query returned %d rows", cmpRows)
}
