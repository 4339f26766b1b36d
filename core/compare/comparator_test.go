package compare

import (
	"errors"
	"math"
	"testing"

	"github.com/kilianp07/firmfleet/core/aggregate"
	"github.com/kilianp07/firmfleet/core/availability"
	"github.com/kilianp07/firmfleet/core/fleet"
	"github.com/kilianp07/firmfleet/core/series"
)

func scenario(t *testing.T, name string, level float64, f *fleet.Fleet) *fleet.Scenario {
	t.Helper()
	data := make([]float64, series.HoursPerYear*f.Size())
	for i := range data {
		data[i] = level
	}
	out, err := series.NewYear(data, f.Size())
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	return &fleet.Scenario{Name: name, Output: out, TargetGW: 2, PlantTargetGW: 1, Fleet: f}
}

func testFleet(t *testing.T, groups ...string) *fleet.Fleet {
	t.Helper()
	ps := make([]fleet.Plant, len(groups))
	for i, g := range groups {
		ps[i] = fleet.Plant{ID: i, Group: g}
	}
	f, err := fleet.NewFleet(ps)
	if err != nil {
		t.Fatalf("fleet: %v", err)
	}
	return f
}

func aggregateAvailability(target float64) Metric {
	agg := aggregate.New()
	an := availability.New()
	return Metric{
		Name: "aggregate_availability_hourly",
		Eval: func(s *fleet.Scenario) (float64, error) {
			sr, err := agg.Series(s.Output, series.Hourly)
			if err != nil {
				return 0, err
			}
			return an.Aggregate(sr, target)
		},
	}
}

func TestCompareDeltas(t *testing.T) {
	f := testFleet(t, "a", "b")
	greedy := scenario(t, "greedy", 0.9, f) // aggregate 1.8, misses 2.0
	opt := scenario(t, "optimized", 1.1, f) // aggregate 2.2, meets 2.0
	rep, err := Compare("greedy", aggregateAvailability(2.0), greedy, opt)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if rep.RunID == "" || rep.Metric != "aggregate_availability_hourly" {
		t.Fatalf("bad report header %+v", rep)
	}
	if rep.Results["greedy"] != 0 || rep.Results["optimized"] != 1 {
		t.Fatalf("bad results %v", rep.Results)
	}
	if len(rep.Deltas) != 1 {
		t.Fatalf("expected one delta, got %d", len(rep.Deltas))
	}
	d := rep.Deltas[0]
	if d.Scenario != "optimized" || d.Baseline != "greedy" || math.Abs(d.Points-100) > 1e-9 {
		t.Fatalf("bad delta %+v", d)
	}
}

func TestCompareNeedsTwoScenarios(t *testing.T) {
	f := testFleet(t, "a", "b")
	s := scenario(t, "greedy", 1, f)
	if _, err := Compare("greedy", aggregateAvailability(2), s); !errors.Is(err, series.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCompareMismatchedFleets(t *testing.T) {
	fa := testFleet(t, "a", "b")
	fb := testFleet(t, "a", "c")
	a := scenario(t, "greedy", 1, fa)
	b := scenario(t, "optimized", 1, fb)
	var me *fleet.ScenarioMismatchError
	if _, err := Compare("greedy", aggregateAvailability(2), a, b); !errors.As(err, &me) {
		t.Fatalf("expected ScenarioMismatchError, got %v", err)
	}
}

func TestCompareUnknownBaseline(t *testing.T) {
	f := testFleet(t, "a", "b")
	a := scenario(t, "greedy", 1, f)
	b := scenario(t, "optimized", 1, f)
	if _, err := Compare("perfect", aggregateAvailability(2), a, b); err == nil {
		t.Fatalf("expected error for unknown baseline")
	}
}
