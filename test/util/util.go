// Package util provides synthetic fleet fixtures shared across tests.
//
// SolarFleet builds a full-year output matrix with a day/night cycle and
// seeded per-plant weather noise, so availability and failure statistics have
// realistic structure without depending on study data.
package util

import (
	"math"
	"math/rand"
	"testing"

	"github.com/kilianp07/firmfleet/core/fleet"
	"github.com/kilianp07/firmfleet/core/series"
)

// SolarFleet returns a full-year scenario for the given group layout. Each
// plant produces up to 1 GW with midday peaks and occasional multi-hour
// weather dips correlated within a group.
func SolarFleet(t *testing.T, name string, seed int64, groups ...string) *fleet.Scenario {
	t.Helper()
	plants := make([]fleet.Plant, len(groups))
	for i, g := range groups {
		plants[i] = fleet.Plant{ID: i, Group: g, CapacityGW: 6}
	}
	f, err := fleet.NewFleet(plants)
	if err != nil {
		t.Fatalf("fleet: %v", err)
	}

	rng := rand.New(rand.NewSource(seed))
	groupWeather := make(map[string][]float64, len(groups))
	for _, g := range groups {
		if groupWeather[g] != nil {
			continue
		}
		w := make([]float64, series.HoursPerYear)
		level := 1.0
		for h := range w {
			// Weather persists for stretches of hours within a group.
			if h%72 == 0 {
				level = 0.4 + 0.6*rng.Float64()
			}
			w[h] = level
		}
		groupWeather[g] = w
	}

	data := make([]float64, series.HoursPerYear*len(groups))
	for h := 0; h < series.HoursPerYear; h++ {
		daylight := math.Max(0, math.Sin(float64(h%24-6)/12*math.Pi))
		for p, g := range groups {
			v := daylight * groupWeather[g][h] * (0.9 + 0.2*rng.Float64())
			if v > 1 {
				v = 1
			}
			data[h*len(groups)+p] = v
		}
	}
	out, err := series.NewYear(data, len(groups))
	if err != nil {
		t.Fatalf("output: %v", err)
	}

	// Battery state mirrors output with a simple charge proxy.
	batt := make([]float64, len(data))
	for i, v := range data {
		batt[i] = 16 * v
	}
	bm, err := series.NewYear(batt, len(groups))
	if err != nil {
		t.Fatalf("battery: %v", err)
	}

	return &fleet.Scenario{
		Name:          name,
		Output:        out,
		Battery:       bm,
		TargetGW:      float64(len(groups)) * 0.8,
		PlantTargetGW: 1,
		Fleet:         f,
	}
}

// FlatScenario returns a full-year scenario with every plant at a constant
// level, for exact-value assertions.
func FlatScenario(t *testing.T, name string, level float64, f *fleet.Fleet) *fleet.Scenario {
	t.Helper()
	data := make([]float64, series.HoursPerYear*f.Size())
	for i := range data {
		data[i] = level
	}
	out, err := series.NewYear(data, f.Size())
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	return &fleet.Scenario{
		Name:          name,
		Output:        out,
		TargetGW:      float64(f.Size()) * 0.8,
		PlantTargetGW: 1,
		Fleet:         f,
	}
}
