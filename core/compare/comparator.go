// Package compare runs one metric across several dispatch scenarios and
// attributes the difference to the named baseline, separating coordination
// gains from diversification alone.
package compare

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/firmfleet/core/fleet"
	"github.com/kilianp07/firmfleet/core/series"
)

// Metric is a named scalar computation over one scenario. Every evaluation
// receives its scenario explicitly; no ambient selection state exists.
type Metric struct {
	Name string
	Eval func(*fleet.Scenario) (float64, error)
}

// Delta is a signed percentage-point difference of one scenario against the
// baseline.
type Delta struct {
	Scenario string
	Baseline string
	// Points is (scenario - baseline) * 100 when the metric is a fraction.
	Points float64
}

// Report carries per-scenario results plus pairwise deltas for one metric.
type Report struct {
	RunID    string
	Metric   string
	Baseline string
	Results  map[string]float64
	Deltas   []Delta
}

// Compare evaluates the metric against every scenario and diffs the results
// against the baseline scenario. All scenarios must share plant count and
// metadata; a comparison needs at least two.
func Compare(baseline string, metric Metric, scenarios ...*fleet.Scenario) (*Report, error) {
	if len(scenarios) < 2 {
		return nil, fmt.Errorf("compare %s: %w: need at least two scenarios, got %d",
			metric.Name, series.ErrInsufficientData, len(scenarios))
	}
	var base *fleet.Scenario
	for _, s := range scenarios {
		if s.Name == baseline {
			base = s
		}
	}
	if base == nil {
		return nil, fmt.Errorf("compare %s: baseline scenario %q not provided", metric.Name, baseline)
	}
	for _, s := range scenarios {
		if err := fleet.Compatible(base, s); err != nil {
			return nil, err
		}
	}

	rep := &Report{
		RunID:    uuid.NewString(),
		Metric:   metric.Name,
		Baseline: baseline,
		Results:  make(map[string]float64, len(scenarios)),
	}
	for _, s := range scenarios {
		v, err := metric.Eval(s)
		if err != nil {
			return nil, fmt.Errorf("compare %s: scenario %s: %w", metric.Name, s.Name, err)
		}
		rep.Results[s.Name] = v
	}
	for _, s := range scenarios {
		if s.Name == baseline {
			continue
		}
		rep.Deltas = append(rep.Deltas, Delta{
			Scenario: s.Name,
			Baseline: baseline,
			Points:   (rep.Results[s.Name] - rep.Results[baseline]) * 100,
		})
	}
	return rep, nil
}
