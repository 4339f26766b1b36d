package fleet

import (
	"fmt"

	"github.com/kilianp07/firmfleet/core/series"
)

// ScenarioMismatchError reports a cross-scenario comparison attempted over
// incompatible plant sets.
type ScenarioMismatchError struct {
	A, B string
}

func (e *ScenarioMismatchError) Error() string {
	return fmt.Sprintf("scenarios %q and %q do not share plant set and metadata", e.A, e.B)
}

// Scenario is an immutable snapshot of one dispatch strategy's outcome: the
// per-plant output matrix, the parallel battery state matrix and the targets
// the fleet was dispatched against. Scenarios are produced by external
// simulators and never mutated here.
type Scenario struct {
	Name string
	// Output is power in GW, Battery is stored energy in GWh. Both are
	// full-year hours-by-plants matrices of identical shape.
	Output  *series.Matrix
	Battery *series.Matrix
	// TargetGW is the aggregate capacity target, PlantTargetGW the
	// per-plant nameplate target.
	TargetGW      float64
	PlantTargetGW float64
	Fleet         *Fleet
}

// Validate enforces the construction-time shape contract: a full-year output
// matrix, one metadata row per column, and a battery matrix (when present)
// matching the output shape.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario: name is required")
	}
	if s.Output == nil {
		return fmt.Errorf("scenario %s: output matrix is required", s.Name)
	}
	if s.Output.Hours() != series.HoursPerYear {
		return &series.ShapeError{
			WantHours: series.HoursPerYear, WantPlants: s.Output.Plants(),
			GotHours: s.Output.Hours(), GotPlants: s.Output.Plants(),
		}
	}
	if s.Fleet == nil || s.Fleet.Size() != s.Output.Plants() {
		size := 0
		if s.Fleet != nil {
			size = s.Fleet.Size()
		}
		return fmt.Errorf("scenario %s: %d metadata rows for %d plants", s.Name, size, s.Output.Plants())
	}
	if s.Battery != nil {
		if s.Battery.Hours() != s.Output.Hours() || s.Battery.Plants() != s.Output.Plants() {
			return &series.ShapeError{
				WantHours: s.Output.Hours(), WantPlants: s.Output.Plants(),
				GotHours: s.Battery.Hours(), GotPlants: s.Battery.Plants(),
			}
		}
	}
	if s.TargetGW <= 0 || s.PlantTargetGW <= 0 {
		return fmt.Errorf("scenario %s: targets must be positive", s.Name)
	}
	return nil
}

// Compatible returns a *ScenarioMismatchError unless both scenarios share
// plant count and per-column metadata.
func Compatible(a, b *Scenario) error {
	if a.Output.Plants() != b.Output.Plants() || !a.Fleet.SameLayout(b.Fleet) {
		return &ScenarioMismatchError{A: a.Name, B: b.Name}
	}
	return nil
}
