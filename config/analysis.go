package config

import "fmt"

// AnalysisConfig carries the externally supplied analysis parameters:
// thresholds at both granularities, the comparison tolerance and the
// structural knobs of the failure study. Thresholds are never derived from
// the data.
type AnalysisConfig struct {
	// TargetGW is the aggregate capacity target for the fleet.
	TargetGW float64 `json:"target_gw"`
	// SoftTargetGW is the looser aggregate threshold used for good-day
	// counting and the secondary availability figure.
	SoftTargetGW float64 `json:"soft_target_gw"`
	// PlantTargetGW is the per-plant nameplate threshold.
	PlantTargetGW float64 `json:"plant_target_gw"`
	// Epsilon tolerates representable rounding error on threshold
	// comparisons. Sized to the GW threshold scale.
	Epsilon float64 `json:"epsilon"`
	// TriggerFraction is the group failure fraction activating the
	// conditional co-failure statistic.
	TriggerFraction float64 `json:"trigger_fraction"`
	// MajorityFraction is the group failure fraction treated as a
	// group-level failure in aggregate joint statistics.
	MajorityFraction float64 `json:"majority_fraction"`
	// FailureCountThreshold is the simultaneous-failure count above which
	// an hour is counted as a correlated-failure hour.
	FailureCountThreshold int `json:"failure_count_threshold"`
	// WorstWindowHours is the width of the worst-period search window.
	WorstWindowHours int `json:"worst_window_hours"`
	// Baseline names the scenario deltas are attributed against.
	Baseline string `json:"baseline"`
	// Groups lists the fleet groups entering the correlation matrix; empty
	// means all groups found in the metadata.
	Groups []string `json:"groups"`
}

// SetDefaults applies the 24/7 clean power study defaults.
func (c *AnalysisConfig) SetDefaults() {
	if c.TargetGW == 0 {
		c.TargetGW = 100
	}
	if c.SoftTargetGW == 0 {
		c.SoftTargetGW = 95
	}
	if c.PlantTargetGW == 0 {
		c.PlantTargetGW = 1
	}
	if c.Epsilon == 0 {
		c.Epsilon = 1e-3
	}
	if c.TriggerFraction == 0 {
		c.TriggerFraction = 0.5
	}
	if c.MajorityFraction == 0 {
		c.MajorityFraction = 0.5
	}
	if c.FailureCountThreshold == 0 {
		c.FailureCountThreshold = 50
	}
	if c.WorstWindowHours == 0 {
		c.WorstWindowHours = 168
	}
	if c.Baseline == "" {
		c.Baseline = "greedy"
	}
}

// Validate checks mandatory fields.
func (c AnalysisConfig) Validate() error {
	if c.TargetGW <= 0 || c.PlantTargetGW <= 0 {
		return fmt.Errorf("targets must be positive")
	}
	if c.SoftTargetGW > c.TargetGW {
		return fmt.Errorf("soft target %v above target %v", c.SoftTargetGW, c.TargetGW)
	}
	if c.Epsilon < 0 {
		return fmt.Errorf("epsilon must not be negative")
	}
	if c.TriggerFraction < 0 || c.TriggerFraction >= 1 {
		return fmt.Errorf("trigger_fraction must be in [0,1)")
	}
	if c.MajorityFraction < 0 || c.MajorityFraction >= 1 {
		return fmt.Errorf("majority_fraction must be in [0,1)")
	}
	if c.WorstWindowHours <= 0 {
		return fmt.Errorf("worst_window_hours must be positive")
	}
	return nil
}
