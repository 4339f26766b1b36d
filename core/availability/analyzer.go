// Package availability computes threshold-crossing statistics over the
// aggregator's resolution-indexed series: how often individual plants and the
// fleet aggregate meet their targets, and how many whole days do so without a
// single shortfall hour.
package availability

import (
	"github.com/kilianp07/firmfleet/core/aggregate"
	"github.com/kilianp07/firmfleet/core/series"
)

// DefaultEpsilon is the default comparison tolerance, sized for threshold
// scales of roughly 1 to 100 GW.
const DefaultEpsilon = 1e-3

// Analyzer evaluates threshold crossings. Epsilon absorbs representable
// rounding error accumulated upstream: a sum of 99.999999999999986 standing
// for an exact 100.0 meets a >=100 threshold. It is a documented contract of
// every comparison, not a per-call-site constant.
type Analyzer struct {
	Epsilon float64
}

// New returns an Analyzer with DefaultEpsilon.
func New() Analyzer {
	return Analyzer{Epsilon: DefaultEpsilon}
}

// Meets reports whether a value satisfies a >=threshold comparison under the
// analyzer's tolerance.
func (a Analyzer) Meets(v, threshold float64) bool {
	return v >= threshold-a.Epsilon
}

// Individual returns the fraction of samples meeting the per-plant threshold,
// averaged first within each plant and then across plants, so every plant
// carries equal weight regardless of its own variance.
func (a Analyzer) Individual(s *aggregate.Series, perPlant float64) (float64, error) {
	if s == nil || s.Buckets == 0 {
		return 0, series.ErrInsufficientData
	}
	plants := s.Individual.Plants()
	total := 0.0
	for p := 0; p < plants; p++ {
		hits := 0
		for b := 0; b < s.Buckets; b++ {
			if a.Meets(s.Individual.At(b, p), perPlant) {
				hits++
			}
		}
		total += float64(hits) / float64(s.Buckets)
	}
	return total / float64(plants), nil
}

// Aggregate returns the fraction of buckets whose fleet sum meets the
// aggregate threshold.
func (a Analyzer) Aggregate(s *aggregate.Series, target float64) (float64, error) {
	if s == nil || s.Buckets == 0 {
		return 0, series.ErrInsufficientData
	}
	hits := 0
	for _, v := range s.Aggregate {
		if a.Meets(v, target) {
			hits++
		}
	}
	return float64(hits) / float64(s.Buckets), nil
}

// PerfectDays counts calendar days where all 24 hourly aggregate values meet
// the target. One shortfall hour disqualifies the day. Only whole days are
// considered.
func (a Analyzer) PerfectDays(hourlyAgg []float64, target float64) (int, error) {
	days := len(hourlyAgg) / series.HoursPerDay
	if days == 0 {
		return 0, series.ErrInsufficientData
	}
	count := 0
	for d := 0; d < days; d++ {
		perfect := true
		for h := d * series.HoursPerDay; h < (d+1)*series.HoursPerDay; h++ {
			if !a.Meets(hourlyAgg[h], target) {
				perfect = false
				break
			}
		}
		if perfect {
			count++
		}
	}
	return count, nil
}

// GoodDays counts calendar days whose minimum hourly aggregate still meets
// the looser soft threshold.
func (a Analyzer) GoodDays(hourlyAgg []float64, soft float64) (int, error) {
	days := len(hourlyAgg) / series.HoursPerDay
	if days == 0 {
		return 0, series.ErrInsufficientData
	}
	count := 0
	for d := 0; d < days; d++ {
		low := hourlyAgg[d*series.HoursPerDay]
		for h := d*series.HoursPerDay + 1; h < (d+1)*series.HoursPerDay; h++ {
			if hourlyAgg[h] < low {
				low = hourlyAgg[h]
			}
		}
		if a.Meets(low, soft) {
			count++
		}
	}
	return count, nil
}
