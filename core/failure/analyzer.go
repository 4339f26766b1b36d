// Package failure characterizes how individual-plant shortfalls combine into
// aggregate shortfall: joint and conditional failure rates between plant
// groups, the fleet-wide simultaneous-failure distribution, and the Pearson
// correlation structure of group failure signals.
package failure

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/firmfleet/core/availability"
	"github.com/kilianp07/firmfleet/core/fleet"
	"github.com/kilianp07/firmfleet/core/series"
)

// Analyzer evaluates failure structure against a per-plant threshold. A plant
// fails an hour when its output falls below the threshold; Epsilon keeps the
// boundary consistent with the availability comparisons, so a value within
// rounding error of the threshold is not a failure.
type Analyzer struct {
	Threshold float64
	Epsilon   float64
}

// New returns an Analyzer for the given per-plant threshold with the shared
// default comparison tolerance.
func New(threshold float64) Analyzer {
	return Analyzer{Threshold: threshold, Epsilon: availability.DefaultEpsilon}
}

func (a Analyzer) failing(v float64) bool {
	return v < a.Threshold-a.Epsilon
}

// GroupFailureFraction returns, per hour, the share of the group's plants
// failing that hour.
func (a Analyzer) GroupFailureFraction(m *series.Matrix, group []int) ([]float64, error) {
	if len(group) == 0 {
		return nil, series.ErrInsufficientData
	}
	frac := make([]float64, m.Hours())
	for h := 0; h < m.Hours(); h++ {
		fails := 0
		for _, p := range group {
			if a.failing(m.At(h, p)) {
				fails++
			}
		}
		frac[h] = float64(fails) / float64(len(group))
	}
	return frac, nil
}

// JointFailureRepresentative returns the fraction of hours where the first
// plant of each group (stable group ordering) fails simultaneously. This is
// an exact per-plant joint statistic; it is not the group-aggregate rate and
// the two must not be conflated.
func (a Analyzer) JointFailureRepresentative(m *series.Matrix, groupA, groupB []int) (float64, error) {
	if len(groupA) == 0 || len(groupB) == 0 || m.Hours() == 0 {
		return 0, series.ErrInsufficientData
	}
	pa, pb := groupA[0], groupB[0]
	joint := 0
	for h := 0; h < m.Hours(); h++ {
		if a.failing(m.At(h, pa)) && a.failing(m.At(h, pb)) {
			joint++
		}
	}
	return float64(joint) / float64(m.Hours()), nil
}

// JointFailureAggregate returns the fraction of hours where both groups'
// failure fractions exceed the majority fraction in the same hour. With a
// group compared against itself this reduces to that group's own
// above-majority rate.
func (a Analyzer) JointFailureAggregate(m *series.Matrix, groupA, groupB []int, majority float64) (float64, error) {
	fa, err := a.GroupFailureFraction(m, groupA)
	if err != nil {
		return 0, err
	}
	fb, err := a.GroupFailureFraction(m, groupB)
	if err != nil {
		return 0, err
	}
	if len(fa) == 0 {
		return 0, series.ErrInsufficientData
	}
	joint := 0
	for h := range fa {
		if fa[h] > majority && fb[h] > majority {
			joint++
		}
	}
	return float64(joint) / float64(len(fa)), nil
}

// Conditional quantifies co-movement between two groups.
type Conditional struct {
	// Rate is group B's mean failure fraction over the hours where group
	// A's fraction exceeded the trigger.
	Rate float64
	// Unconditional is B's mean failure fraction over all hours.
	Unconditional float64
	// TriggerHours is how many hours activated the condition.
	TriggerHours int
}

// Conditional returns group B's failure rate restricted to hours where group
// A's failure fraction exceeds the trigger, next to B's unconditional rate.
// Zero trigger hours make the conditional rate undefined.
func (a Analyzer) Conditional(m *series.Matrix, groupA, groupB []int, trigger float64) (Conditional, error) {
	fa, err := a.GroupFailureFraction(m, groupA)
	if err != nil {
		return Conditional{}, err
	}
	fb, err := a.GroupFailureFraction(m, groupB)
	if err != nil {
		return Conditional{}, err
	}
	if len(fb) == 0 {
		return Conditional{}, series.ErrInsufficientData
	}
	var condSum float64
	trigHours := 0
	for h := range fa {
		if fa[h] > trigger {
			condSum += fb[h]
			trigHours++
		}
	}
	if trigHours == 0 {
		return Conditional{}, series.ErrUndefinedStatistic
	}
	return Conditional{
		Rate:          condSum / float64(trigHours),
		Unconditional: stat.Mean(fb, nil),
		TriggerHours:  trigHours,
	}, nil
}

// Simultaneous is the fleet-wide distribution of per-hour failing-plant
// counts.
type Simultaneous struct {
	// Counts holds the failing-plant count for every hour.
	Counts []int
	// Histogram maps a simultaneous-failure count to the number of hours
	// observing it; its mass equals the hour count of the series.
	Histogram []int
	// Max is the largest simultaneous-failure count observed.
	Max int

	meanFailing float64
	failSamples int
}

// HoursAbove counts hours with strictly more than n plants failing.
func (s Simultaneous) HoursAbove(n int) int {
	hours := 0
	for _, c := range s.Counts {
		if c > n {
			hours++
		}
	}
	return hours
}

// MeanFailingOutput is the mean output over failing (sub-threshold) samples
// only, separating soft partial shortfalls from hard near-zero ones. With no
// failing sample in the series the mean is undefined.
func (s Simultaneous) MeanFailingOutput() (float64, error) {
	if s.failSamples == 0 {
		return 0, series.ErrUndefinedStatistic
	}
	return s.meanFailing, nil
}

// Simultaneous scans the full matrix and builds the simultaneous-failure
// distribution.
func (a Analyzer) Simultaneous(m *series.Matrix) (Simultaneous, error) {
	if m == nil || m.Hours() == 0 {
		return Simultaneous{}, series.ErrInsufficientData
	}
	s := Simultaneous{
		Counts:    make([]int, m.Hours()),
		Histogram: make([]int, m.Plants()+1),
	}
	var failSum float64
	for h := 0; h < m.Hours(); h++ {
		fails := 0
		for p := 0; p < m.Plants(); p++ {
			v := m.At(h, p)
			if a.failing(v) {
				fails++
				failSum += v
				s.failSamples++
			}
		}
		s.Counts[h] = fails
		s.Histogram[fails]++
		if fails > s.Max {
			s.Max = fails
		}
	}
	if s.failSamples > 0 {
		s.meanFailing = failSum / float64(s.failSamples)
	}
	return s, nil
}

// CorrelationMatrix holds pairwise Pearson coefficients of group failure
// fractions. Degenerate, zero-variance signals yield explicitly undefined
// cells instead of NaN.
type CorrelationMatrix struct {
	Names   []string
	coeff   [][]float64
	defined [][]bool
}

// At returns the coefficient for groups i and j, or ErrUndefinedStatistic
// when either failure signal is constant over the year.
func (c *CorrelationMatrix) At(i, j int) (float64, error) {
	if !c.defined[i][j] {
		return 0, series.ErrUndefinedStatistic
	}
	return c.coeff[i][j], nil
}

// Correlations computes the pairwise Pearson correlation of the hourly
// failure-fraction series of the named fleet groups.
func (a Analyzer) Correlations(m *series.Matrix, f *fleet.Fleet, names []string) (*CorrelationMatrix, error) {
	if len(names) == 0 {
		return nil, series.ErrInsufficientData
	}
	signals := make([][]float64, len(names))
	for i, n := range names {
		frac, err := a.GroupFailureFraction(m, f.Group(n))
		if err != nil {
			return nil, err
		}
		signals[i] = frac
	}
	cm := &CorrelationMatrix{
		Names:   append([]string(nil), names...),
		coeff:   make([][]float64, len(names)),
		defined: make([][]bool, len(names)),
	}
	for i := range names {
		cm.coeff[i] = make([]float64, len(names))
		cm.defined[i] = make([]bool, len(names))
		for j := range names {
			r := stat.Correlation(signals[i], signals[j], nil)
			if math.IsNaN(r) {
				continue
			}
			cm.coeff[i][j] = r
			cm.defined[i][j] = true
		}
	}
	return cm, nil
}
