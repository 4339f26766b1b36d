package aggregate

import (
	"sync"

	"github.com/kilianp07/firmfleet/core/series"
)

// Series holds the two aligned views of one matrix at one resolution: the
// per-plant values and the fleet sum, bucket for bucket.
type Series struct {
	Resolution series.Resolution
	Buckets    int
	// Individual is buckets-by-plants: each plant reduced to its bucket
	// mean independently.
	Individual *series.Matrix
	// Aggregate is the fleet sum per bucket. Summing plant means equals
	// the mean hourly aggregate of the bucket, so either reduction order
	// yields this series.
	Aggregate []float64
}

// Aggregator derives resolution-indexed series from raw matrices, memoizing
// per (matrix, resolution) pair so repeated metrics share one reduction.
type Aggregator struct {
	mu    sync.Mutex
	cache map[cacheKey]*Series
}

type cacheKey struct {
	m *series.Matrix
	r series.Resolution
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{cache: map[cacheKey]*Series{}}
}

// Series returns the aligned individual and aggregate series for the matrix
// at the given resolution. Results are cached; the returned value is shared
// and must be treated as read-only, like the matrices themselves.
func (a *Aggregator) Series(m *series.Matrix, r series.Resolution) (*Series, error) {
	a.mu.Lock()
	if s, ok := a.cache[cacheKey{m, r}]; ok {
		a.mu.Unlock()
		return s, nil
	}
	a.mu.Unlock()

	ind, err := m.Downsample(r)
	if err != nil {
		return nil, err
	}
	s := &Series{
		Resolution: r,
		Buckets:    ind.Hours(),
		Individual: ind,
		Aggregate:  ind.AggregatePlants(),
	}

	a.mu.Lock()
	a.cache[cacheKey{m, r}] = s
	a.mu.Unlock()
	return s, nil
}

// HourlyAggregate is a convenience for the untruncated hourly fleet sum.
func (a *Aggregator) HourlyAggregate(m *series.Matrix) ([]float64, error) {
	s, err := a.Series(m, series.Hourly)
	if err != nil {
		return nil, err
	}
	return s.Aggregate, nil
}
