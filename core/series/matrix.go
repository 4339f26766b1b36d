package series

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is an immutable hours-by-plants time series. Rows are ordered hourly
// samples, columns are plants identified by their stable index. Values share
// one unit (GW for output, GWh for battery state); no conversion is applied.
//
// Every operation returns a fresh result, so a Matrix can be read by any
// number of concurrent analyses.
type Matrix struct {
	data   *mat.Dense
	hours  int
	plants int
}

// New builds a Matrix from row-major data with a declared shape. The raw
// slice is copied; callers keep ownership of data. A mismatch between the
// declared shape and the slice length is a *ShapeError, never a broadcast.
func New(data []float64, hours, plants int) (*Matrix, error) {
	if hours <= 0 || plants <= 0 || len(data) != hours*plants {
		got := 0
		if plants > 0 {
			got = len(data) / plants
		}
		return nil, &ShapeError{WantHours: hours, WantPlants: plants, GotHours: got, GotPlants: plants}
	}
	cp := make([]float64, len(data))
	copy(cp, data)
	return &Matrix{data: mat.NewDense(hours, plants, cp), hours: hours, plants: plants}, nil
}

// NewYear builds a full-year Matrix, enforcing the fixed 8,760-row contract
// scenarios are built on.
func NewYear(data []float64, plants int) (*Matrix, error) {
	if plants <= 0 || len(data) != HoursPerYear*plants {
		got := 0
		if plants > 0 {
			got = len(data) / plants
		}
		return nil, &ShapeError{WantHours: HoursPerYear, WantPlants: plants, GotHours: got, GotPlants: plants}
	}
	return New(data, HoursPerYear, plants)
}

// Hours returns the row count.
func (m *Matrix) Hours() int { return m.hours }

// Plants returns the column count.
func (m *Matrix) Plants() int { return m.plants }

// At returns the value for the given hour and plant.
func (m *Matrix) At(hour, plant int) float64 { return m.data.At(hour, plant) }

// Plant returns a copy of one plant's series.
func (m *Matrix) Plant(p int) []float64 {
	return mat.Col(nil, p, m.data)
}

// Hour returns a copy of one hour's values across all plants.
func (m *Matrix) Hour(h int) []float64 {
	return mat.Row(nil, h, m.data)
}

// AggregatePlants sums across the plant dimension, preserving row order.
func (m *Matrix) AggregatePlants() []float64 {
	agg := make([]float64, m.hours)
	row := make([]float64, m.plants)
	for h := 0; h < m.hours; h++ {
		mat.Row(row, h, m.data)
		agg[h] = floats.Sum(row)
	}
	return agg
}

// SliceWindow returns a copy of the rows [start, start+length). Windows
// beyond the matrix bounds are a *RangeError.
func (m *Matrix) SliceWindow(start, length int) (*Matrix, error) {
	if start < 0 || length <= 0 || start+length > m.hours {
		return nil, &RangeError{Start: start, Length: length, Hours: m.hours}
	}
	sub := mat.DenseCopyOf(m.data.Slice(start, start+length, 0, m.plants))
	return &Matrix{data: sub, hours: length, plants: m.plants}, nil
}

// Downsample produces a new matrix with one row per whole bucket of the
// resolution, each value the mean of that bucket's hours for one plant.
// Plants are reduced independently; nothing is summed across columns.
// A trailing partial bucket is discarded. Zero whole buckets is
// ErrInsufficientData.
func (m *Matrix) Downsample(r Resolution) (*Matrix, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("downsample: invalid %s", r)
	}
	factor := r.Factor()
	buckets := r.Buckets(m.hours)
	if buckets == 0 {
		return nil, ErrInsufficientData
	}
	out := mat.NewDense(buckets, m.plants, nil)
	inv := 1.0 / float64(factor)
	for b := 0; b < buckets; b++ {
		for p := 0; p < m.plants; p++ {
			sum := 0.0
			for h := b * factor; h < (b+1)*factor; h++ {
				sum += m.data.At(h, p)
			}
			out.Set(b, p, sum*inv)
		}
	}
	return &Matrix{data: out, hours: buckets, plants: m.plants}, nil
}
