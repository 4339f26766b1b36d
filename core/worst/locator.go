// Package worst locates the lowest-performing contiguous window of an
// aggregate series, typically the worst week of the year.
package worst

import (
	"github.com/kilianp07/firmfleet/core/series"
)

// Window identifies the located bucket and its hour offsets for downstream
// slicing.
type Window struct {
	Index     int
	StartHour int
	EndHour   int // exclusive
	Mean      float64
}

// Locate returns the whole bucket of the given width with the lowest mean
// aggregate value. The trailing partial-year remainder is excluded, matching
// the weekly truncation rule. Exact ties resolve to the lowest index.
func Locate(hourlyAgg []float64, width int) (Window, error) {
	if width <= 0 {
		return Window{}, &series.RangeError{Start: 0, Length: width, Hours: len(hourlyAgg)}
	}
	buckets := len(hourlyAgg) / width
	if buckets == 0 {
		return Window{}, series.ErrInsufficientData
	}
	best := Window{Index: -1}
	for b := 0; b < buckets; b++ {
		sum := 0.0
		for h := b * width; h < (b+1)*width; h++ {
			sum += hourlyAgg[h]
		}
		mean := sum / float64(width)
		if best.Index < 0 || mean < best.Mean {
			best = Window{Index: b, StartHour: b * width, EndHour: (b + 1) * width, Mean: mean}
		}
	}
	return best, nil
}
