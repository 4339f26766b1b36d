package series

import (
	"errors"
	"fmt"
)

// ErrInsufficientData signals an analysis attempted over zero valid buckets
// or samples. Returning a vacuous 100%/0% figure instead would be worse than
// a visible failure.
var ErrInsufficientData = errors.New("insufficient data")

// ErrUndefinedStatistic signals a correlation or ratio requested over a
// degenerate series (zero variance or zero denominator).
var ErrUndefinedStatistic = errors.New("statistic undefined")

// ShapeError reports matrix dimensions violating the declared shape contract.
type ShapeError struct {
	WantHours, WantPlants int
	GotHours, GotPlants   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("matrix shape %dx%d does not match declared %dx%d",
		e.GotHours, e.GotPlants, e.WantHours, e.WantPlants)
}

// RangeError reports a requested window or bucket outside matrix bounds.
type RangeError struct {
	Start, Length, Hours int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("window [%d, %d+%d) out of range for %d hours",
		e.Start, e.Start, e.Length, e.Hours)
}
