package series

import "fmt"

// HoursPerYear is the fixed row count of a full-year matrix. Leap hours are
// not modelled.
const HoursPerYear = 8760

// HoursPerDay is the number of source hours per daily bucket.
const HoursPerDay = 24

// HoursPerWeek is the number of source hours per weekly bucket.
const HoursPerWeek = 168

// Resolution identifies how many source hours are averaged into one sample.
type Resolution int

const (
	Hourly Resolution = iota
	Daily
	Weekly
	Annual
)

// Factor returns the number of source hours per bucket at this resolution.
func (r Resolution) Factor() int {
	switch r {
	case Hourly:
		return 1
	case Daily:
		return HoursPerDay
	case Weekly:
		return HoursPerWeek
	case Annual:
		return HoursPerYear
	}
	return 0
}

// Buckets returns how many whole buckets fit into the given hour count.
// A trailing partial bucket is discarded, never padded.
func (r Resolution) Buckets(hours int) int {
	f := r.Factor()
	if f <= 0 || hours < 0 {
		return 0
	}
	return hours / f
}

// Valid reports whether r is one of the defined resolutions.
func (r Resolution) Valid() bool {
	return r.Factor() > 0
}

func (r Resolution) String() string {
	switch r {
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Annual:
		return "annual"
	}
	return fmt.Sprintf("resolution(%d)", int(r))
}

// ParseResolution converts a configuration string into a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch s {
	case "hourly":
		return Hourly, nil
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "annual":
		return Annual, nil
	}
	return 0, fmt.Errorf("unknown resolution %q", s)
}
