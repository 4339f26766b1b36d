package fleet

import (
	"fmt"
	"sort"
)

// Plant describes one generation+storage site. The column index of every
// scenario matrix maps one-to-one onto a Plant entry, and group membership is
// fixed for the whole analysed year.
type Plant struct {
	ID         int     `json:"id"`
	Group      string  `json:"group"`
	CapacityGW float64 `json:"capacity_gw"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// Fleet is the ordered plant metadata table for one plant set.
type Fleet struct {
	plants []Plant
}

// NewFleet validates that plant IDs follow the stable 0..N-1 column indexing
// and that every plant carries a group label.
func NewFleet(plants []Plant) (*Fleet, error) {
	if len(plants) == 0 {
		return nil, fmt.Errorf("fleet: no plants")
	}
	for i, p := range plants {
		if p.ID != i {
			return nil, fmt.Errorf("fleet: plant at index %d has id %d, want %d", i, p.ID, i)
		}
		if p.Group == "" {
			return nil, fmt.Errorf("fleet: plant %d has no group", i)
		}
	}
	cp := make([]Plant, len(plants))
	copy(cp, plants)
	return &Fleet{plants: cp}, nil
}

// Size returns the number of plants.
func (f *Fleet) Size() int { return len(f.plants) }

// Plant returns the metadata row for a column index.
func (f *Fleet) Plant(i int) Plant { return f.plants[i] }

// Group returns the column indices belonging to the named group, in stable
// column order. Representative-plant statistics rely on this ordering.
func (f *Fleet) Group(name string) []int {
	var idx []int
	for i, p := range f.plants {
		if p.Group == name {
			idx = append(idx, i)
		}
	}
	return idx
}

// GroupNames returns all group labels sorted alphabetically.
func (f *Fleet) GroupNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, p := range f.plants {
		if !seen[p.Group] {
			seen[p.Group] = true
			names = append(names, p.Group)
		}
	}
	sort.Strings(names)
	return names
}

// SameLayout reports whether two fleets have identical plant count and
// per-column group labels.
func (f *Fleet) SameLayout(other *Fleet) bool {
	if other == nil || len(f.plants) != len(other.plants) {
		return false
	}
	for i := range f.plants {
		if f.plants[i].Group != other.plants[i].Group {
			return false
		}
	}
	return true
}
