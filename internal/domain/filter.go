package domain

// Dimension names a filterable attribute.
type Dimension string

const (
	DimensionBreed   Dimension = "breed"
	DimensionHabitat Dimension = "habitat"
	DimensionStatus  Dimension = "status"
)

// Dimensions lists all filter dimensions.
var Dimensions = []Dimension{DimensionBreed, DimensionHabitat, DimensionStatus}

// FilterState is the active selection. Zero values mean "unset".
// Set dimensions are combined with logical AND.
type FilterState struct {
	Breed   Breed   `json:"breed,omitempty"`
	Habitat Habitat `json:"habitat,omitempty"`
	Status  Status  `json:"status,omitempty"`
}

// IsZero reports whether no dimension is set.
func (f FilterState) IsZero() bool {
	return f == FilterState{}
}

// Matches reports whether u satisfies every set dimension.
func (f FilterState) Matches(u *Unicorn) bool {
	if f.Breed != "" && u.Breed != f.Breed {
		return false
	}
	if f.Habitat != "" && u.Habitat != f.Habitat {
		return false
	}
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	return true
}

// Get returns the value of a dimension as a string.
func (f FilterState) Get(d Dimension) string {
	switch d {
	case DimensionBreed:
		return string(f.Breed)
	case DimensionHabitat:
		return string(f.Habitat)
	case DimensionStatus:
		return string(f.Status)
	}
	return ""
}
