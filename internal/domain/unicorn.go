package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unicorn is a single population record.
// The ID is immutable once inserted; only Status may change afterwards.
type Unicorn struct {
	ID           string          `json:"id"` // display id, e.g. "#0042"
	Name         string          `json:"name"`
	Breed        Breed           `json:"breed"`
	Habitat      Habitat         `json:"habitat"`
	Region       Region          `json:"region"`
	Status       Status          `json:"status"`
	Value        decimal.Decimal `json:"value"` // whole dollars, never negative
	RegisteredAt time.Time       `json:"registered_at"`
}

// Breed of a unicorn. Declaration order is the ranking tie-break order.
type Breed string

const (
	BreedRainbow   Breed = "Rainbow"
	BreedCelestial Breed = "Celestial"
	BreedShadow    Breed = "Shadow"
	BreedCrystal   Breed = "Crystal"
	BreedGolden    Breed = "Golden"
)

// Breeds lists all breeds in declaration order.
var Breeds = []Breed{BreedRainbow, BreedCelestial, BreedShadow, BreedCrystal, BreedGolden}

// String returns the string representation of Breed.
func (b Breed) String() string {
	return string(b)
}

// IsValid checks if the breed is a declared value.
func (b Breed) IsValid() bool {
	return b.Rank() >= 0
}

// Rank returns the declaration index of the breed, or -1 if unknown.
func (b Breed) Rank() int {
	for i, v := range Breeds {
		if v == b {
			return i
		}
	}
	return -1
}

// ParseBreed resolves a breed name case-insensitively.
func ParseBreed(s string) (Breed, bool) {
	for _, v := range Breeds {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	return "", false
}

// Habitat where a unicorn lives.
type Habitat string

const (
	HabitatWild      Habitat = "Wild"
	HabitatCaptive   Habitat = "Captive"
	HabitatSanctuary Habitat = "Sanctuary"
	HabitatReserve   Habitat = "Reserve"
)

// Habitats lists all habitats in declaration order.
var Habitats = []Habitat{HabitatWild, HabitatCaptive, HabitatSanctuary, HabitatReserve}

// String returns the string representation of Habitat.
func (h Habitat) String() string {
	return string(h)
}

// IsValid checks if the habitat is a declared value.
func (h Habitat) IsValid() bool {
	for _, v := range Habitats {
		if v == h {
			return true
		}
	}
	return false
}

// ParseHabitat resolves a habitat name case-insensitively.
func ParseHabitat(s string) (Habitat, bool) {
	for _, v := range Habitats {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	return "", false
}

// Region is the geographic hotspot a unicorn is registered in.
type Region string

const (
	RegionEU      Region = "EU"
	RegionNA      Region = "NA"
	RegionAsia    Region = "Asia"
	RegionOceania Region = "Oceania"
	RegionAfrica  Region = "Africa"
)

// Regions lists all regions in declaration order.
var Regions = []Region{RegionEU, RegionNA, RegionAsia, RegionOceania, RegionAfrica}

// String returns the string representation of Region.
func (r Region) String() string {
	return string(r)
}

// IsValid checks if the region is a declared value.
func (r Region) IsValid() bool {
	for _, v := range Regions {
		if v == r {
			return true
		}
	}
	return false
}

// ParseRegion resolves a region name case-insensitively.
func ParseRegion(s string) (Region, bool) {
	for _, v := range Regions {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	return "", false
}

// Status is the trade status of a unicorn.
// Statuses only move forward: available -> reserved -> sold.
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
)

// Statuses lists all statuses in lifecycle order.
var Statuses = []Status{StatusAvailable, StatusReserved, StatusSold}

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks if the status is a declared value.
func (s Status) IsValid() bool {
	return s.Rank() >= 0
}

// Rank returns the lifecycle position of the status, or -1 if unknown.
func (s Status) Rank() int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo reports whether a record in status s may move to next.
// Skipping forward (available -> sold) is allowed; staying put is not.
func (s Status) CanTransitionTo(next Status) bool {
	from, to := s.Rank(), next.Rank()
	if from < 0 || to < 0 {
		return false
	}
	return to > from
}

// ParseStatus resolves a status name case-insensitively.
func ParseStatus(s string) (Status, bool) {
	for _, v := range Statuses {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	return "", false
}
