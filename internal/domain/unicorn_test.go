package domain

import (
	"testing"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusAvailable, StatusReserved, true},
		{StatusAvailable, StatusSold, true},
		{StatusReserved, StatusSold, true},
		{StatusAvailable, StatusAvailable, false},
		{StatusReserved, StatusAvailable, false},
		{StatusSold, StatusReserved, false},
		{StatusSold, StatusAvailable, false},
		{StatusSold, StatusSold, false},
		{StatusAvailable, Status("gifted"), false},
		{Status("gifted"), StatusSold, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBreed_Rank(t *testing.T) {
	for i, b := range Breeds {
		if b.Rank() != i {
			t.Errorf("%s.Rank() = %d, want %d", b, b.Rank(), i)
		}
	}
	if Breed("Pegasus").Rank() != -1 {
		t.Error("unknown breed should rank -1")
	}
	if Breed("Pegasus").IsValid() {
		t.Error("unknown breed should be invalid")
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	if b, ok := ParseBreed("golden"); !ok || b != BreedGolden {
		t.Errorf("ParseBreed(golden) = %q, %v", b, ok)
	}
	if h, ok := ParseHabitat("WILD"); !ok || h != HabitatWild {
		t.Errorf("ParseHabitat(WILD) = %q, %v", h, ok)
	}
	if s, ok := ParseStatus("Sold"); !ok || s != StatusSold {
		t.Errorf("ParseStatus(Sold) = %q, %v", s, ok)
	}
	if r, ok := ParseRegion("asia"); !ok || r != RegionAsia {
		t.Errorf("ParseRegion(asia) = %q, %v", r, ok)
	}
	if _, ok := ParseHabitat("Volcano"); ok {
		t.Error("ParseHabitat(Volcano) should fail")
	}
}

func TestFilterState_Matches(t *testing.T) {
	u := &Unicorn{ID: "#0001", Breed: BreedCrystal, Habitat: HabitatWild, Status: StatusReserved}

	tests := []struct {
		name   string
		filter FilterState
		want   bool
	}{
		{"empty filter", FilterState{}, true},
		{"matching habitat", FilterState{Habitat: HabitatWild}, true},
		{"other habitat", FilterState{Habitat: HabitatReserve}, false},
		{"all dimensions match", FilterState{Breed: BreedCrystal, Habitat: HabitatWild, Status: StatusReserved}, true},
		{"one dimension mismatches", FilterState{Breed: BreedCrystal, Status: StatusSold}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(u); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
