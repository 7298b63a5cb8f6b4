package reporting

import (
	"time"

	"unicorn-dashboard/internal/domain"
)

// Report is a printable rendering of one dashboard page.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	AsOf        time.Time
	Filter      domain.FilterState

	Headline []HeadlineRow
	Trend    []TrendRow
	Habitats []HabitatRow
	Breeds   []BreedRow
	Regions  []RegionRow

	// Listings is the current table page, cells already formatted.
	ListingHeaders []string
	Listings       [][]string
	ListingsTotal  int

	Activity []ActivityRow
}

// HeadlineRow is one KPI with its change indicator.
type HeadlineRow struct {
	Metric string
	Value  string
	Change string
}

// TrendRow is one month of the population trend.
type TrendRow struct {
	Month      string
	Population float64
}

// HabitatRow is one habitat share.
type HabitatRow struct {
	Habitat string
	Count   int
	Percent string
}

// BreedRow is one breed ranking position (1-based).
type BreedRow struct {
	Rank  int
	Breed string
	Count int
}

// RegionRow is one region hotspot.
type RegionRow struct {
	Region string
	Count  int
}

// ActivityRow is one activity feed line.
type ActivityRow struct {
	Time     string
	Category string
	Text     string
}
