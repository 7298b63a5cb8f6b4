package derivation

import (
	"time"

	"github.com/shopspring/decimal"

	"unicorn-dashboard/internal/domain"
)

// Kind names a derivation.
type Kind string

const (
	KindTotalPopulation     Kind = "total_population"
	KindActiveTrades        Kind = "active_trades"
	KindAverageTradeValue   Kind = "average_trade_value"
	KindNewRegistrations    Kind = "new_registrations"
	KindKPISummary          Kind = "kpi_summary"
	KindHabitatDistribution Kind = "habitat_distribution"
	KindBreedRanking        Kind = "breed_ranking"
	KindRegionDistribution  Kind = "region_distribution"
	KindTrendSeries         Kind = "trend_series"
	KindTableRows           Kind = "table_rows"
)

// Kinds lists every supported derivation.
var Kinds = []Kind{
	KindTotalPopulation,
	KindActiveTrades,
	KindAverageTradeValue,
	KindNewRegistrations,
	KindKPISummary,
	KindHabitatDistribution,
	KindBreedRanking,
	KindRegionDistribution,
	KindTrendSeries,
	KindTableRows,
}

// String returns the string representation of Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the kind is supported.
func (k Kind) IsValid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// filtered reports whether the derivation reads the filtered collection.
func (k Kind) filtered() bool {
	switch k {
	case KindHabitatDistribution, KindBreedRanking, KindRegionDistribution, KindTableRows:
		return true
	}
	return false
}

// Params are caller-supplied derivation arguments. Only table_rows uses them.
// Limit 0 means no limit.
type Params struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Result holds the output of one derivation. Exactly one payload field is
// set, matching Kind.
type Result struct {
	Kind Kind `json:"kind"`

	Count   int                 `json:"count"`
	Amount  *decimal.Decimal    `json:"amount,omitempty"`
	KPIs    *KPISummary         `json:"kpis,omitempty"`
	Shares  []HabitatShare      `json:"shares,omitempty"`
	Ranking []BreedCount        `json:"ranking,omitempty"`
	Regions []RegionCount       `json:"regions,omitempty"`
	Trend   []domain.TrendPoint `json:"trend,omitempty"`
	Table   *TablePage          `json:"table,omitempty"`
}

// clone copies the payload slices so a cached Result is never shared.
func (r Result) clone() Result {
	c := r
	if r.Amount != nil {
		a := *r.Amount
		c.Amount = &a
	}
	if r.KPIs != nil {
		k := *r.KPIs
		c.KPIs = &k
	}
	if r.Shares != nil {
		c.Shares = append([]HabitatShare(nil), r.Shares...)
	}
	if r.Ranking != nil {
		c.Ranking = append([]BreedCount(nil), r.Ranking...)
	}
	if r.Regions != nil {
		c.Regions = append([]RegionCount(nil), r.Regions...)
	}
	if r.Trend != nil {
		c.Trend = append([]domain.TrendPoint(nil), r.Trend...)
	}
	if r.Table != nil {
		t := *r.Table
		t.Rows = append([]TableRow(nil), r.Table.Rows...)
		c.Table = &t
	}
	return c
}

// KPISummary holds the four headline metrics with their change versus one
// registration window earlier (population compares against the previous
// trend point). Changes are percentages; 0 when the baseline is 0.
type KPISummary struct {
	TotalPopulation        int             `json:"total_population"`
	PopulationChangePct    float64         `json:"population_change_pct"`
	ActiveTrades           int             `json:"active_trades"`
	ActiveTradesChangePct  float64         `json:"active_trades_change_pct"`
	AverageTradeValue      decimal.Decimal `json:"average_trade_value"`
	AverageValueChangePct  float64         `json:"average_value_change_pct"`
	NewRegistrations       int             `json:"new_registrations"`
	RegistrationsChangePct float64         `json:"registrations_change_pct"`
	AsOf                   time.Time       `json:"as_of"`
}

// HabitatShare is one slice of the habitat distribution.
type HabitatShare struct {
	Habitat  domain.Habitat `json:"habitat"`
	Count    int            `json:"count"`
	Fraction float64        `json:"fraction"`
}

// BreedCount is one entry of the breed popularity ranking.
type BreedCount struct {
	Breed domain.Breed `json:"breed"`
	Count int          `json:"count"`
}

// RegionCount is one entry of the regional distribution.
type RegionCount struct {
	Region domain.Region `json:"region"`
	Count  int           `json:"count"`
}

// TableRow is a display-ready unicorn row.
type TableRow struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Breed        domain.Breed    `json:"breed"`
	Habitat      domain.Habitat  `json:"habitat"`
	Region       domain.Region   `json:"region"`
	Status       domain.Status   `json:"status"`
	Value        decimal.Decimal `json:"value"`
	RegisteredAt time.Time       `json:"registered_at"`
}

// TablePage is one page of the filtered table.
type TablePage struct {
	Rows   []TableRow `json:"rows"`
	Total  int        `json:"total"` // filtered rows before pagination
	Offset int        `json:"offset"`
	Limit  int        `json:"limit"`
}
