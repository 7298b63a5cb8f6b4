package views

import (
	"time"

	"unicorn-dashboard/internal/derivation"
	"unicorn-dashboard/internal/domain"
)

// Deriver computes derivations against a pinned input.
// *derivation.Engine satisfies it.
type Deriver interface {
	ComputeAt(in derivation.Input, kind derivation.Kind, params derivation.Params) (derivation.Result, error)
}

// Page is the complete dashboard projection for one update cycle.
type Page struct {
	AsOf      time.Time          `json:"as_of"`
	AsOfLabel string             `json:"as_of_label"`
	Filter    domain.FilterState `json:"filter"`
	KPIs      []KPICard          `json:"kpis"`
	Trend     LineSeries         `json:"trend"`
	Habitats  Donut              `json:"habitats"`
	Breeds    BarSeries          `json:"breeds"`
	Regions   []GeoMarker        `json:"regions"`
	Listings  Table              `json:"listings"`
	Activity  []FeedItem         `json:"activity"`

	// Summary keeps the raw KPI values for renderers that need numbers.
	Summary derivation.KPISummary `json:"-"`
}

// BuildPage assembles every widget from d, all read from the same input.
// Any derivation error aborts the page; no widget is defaulted.
func BuildPage(d Deriver, in derivation.Input, activity []domain.ActivityEntry, table derivation.Params) (*Page, error) {
	results := make(map[derivation.Kind]derivation.Result, 6)
	for _, kind := range []derivation.Kind{
		derivation.KindKPISummary,
		derivation.KindTrendSeries,
		derivation.KindHabitatDistribution,
		derivation.KindBreedRanking,
		derivation.KindRegionDistribution,
	} {
		r, err := d.ComputeAt(in, kind, derivation.Params{})
		if err != nil {
			return nil, err
		}
		results[kind] = r
	}
	rows, err := d.ComputeAt(in, derivation.KindTableRows, table)
	if err != nil {
		return nil, err
	}

	kpis := *results[derivation.KindKPISummary].KPIs
	return &Page{
		AsOf:      kpis.AsOf,
		AsOfLabel: kpis.AsOf.Format("Jan 2, 2006 • 3:04 PM"),
		Filter:    in.Filter,
		KPIs:      KPICards(kpis),
		Trend:     PopulationTrend(results[derivation.KindTrendSeries].Trend),
		Habitats:  HabitatDonut(results[derivation.KindHabitatDistribution].Shares),
		Breeds:    BreedBars(results[derivation.KindBreedRanking].Ranking),
		Regions:   GeoMap(results[derivation.KindRegionDistribution].Regions),
		Listings:  ListingsTable(*rows.Table),
		Activity:  ActivityFeed(activity),
		Summary:   kpis,
	}, nil
}
