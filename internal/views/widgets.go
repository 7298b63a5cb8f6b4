// Package views reshapes derivation results into the literal structures
// dashboard widgets render.
package views

import (
	"unicorn-dashboard/internal/derivation"
	"unicorn-dashboard/internal/domain"
)

// KPICard is one headline metric tile.
type KPICard struct {
	Title    string `json:"title"`
	Value    string `json:"value"`
	Change   string `json:"change"`
	Positive bool   `json:"positive"`
}

// KPICards maps the KPI summary to the four headline tiles, in display order.
func KPICards(k derivation.KPISummary) []KPICard {
	return []KPICard{
		card("Total Population", FormatCount(k.TotalPopulation), k.PopulationChangePct),
		card("Active Trades", FormatCount(k.ActiveTrades), k.ActiveTradesChangePct),
		card("Avg. Trade Value", FormatMoney(k.AverageTradeValue), k.AverageValueChangePct),
		card("New Registrations", FormatCount(k.NewRegistrations), k.RegistrationsChangePct),
	}
}

func card(title, value string, change float64) KPICard {
	return KPICard{Title: title, Value: value, Change: FormatChange(change), Positive: change >= 0}
}

// LineSeries feeds a line chart.
type LineSeries struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// PopulationTrend maps the trend series to a line chart.
func PopulationTrend(points []domain.TrendPoint) LineSeries {
	s := LineSeries{
		Title:  "Population Trend (12 Months)",
		Labels: make([]string, len(points)),
		Values: make([]float64, len(points)),
	}
	for i, p := range points {
		s.Labels[i] = p.Label
		s.Values[i] = p.Value
	}
	return s
}

// DonutSlice is one slice of a donut chart.
type DonutSlice struct {
	Label   string  `json:"label"`
	Value   int     `json:"value"`
	Percent string  `json:"percent"`
	Share   float64 `json:"share"`
}

// Donut feeds a donut chart.
type Donut struct {
	Title  string       `json:"title"`
	Slices []DonutSlice `json:"slices"`
}

// HabitatDonut maps the habitat distribution to a donut chart.
// An empty distribution yields a chart with no slices.
func HabitatDonut(shares []derivation.HabitatShare) Donut {
	d := Donut{Title: "Population by Habitat", Slices: make([]DonutSlice, 0, len(shares))}
	for _, s := range shares {
		d.Slices = append(d.Slices, DonutSlice{
			Label:   s.Habitat.String(),
			Value:   s.Count,
			Percent: FormatPercent(s.Fraction),
			Share:   s.Fraction,
		})
	}
	return d
}

// BarSeries feeds a bar chart.
type BarSeries struct {
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// BreedBars maps the breed ranking to a bar chart, most popular first.
func BreedBars(ranking []derivation.BreedCount) BarSeries {
	b := BarSeries{
		Title:  "Breed Popularity",
		Labels: make([]string, len(ranking)),
		Values: make([]int, len(ranking)),
	}
	for i, r := range ranking {
		b.Labels[i] = r.Breed.String()
		b.Values[i] = r.Count
	}
	return b
}

// GeoMarker is one hotspot on the geographic map.
type GeoMarker struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
	Label  string `json:"label"`
}

// GeoMap maps regional counts to map markers labelled "EU: 3.2K".
func GeoMap(regions []derivation.RegionCount) []GeoMarker {
	out := make([]GeoMarker, 0, len(regions))
	for _, r := range regions {
		out = append(out, GeoMarker{
			Region: r.Region.String(),
			Count:  r.Count,
			Label:  r.Region.String() + ": " + FormatCompact(r.Count),
		})
	}
	return out
}

// TableHeaders are the listing table columns, in order.
var TableHeaders = []string{"ID", "Name", "Breed", "Status", "Value"}

// Table feeds the listings table.
type Table struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
	Offset  int        `json:"offset"`
	Limit   int        `json:"limit"`
}

// ListingsTable maps a table page to display cells.
func ListingsTable(page derivation.TablePage) Table {
	t := Table{
		Title:   "Recent Listings",
		Headers: TableHeaders,
		Rows:    make([][]string, 0, len(page.Rows)),
		Total:   page.Total,
		Offset:  page.Offset,
		Limit:   page.Limit,
	}
	for _, r := range page.Rows {
		t.Rows = append(t.Rows, []string{
			r.ID,
			r.Name,
			r.Breed.String(),
			Title(r.Status.String()),
			FormatMoney(r.Value),
		})
	}
	return t
}

// FeedItem is one line of the activity feed widget.
type FeedItem struct {
	Time     string `json:"time"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// ActivityFeed maps activity entries, newest first, to feed lines.
func ActivityFeed(entries []domain.ActivityEntry) []FeedItem {
	out := make([]FeedItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, FeedItem{
			Time:     e.Timestamp.Format("15:04"),
			Text:     e.Description,
			Category: e.Category.String(),
		})
	}
	return out
}
