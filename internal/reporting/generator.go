package reporting

import (
	"time"

	"unicorn-dashboard/internal/views"
)

// Generator produces reports from dashboard pages.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate turns a page into a report. Row order follows the page.
func (g *Generator) Generate(page *views.Page) *Report {
	r := &Report{
		GeneratedAt:    g.now(),
		AsOf:           page.AsOf,
		Filter:         page.Filter,
		ListingHeaders: page.Listings.Headers,
		Listings:       page.Listings.Rows,
		ListingsTotal:  page.Listings.Total,
	}

	for _, c := range page.KPIs {
		r.Headline = append(r.Headline, HeadlineRow{Metric: c.Title, Value: c.Value, Change: c.Change})
	}
	for i, label := range page.Trend.Labels {
		r.Trend = append(r.Trend, TrendRow{Month: label, Population: page.Trend.Values[i]})
	}
	for _, s := range page.Habitats.Slices {
		r.Habitats = append(r.Habitats, HabitatRow{Habitat: s.Label, Count: s.Value, Percent: s.Percent})
	}
	for i, label := range page.Breeds.Labels {
		r.Breeds = append(r.Breeds, BreedRow{Rank: i + 1, Breed: label, Count: page.Breeds.Values[i]})
	}
	for _, m := range page.Regions {
		r.Regions = append(r.Regions, RegionRow{Region: m.Region, Count: m.Count})
	}
	for _, a := range page.Activity {
		r.Activity = append(r.Activity, ActivityRow{Time: a.Time, Category: a.Category, Text: a.Text})
	}

	return r
}
