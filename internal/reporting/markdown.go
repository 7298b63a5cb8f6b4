package reporting

import (
	"fmt"
	"strings"
	"time"

	"unicorn-dashboard/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Unicorn Population Dashboard\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Data as of: %s\n\n", r.AsOf.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Filter: %s\n\n", describeFilter(r.Filter)))

	// Headline
	sb.WriteString("## Key Metrics\n\n")
	sb.WriteString("| Metric | Value | Change |\n")
	sb.WriteString("|--------|-------|--------|\n")
	for _, h := range r.Headline {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", h.Metric, h.Value, h.Change))
	}
	sb.WriteString("\n")

	// Trend
	sb.WriteString("## Population Trend\n\n")
	if len(r.Trend) > 0 {
		sb.WriteString("| Month | Population |\n")
		sb.WriteString("|-------|------------|\n")
		for _, t := range r.Trend {
			sb.WriteString(fmt.Sprintf("| %s | %.0f |\n", t.Month, t.Population))
		}
	} else {
		sb.WriteString("No trend data available.\n")
	}
	sb.WriteString("\n")

	// Habitats
	sb.WriteString("## Population by Habitat\n\n")
	if len(r.Habitats) > 0 {
		sb.WriteString("| Habitat | Count | Share |\n")
		sb.WriteString("|---------|-------|-------|\n")
		for _, h := range r.Habitats {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n", h.Habitat, h.Count, h.Percent))
		}
	} else {
		sb.WriteString("No unicorns match the current filter.\n")
	}
	sb.WriteString("\n")

	// Breeds
	sb.WriteString("## Breed Popularity\n\n")
	if len(r.Breeds) > 0 {
		sb.WriteString("| Rank | Breed | Count |\n")
		sb.WriteString("|------|-------|-------|\n")
		for _, b := range r.Breeds {
			sb.WriteString(fmt.Sprintf("| %d | %s | %d |\n", b.Rank, b.Breed, b.Count))
		}
	} else {
		sb.WriteString("No unicorns match the current filter.\n")
	}
	sb.WriteString("\n")

	// Regions
	sb.WriteString("## Regional Hotspots\n\n")
	sb.WriteString("| Region | Count |\n")
	sb.WriteString("|--------|-------|\n")
	for _, reg := range r.Regions {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", reg.Region, reg.Count))
	}
	sb.WriteString("\n")

	// Listings
	sb.WriteString(fmt.Sprintf("## Listings (%d of %d)\n\n", len(r.Listings), r.ListingsTotal))
	if len(r.Listings) > 0 {
		sb.WriteString("| " + strings.Join(r.ListingHeaders, " | ") + " |\n")
		sb.WriteString("|" + strings.Repeat("---|", len(r.ListingHeaders)) + "\n")
		for _, row := range r.Listings {
			sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
	} else {
		sb.WriteString("No listings.\n")
	}
	sb.WriteString("\n")

	// Activity
	sb.WriteString("## Recent Activity\n\n")
	if len(r.Activity) > 0 {
		for _, a := range r.Activity {
			sb.WriteString(fmt.Sprintf("- %s [%s] %s\n", a.Time, a.Category, a.Text))
		}
	} else {
		sb.WriteString("No recent activity.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func describeFilter(f domain.FilterState) string {
	if f.IsZero() {
		return "none"
	}
	var parts []string
	for _, dim := range domain.Dimensions {
		if v := f.Get(dim); v != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", dim, v))
		}
	}
	return strings.Join(parts, ", ")
}
