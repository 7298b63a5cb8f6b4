package reporting

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// RenderCSV renders the report's listings page as CSV. Formatted values such
// as "$84,500" are quoted.
func RenderCSV(r *Report) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(r.ListingHeaders); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(r.Listings); err != nil {
		return "", fmt.Errorf("write csv rows: %w", err)
	}

	return sb.String(), nil
}
