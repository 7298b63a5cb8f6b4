package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// Output file names written by WriteFiles.
const (
	MarkdownFile = "dashboard.md"
	ListingsFile = "listings.csv"
)

// WriteFiles renders r into dir as dashboard.md and listings.csv, creating
// dir if needed. It returns the written paths.
func WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	mdPath := filepath.Join(dir, MarkdownFile)
	if err := os.WriteFile(mdPath, []byte(RenderMarkdown(r)), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", MarkdownFile, err)
	}

	csvOut, err := RenderCSV(r)
	if err != nil {
		return nil, err
	}
	csvPath := filepath.Join(dir, ListingsFile)
	if err := os.WriteFile(csvPath, []byte(csvOut), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", ListingsFile, err)
	}

	return []string{mdPath, csvPath}, nil
}
