// Package cli provides CLI output utilities for Kioku.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/pkg/utils"
)

// OutputFormat is the format for search result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, results []*models.SearchResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		writeSearchResultsText(w, results)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, results []*models.SearchResult) {
	fmt.Fprintf(w, "\nFound %d results\n\n", len(results))
	for i, result := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", i+1, result.Score)
		fmt.Fprintf(w, "ID: %s\n", result.ID)
		fmt.Fprintf(w, "Text: %s\n", utils.Truncate(result.Text, 200))
		if len(result.Metadata) > 0 {
			fmt.Fprintf(w, "Metadata:\n")
			for k, v := range result.Metadata {
				fmt.Fprintf(w, "  %s: %s\n", k, v)
			}
		}
	}
}
