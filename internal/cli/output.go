// Package cli renders query results for terminal consumption.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sensei-notes/senseid/internal/models"
	"github.com/sensei-notes/senseid/pkg/utils"
)

// OutputFormat selects how query results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputContext prints only the formatted context block, ready to paste
	// into a prompt.
	OutputContext OutputFormat = "context"
)

// ParseFormat validates a format string from a CLI flag.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON, OutputContext:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, json, or context", s)
	}
}

// WriteQueryResults writes the response to w in the given format.
func WriteQueryResults(w io.Writer, response *models.QueryResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputContext:
		_, err := fmt.Fprintln(w, response.Context)
		return err
	default:
		writeQueryResultsText(w, response)
		return nil
	}
}

func writeQueryResultsText(w io.Writer, response *models.QueryResponse) {
	if response.NumResults == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	fmt.Fprintf(w, "%d result(s) for %q\n\n", response.NumResults, response.Query)
	for i, r := range response.Results {
		page := r.Metadata["page_number"]
		if page == "" {
			page = "?"
		}
		fmt.Fprintf(w, "%d. %s | page %s | distance %.4f\n", i+1, r.ID, page, r.Distance)
		fmt.Fprintf(w, "   %s\n\n", utils.Truncate(r.Text, 200))
	}
}
