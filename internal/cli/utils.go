// Package cli renders command results for the vaani command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/riyaaaa19/Bajaj-Vaani/internal/models"
	"github.com/riyaaaa19/Bajaj-Vaani/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const separator = "─────────────────────────────────────────────────────────"

// ParseOutputFormat accepts "text" or "json" in any case; empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteQueryResponse writes ranked clause matches to w.
func WriteQueryResponse(w io.Writer, response *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d clauses in %dms for %q\n\n", response.Total, response.QueryTime, response.Question)
	for i, m := range response.Matches {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "Rank: %d | Distance: %.4f | Position: %d\n", i+1, m.Distance, m.Position)
		if m.SourceFile != "" {
			fmt.Fprintf(w, "Source: %s\n", m.SourceFile)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(m.Text, 300))
	}
	return nil
}

// WriteAnswer writes a coverage answer to w.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, answer)
	}
	if answer.Question != "" {
		fmt.Fprintf(w, "Question: %s\n", answer.Question)
	}
	fmt.Fprintf(w, "Decision: %s\n", answer.Decision)
	fmt.Fprintf(w, "Justification: %s\n", answer.Justification)
	if len(answer.ReferencedClauses) > 0 {
		fmt.Fprintln(w, "Referenced clauses:")
		for _, c := range answer.ReferencedClauses {
			fmt.Fprintf(w, "  - %s\n", TruncateWords(c, 40))
		}
	}
	return nil
}

// WriteComparison writes the pairs found by a policy comparison. Text output lists every
// pair; JSON output carries the full results.
func WriteComparison(w io.Writer, results []models.ClauseComparison, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, results)
	}
	fmt.Fprintf(w, "%d clauses compared\n\n", len(results))
	for _, r := range results {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "Similarity: %.3f\n", r.Similarity)
		fmt.Fprintf(w, "A: %s\n", utils.Truncate(r.ClauseFromFile1, 200))
		fmt.Fprintf(w, "B: %s\n\n", utils.Truncate(r.ClauseFromFile2, 200))
	}
	return nil
}

// WriteStatus writes the service status to w.
func WriteStatus(w io.Writer, status *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "State:        %s\n", status.State)
	fmt.Fprintf(w, "Clauses:      %d\n", status.Clauses)
	fmt.Fprintf(w, "Documents:    %d\n", status.Documents)
	fmt.Fprintf(w, "Index:        %s (%d dimensions)\n", status.IndexType, status.Dimensions)
	fmt.Fprintf(w, "Dedup:        %s\n", status.DedupPolicy)
	fmt.Fprintf(w, "Snapshot:     %s\n", status.SnapshotPath)
	fmt.Fprintf(w, "Disk usage:   %s\n", FormatBytes(status.DiskUsageBytes))
	fmt.Fprintf(w, "Embedder:     %s\n", status.Embedder)
	fmt.Fprintf(w, "LLM:          %s\n", status.LLM)
	if len(status.WatchedDirs) > 0 {
		fmt.Fprintf(w, "Watching:     %s\n", strings.Join(status.WatchedDirs, ", "))
	}
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
