// package formatter exports audit events to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/spotauth/internal/models"
	"github.com/desertthunder/spotauth/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat validates a --format value. "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, text)", shared.ErrInvalidFlag, s)
	}
}

// Export renders events in the given format.
func Export(events []*models.Event, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(events)
	case FormatCSV:
		return ExportToCSV(events)
	case FormatMarkdown:
		return ExportToMarkdown(events)
	case FormatText:
		return ExportToText(events)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// ExportToJSON renders events as an indented JSON array. No events yields [].
func ExportToJSON(events []*models.Event) ([]byte, error) {
	if events == nil {
		events = []*models.Event{}
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts events to CSV with columns: ID, Time, Request ID, Operation, Outcome, Detail
func ExportToCSV(events []*models.Event) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Time", "Request ID", "Operation", "Outcome", "Detail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range events {
		record := []string{
			e.ID,
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.RequestID,
			string(e.Operation),
			string(e.Outcome),
			e.Detail,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts events to a Markdown table preceded by a per-outcome summary
func ExportToMarkdown(events []*models.Event) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Authorization Events\n\n")
	buf.WriteString(fmt.Sprintf("**Events**: %d\n\n", len(events)))

	counts := map[models.Outcome]int{}
	var order []models.Outcome
	for _, e := range events {
		if counts[e.Outcome] == 0 {
			order = append(order, e.Outcome)
		}
		counts[e.Outcome]++
	}
	for _, o := range order {
		buf.WriteString(fmt.Sprintf("- %s: %d\n", o, counts[o]))
	}
	if len(order) > 0 {
		buf.WriteString("\n")
	}

	buf.WriteString("| Time | Operation | Outcome | Request ID | Detail |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for _, e := range events {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			e.CreatedAt.UTC().Format(time.RFC3339), e.Operation, e.Outcome, e.RequestID, escapeCell(e.Detail)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts events to plain text, one per line
func ExportToText(events []*models.Event) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Events: %d\n\n", len(events)))

	for i, e := range events {
		buf.WriteString(fmt.Sprintf("%d. %s %s %s [%s]", i+1,
			e.CreatedAt.UTC().Format(time.RFC3339), e.Operation, e.Outcome, e.RequestID))
		if e.Detail != "" {
			buf.WriteString(" " + e.Detail)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// WriteExport renders events and writes them to path, creating or truncating it.
func WriteExport(events []*models.Event, format Format, path string) error {
	data, err := Export(events, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return nil
}

func escapeCell(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '|':
			buf.WriteString(`\|`)
		case '\n', '\r':
			buf.WriteByte(' ')
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
