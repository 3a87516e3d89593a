package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/vtlookup/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the run to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)

	// WriteSummary outputs only the row counts.
	WriteSummary(summary model.Summary) (int, error)
}

// Format is a report output format.
type Format string

const (
	// FormatCSV is the result table as CSV.
	FormatCSV Format = "csv"
	// FormatJSON is the run as JSON.
	FormatJSON Format = "json"
	// FormatMarkdown is a Markdown summary.
	FormatMarkdown Format = "markdown"
	// FormatText is a plain text summary.
	FormatText Format = "text"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatMarkdown, FormatText}
}

// ParseFormat returns the format for a name. "md" is accepted for Markdown.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q", name)
	}
}

// NewWriter returns a writer for the format. version is embedded in JSON
// output; verbose lists every row in text output.
func NewWriter(format Format, output io.Writer, version string, verbose bool) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(output), nil
	case FormatJSON:
		return NewFullJSONWriter(output, version, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatText:
		return NewSimpleWriter(output, WithVerbose(verbose)), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// MultiWriter writes to multiple Writers, e.g. the terminal and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSummary outputs the summary to all configured Writers.
func (m *MultiWriter) WriteSummary(summary model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// summaryRows returns label/count pairs in display order.
func summaryRows(s model.Summary) [][2]string {
	return [][2]string{
		{"Success", fmt.Sprint(s.Success)},
		{"Duplicate", fmt.Sprint(s.Duplicate)},
		{"Failed", fmt.Sprint(s.Failure)},
		{"Invalid", fmt.Sprint(s.Invalid)},
		{"Detected", fmt.Sprint(s.Detected)},
		{"Total rows", fmt.Sprint(s.Total)},
	}
}
