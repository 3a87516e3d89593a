package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/vtlookup/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists every row, not just detections.
	verbose bool

	upper cases.Caser
	title cases.Caser
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with every row listed.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		upper:      cases.Upper(language.English),
		title:      cases.Title(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run in human-readable format.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeSummary(&sb, run.Summary)
	w.writeDetections(&sb, run)
	if w.verbose {
		w.writeRows(&sb, run)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs the counts only.
func (w *SimpleWriter) WriteSummary(summary model.Summary) (int, error) {
	var sb strings.Builder
	w.writeSummary(&sb, summary)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(w.upper.String(title))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         ")
	sb.WriteString(w.upper.String("vtlookup report"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run ID:     %s\n", run.ID)
	fmt.Fprintf(sb, "Date:       %s\n", run.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if run.Source != "" {
		fmt.Fprintf(sb, "Source:     %s\n", run.Source)
	}
	fmt.Fprintf(sb, "Input Rows: %d\n", run.InputRows)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, s model.Summary) {
	w.writeSection(sb, "summary")

	for _, r := range summaryRows(s) {
		fmt.Fprintf(sb, "  %-11s %s\n", w.upper.String(r[0])+":", r[1])
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeDetections(sb *strings.Builder, run *model.Run) {
	w.writeSection(sb, "detections")

	detected := run.DetectedRows()
	if len(detected) == 0 {
		sb.WriteString("  No detections\n\n")
		return
	}

	for _, r := range detected {
		fmt.Fprintf(sb, "  [!] %s (%s) positives=%d source=%s\n", r.Observable, r.IoCType, *r.Positives, r.SourceIndex)
		if r.Permalink != "" {
			fmt.Fprintf(sb, "      %s\n", r.Permalink)
		}
	}
	sb.WriteString("\n")
}

// writeRows lists every row with its outcome.
func (w *SimpleWriter) writeRows(sb *strings.Builder, run *model.Run) {
	w.writeSection(sb, "results")

	if len(run.Rows) == 0 {
		sb.WriteString("  No rows\n\n")
		return
	}

	for _, r := range run.Rows {
		fmt.Fprintf(sb, "  %-9s %s (%s) source=%s\n", w.title.String(r.Kind().String()), r.Observable, r.IoCType, r.SourceIndex)
		if r.Kind() == model.StatusKindFailure || r.Kind() == model.StatusKindInvalid {
			fmt.Fprintf(sb, "            %s\n", r.Status)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by vtlookup\n")
	sb.WriteString("https://github.com/nao1215/vtlookup\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
