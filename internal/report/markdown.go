package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/vtlookup/internal/model"
)

// MarkdownWriter outputs runs in Markdown format, for tickets and wikis.
// Only detections and problem rows are tabulated; the CSV output carries the
// full table.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeSummary(md, run.Summary)
	w.writeDetections(md, run)
	w.writeProblems(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the summary section only.
func (w *MarkdownWriter) WriteSummary(summary model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeSummary(md, summary)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("vtlookup Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + run.ID + "`"},
			{"Date", run.CreatedAt.Format("2006-01-02 15:04:05 MST")},
			{"Source", valueOrDash(run.Source)},
			{"Input Rows", strconv.Itoa(run.InputRows)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s model.Summary) {
	md.H2("Summary")
	md.PlainText("")

	rows := make([][]string, 0, 6)
	for _, r := range summaryRows(s) {
		rows = append(rows, []string{r[0], r[1]})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if s.Total > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of row outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Lookup Outcomes"),
		piechart.WithShowData(true),
	)

	for _, part := range []struct {
		label string
		count int
	}{
		{"Success", s.Success},
		{"Duplicate", s.Duplicate},
		{"Failed", s.Failure},
		{"Invalid", s.Invalid},
	} {
		if part.count > 0 {
			chart.LabelAndIntValue(part.label, uint64(part.count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s model.Summary) {
	switch {
	case s.Detected > 0:
		md.Cautionf("%d observable(s) were flagged by at least one engine.", s.Detected)
	case s.Failure > 0:
		md.Warningf("%d row(s) failed to submit and may need another lookup.", s.Failure)
	case s.Invalid > 0:
		md.Importantf("%d row(s) were rejected before submission.", s.Invalid)
	case s.Total > 0:
		md.Tip("No detections.")
	default:
		md.Note("No rows were looked up.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeDetections(md *markdown.Markdown, run *model.Run) {
	md.H2("Detections")
	md.PlainText("")

	detected := run.DetectedRows()
	if len(detected) == 0 {
		md.PlainText("No detections.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(detected))
	for i, r := range detected {
		rows[i] = []string{
			"`" + truncateString(r.Observable, 70) + "`",
			r.IoCType,
			strconv.Itoa(*r.Positives),
			r.SourceIndex,
			valueOrDash(r.Permalink),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Observable", "Type", "Positives", "Source", "Permalink"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeProblems lists failed and invalid rows.
func (w *MarkdownWriter) writeProblems(md *markdown.Markdown, run *model.Run) {
	var rows [][]string
	for _, r := range run.Rows {
		kind := r.Kind()
		if kind != model.StatusKindFailure && kind != model.StatusKindInvalid {
			continue
		}
		rows = append(rows, []string{
			"`" + truncateString(valueOrDash(r.Observable), 70) + "`",
			r.IoCType,
			truncateString(r.Status, 60),
			r.SourceIndex,
		})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Not Looked Up")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Observable", "Type", "Status", "Source"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [vtlookup](https://github.com/nao1215/vtlookup)*")
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
