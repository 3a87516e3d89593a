package report

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/nao1215/vtlookup/internal/model"
)

// CSVWriter outputs the result table as CSV with the model.Columns header.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs every row of the run.
func (w *CSVWriter) Write(run *model.Run) (int, error) {
	records := make([][]string, 0, len(run.Rows)+1)
	records = append(records, model.Columns)
	for _, row := range run.Rows {
		records = append(records, row.Values())
	}
	return w.writeAll(records)
}

// WriteSummary outputs the counts as a two-column table.
func (w *CSVWriter) WriteSummary(summary model.Summary) (int, error) {
	records := [][]string{{"Status", "Count"}}
	for _, r := range summaryRows(summary) {
		records = append(records, []string{r[0], r[1]})
	}
	return w.writeAll(records)
}

func (w *CSVWriter) writeAll(records [][]string) (int, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(records); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
