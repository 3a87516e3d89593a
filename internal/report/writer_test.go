package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/vtlookup/internal/model"
)

func intPtr(v int) *int {
	return &v
}

// createTestRun creates a run with one row of each kind.
func createTestRun() *model.Run {
	rows := []model.ResultRow{
		{
			Observable:   "44d88612fea8a8f36de82e1278abb02f",
			IoCType:      "md5_hash",
			Status:       model.StatusSuccess,
			SourceIndex:  "0",
			ResponseCode: intPtr(1),
			Positives:    intPtr(60),
			Permalink:    "https://www.virustotal.com/file/report",
			RawResponse:  `{"response_code":1,"positives":60}`,
		},
		{
			Observable:  "44D88612FEA8A8F36DE82E1278ABB02F",
			IoCType:     "md5_hash",
			Status:      model.StatusDuplicate,
			SourceIndex: "1",
			Positives:   intPtr(60),
		},
		{
			Observable:  "8.8.8.8",
			IoCType:     "ipv4",
			Status:      "Failed submission: http error 403",
			SourceIndex: "2",
		},
		{
			Observable:  "not-a-domain",
			IoCType:     "dns",
			Status:      "Failed: Invalid domain name",
			SourceIndex: "3",
		},
	}

	return &model.Run{
		ID:        "5f0c7c1e-8d7b-4a57-9a0e-2b1f7e8c9d10",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:    "iocs.csv",
		InputRows: 4,
		Summary:   model.Summarize(rows),
		Rows:      rows,
	}
}

func emptyRun() *model.Run {
	return &model.Run{ID: "empty", CreatedAt: time.Now()}
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and rows in column order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 5 {
			t.Fatalf("expected header and 4 rows, got %d records", len(records))
		}
		if strings.Join(records[0], ",") != strings.Join(model.Columns, ",") {
			t.Errorf("unexpected header %v", records[0])
		}
		if records[1][0] != "44d88612fea8a8f36de82e1278abb02f" || records[1][2] != model.StatusSuccess {
			t.Errorf("unexpected first row %v", records[1])
		}
		if records[1][4] != `{"response_code":1,"positives":60}` {
			t.Errorf("expected raw response to survive quoting, got %q", records[1][4])
		}
	})

	t.Run("writes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).WriteSummary(createTestRun().Summary); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.HasPrefix(output, "Status,Count\n") {
			t.Errorf("unexpected summary header: %q", output)
		}
		if !strings.Contains(output, "Detected,2\n") {
			t.Errorf("expected detected count, got %q", output)
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got model.Run
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got.ID != createTestRun().ID || len(got.Rows) != 4 {
			t.Errorf("unexpected run %+v", got)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected compact output on one line")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteSummary(createTestRun().Summary); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"total\": 4") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})

	t.Run("full writer wraps with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewFullJSONWriter(&buf, "v1.2.3").Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got.Version != "v1.2.3" || got.Run == nil || got.Run.Summary.Detected != 2 {
			t.Errorf("unexpected report %+v", got)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# vtlookup Report",
			"## Summary",
			"## Detections",
			"## Not Looked Up",
			"[!CAUTION]",
			"pie",
			"https://www.virustotal.com/file/report",
			"Failed submission: http error 403",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("empty run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(emptyRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!NOTE]") {
			t.Error("expected a note for an empty run")
		}
		if strings.Contains(output, "Not Looked Up") {
			t.Error("did not expect a problems section")
		}
	})

	t.Run("clean run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		s := model.Summary{Total: 2, Success: 2}
		if _, err := NewMarkdownWriter(&buf).WriteSummary(s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!TIP]") {
			t.Error("expected a tip for a clean run")
		}
	})
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and detections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"VTLOOKUP REPORT", "SUMMARY", "DETECTED:", "[!] 44d88612fea8a8f36de82e1278abb02f", "iocs.csv"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "RESULTS") {
			t.Error("did not expect row listing without verbose")
		}
	})

	t.Run("verbose lists every row", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"RESULTS", "Duplicate", "Failure", "Invalid", "Failed: Invalid domain name"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("no detections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(emptyRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No detections") {
			t.Error("expected no detections message")
		}
	})
}

// failingWriter fails every write.
type failingWriter struct{}

func (failingWriter) Write(*model.Run) (int, error)            { return 0, errors.New("write failed") }
func (failingWriter) WriteSummary(model.Summary) (int, error) { return 0, errors.New("write failed") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		m := NewMultiWriter(NewCSVWriter(&a), NewSimpleWriter(&b))

		n, err := m.Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != a.Len()+b.Len() {
			t.Errorf("expected %d bytes, got %d", a.Len()+b.Len(), n)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		m := NewMultiWriter(failingWriter{}, NewCSVWriter(&buf))

		if _, err := m.WriteSummary(model.Summary{}); err == nil {
			t.Fatal("expected an error")
		}
		if buf.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})
}

func TestNewWriter(t *testing.T) {
	t.Parallel()

	for _, format := range Formats() {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w, err := NewWriter(format, &buf, "dev", false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, err := w.Write(createTestRun()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if buf.Len() == 0 {
				t.Error("expected output")
			}
		})
	}

	if _, err := NewWriter(Format("xml"), &bytes.Buffer{}, "dev", false); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "CSV", want: FormatCSV},
		{in: "md", want: FormatMarkdown},
		{in: "txt", want: FormatText},
		{in: "json", want: FormatJSON},
		{in: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
