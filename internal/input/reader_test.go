package input

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/vtlookup/internal/model"
	"golang.org/x/text/encoding/unicode"
)

func TestRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		format Format
		cols   Columns
		want   []model.InputRow
	}{
		{
			name:   "csv with source index",
			input:  "Observable,IoCType,SourceIndex\n8.8.8.8,ipv4,17\nexample.com,dns,18\n",
			format: FormatCSV,
			want: []model.InputRow{
				{Observable: "8.8.8.8", Type: "ipv4", SourceIndex: "17"},
				{Observable: "example.com", Type: "dns", SourceIndex: "18"},
			},
		},
		{
			name:   "csv without source index numbers rows",
			input:  "IoCType,Observable,Extra\nipv4, 8.8.8.8 ,x\n,,\ndns,example.com,y\n",
			format: FormatCSV,
			want: []model.InputRow{
				{Observable: "8.8.8.8", Type: "ipv4", SourceIndex: "0"},
				{Observable: "example.com", Type: "dns", SourceIndex: "1"},
			},
		},
		{
			name:   "csv with utf-8 bom",
			input:  "\ufeffObservable,IoCType\nexample.com,dns\n",
			format: FormatCSV,
			want: []model.InputRow{
				{Observable: "example.com", Type: "dns", SourceIndex: "0"},
			},
		},
		{
			name:   "short record keeps empty observable",
			input:  "IoCType,Observable\nurl\n",
			format: FormatCSV,
			want: []model.InputRow{
				{Observable: "", Type: "url", SourceIndex: "0"},
			},
		},
		{
			name:   "tsv with custom columns",
			input:  "value\tkind\trow\nhttp://a.example.com/\turl\tr1\n",
			format: FormatTSV,
			cols:   Columns{Observable: "value", Type: "kind", SourceIndex: "row"},
			want: []model.InputRow{
				{Observable: "http://a.example.com/", Type: "url", SourceIndex: "r1"},
			},
		},
		{
			name: "json lines",
			input: `{"Observable": "8.8.8.8", "IoCType": "ipv4", "SourceIndex": 42}` + "\n\n" +
				`{"Observable": "example.com", "IoCType": "dns"}` + "\n",
			format: FormatJSONL,
			want: []model.InputRow{
				{Observable: "8.8.8.8", Type: "ipv4", SourceIndex: "42"},
				{Observable: "example.com", Type: "dns", SourceIndex: "1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Read(strings.NewReader(tt.input), tt.format, tt.cols)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d rows, got %d: %+v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("row %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestReadUTF16(t *testing.T) {
	t.Parallel()

	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(
		"Observable,IoCType\r\nbücher.example,dns\r\n",
	)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	got, err := Read(strings.NewReader(encoded), FormatCSV, Columns{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Observable != "bücher.example" || got[0].Type != "dns" {
		t.Errorf("unexpected rows %+v", got)
	}
}

func TestReadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		format  Format
		wantErr error
	}{
		{name: "empty csv", input: "", format: FormatCSV, wantErr: ErrNoHeader},
		{name: "missing observable column", input: "Value,IoCType\nx,url\n", format: FormatCSV, wantErr: ErrMissingColumn},
		{name: "missing type column", input: "Observable\nx\n", format: FormatTSV, wantErr: ErrMissingColumn},
		{name: "json line without type", input: `{"Observable": "x"}`, format: FormatJSONL, wantErr: ErrMissingColumn},
		{name: "unknown format", input: "x", format: Format("xml"), wantErr: ErrUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Read(strings.NewReader(tt.input), tt.format, Columns{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("json line that is not an object", func(t *testing.T) {
		t.Parallel()

		_, err := Read(strings.NewReader("[1, 2]\n"), FormatJSONL, Columns{})
		if err == nil || !strings.Contains(err.Error(), "line 1") {
			t.Errorf("expected a line 1 error, got %v", err)
		}
	})
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "iocs.tsv")
	if err := os.WriteFile(path, []byte("Observable\tIoCType\n8.8.8.8\tipv4\n"), 0o600); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	rows, err := ReadFile(path, "", Columns{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Observable != "8.8.8.8" {
		t.Errorf("unexpected rows %+v", rows)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.csv"), "", Columns{}); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{name: "CSV", want: FormatCSV},
		{name: "tab", want: FormatTSV},
		{name: "ndjson", want: FormatJSONL},
		{name: "xlsx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	if FormatFromPath("a/b.jsonl") != FormatJSONL || FormatFromPath("a/b.txt") != FormatCSV {
		t.Error("unexpected format guess from path")
	}
}
