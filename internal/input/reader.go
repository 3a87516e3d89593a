package input

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nao1215/vtlookup/internal/model"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Columns names the input columns.
type Columns struct {
	// Observable holds the value to look up. Required.
	Observable string

	// Type holds the type label. Required.
	Type string

	// SourceIndex identifies the row. Optional: when the column is absent,
	// rows are numbered from 0 in file order.
	SourceIndex string
}

// DefaultColumns returns the default column names.
func DefaultColumns() Columns {
	return Columns{
		Observable:  "Observable",
		Type:        "IoCType",
		SourceIndex: "SourceIndex",
	}
}

// withDefaults fills empty names from DefaultColumns.
func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.Observable == "" {
		c.Observable = d.Observable
	}
	if c.Type == "" {
		c.Type = d.Type
	}
	if c.SourceIndex == "" {
		c.SourceIndex = d.SourceIndex
	}
	return c
}

// ReadFile reads rows from a file. An empty format is guessed from the
// file extension.
func ReadFile(path string, format Format, cols Columns) ([]model.InputRow, error) {
	f, err := os.Open(path) //nolint:gosec // path is given by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	if format == "" {
		format = FormatFromPath(path)
	}

	rows, err := Read(f, format, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Read reads rows in the given format.
func Read(r io.Reader, format Format, cols Columns) ([]model.InputRow, error) {
	cols = cols.withDefaults()
	r = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	switch format {
	case FormatCSV:
		return readDelimited(r, ',', cols)
	case FormatTSV:
		return readDelimited(r, '\t', cols)
	case FormatJSONL:
		return readJSONLines(r, cols)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func readDelimited(r io.Reader, comma rune, cols Columns) ([]model.InputRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}

	obsCol, ok := positions[cols.Observable]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, cols.Observable)
	}
	typeCol, ok := positions[cols.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, cols.Type)
	}
	indexCol, hasIndex := positions[cols.SourceIndex]

	field := func(record []string, i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	var rows []model.InputRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+1, err)
		}
		if isBlank(record) {
			continue
		}

		row := model.InputRow{
			Observable:  field(record, obsCol),
			Type:        field(record, typeCol),
			SourceIndex: strconv.Itoa(len(rows)),
		}
		if hasIndex {
			row.SourceIndex = field(record, indexCol)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func readJSONLines(r io.Reader, cols Columns) ([]model.InputRow, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var rows []model.InputRow
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(text))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil || obj == nil {
			return nil, fmt.Errorf("line %d: not a JSON object", line)
		}

		if _, ok := obj[cols.Observable]; !ok {
			return nil, fmt.Errorf("line %d: %w: %q", line, ErrMissingColumn, cols.Observable)
		}
		if _, ok := obj[cols.Type]; !ok {
			return nil, fmt.Errorf("line %d: %w: %q", line, ErrMissingColumn, cols.Type)
		}

		row := model.InputRow{
			Observable:  jsonText(obj[cols.Observable]),
			Type:        jsonText(obj[cols.Type]),
			SourceIndex: strconv.Itoa(len(rows)),
		}
		if v, ok := obj[cols.SourceIndex]; ok && v != nil {
			row.SourceIndex = jsonText(v)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	return rows, nil
}

// jsonText returns a decoded JSON value as text.
func jsonText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
