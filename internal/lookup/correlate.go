package lookup

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/nao1215/vtlookup/internal/model"
)

// Response shape errors. They are logged, not returned: a batch whose
// response cannot be parsed produces no rows.
var (
	errEmptyResponse   = errors.New("empty response body")
	errUnexpectedShape = errors.New("response is neither an object nor an accepted list")
)

// correlate turns a successful response into result rows.
//
// submitted is the joined request value, contextIndex the source index for
// elements that cannot be matched by resource (see pendingBatch.contextIndex),
// and index the batch's value to source index map. Rows are returned in response order.
func (s *Session) correlate(body []byte, submitted string, k kind, contextIndex string, index map[string]string) []model.ResultRow {
	desc := k.entry.Descriptor
	typeName := k.entry.Type.String()

	elements, err := splitElements(body, desc.Batched())
	if err != nil {
		s.logger.Warn("could not parse response, batch dropped",
			"run", s.id,
			"type", typeName,
			"observables", submitted,
			"source_index", contextIndex,
			"error", err,
		)
		return nil
	}

	observables := []string{submitted}
	if desc.Delimiter != "" {
		observables = strings.Split(submitted, desc.Delimiter)
	}

	rows := make([]model.ResultRow, 0, len(elements))
	for pos, raw := range elements {
		fields, err := decodeObject(raw)
		if err != nil {
			s.logger.Warn("skipping malformed response element",
				"run", s.id,
				"type", typeName,
				"position", pos,
				"error", err,
			)
			continue
		}

		row := model.ResultRow{
			IoCType:     typeName,
			Status:      model.StatusSuccess,
			RawResponse: compactJSON(raw),
		}
		k.extract(fields, &row)

		switch {
		case len(elements) == 1 || len(index) < 2:
			row.Observable = submitted
			row.SourceIndex = contextIndex
		case hasIndexedResource(fields, index):
			resource := stringField(fields, "resource")
			row.Observable = resource
			row.SourceIndex = index[resource]
		case pos < len(observables):
			row.Observable = observables[pos]
			row.SourceIndex = index[observables[pos]]
		default:
			s.logger.Warn("response has more elements than submitted observables",
				"run", s.id,
				"type", typeName,
				"position", pos,
				"submitted", len(observables),
			)
			continue
		}

		rows = append(rows, row)
	}

	return rows
}

// hasIndexedResource reports whether the element names a submitted value in
// its resource field.
func hasIndexedResource(fields map[string]any, index map[string]string) bool {
	resource, ok := fields["resource"].(string)
	if !ok {
		return false
	}
	_, ok = index[resource]
	return ok
}

// splitElements returns the response elements. A list is accepted only for
// batched types; any other body must be a single object.
func splitElements(body []byte, batched bool) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errEmptyResponse
	}

	switch trimmed[0] {
	case '{':
		if !json.Valid(trimmed) {
			return nil, errUnexpectedShape
		}
		return []json.RawMessage{trimmed}, nil
	case '[':
		if !batched {
			return nil, errUnexpectedShape
		}
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, err
		}
		return elements, nil
	default:
		return nil, errUnexpectedShape
	}
}

// decodeObject decodes one element, keeping numbers as json.Number.
func decodeObject(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errUnexpectedShape
	}
	return fields, nil
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
