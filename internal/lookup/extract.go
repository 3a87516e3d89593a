package lookup

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/nao1215/vtlookup/internal/ioc"
	"github.com/nao1215/vtlookup/internal/model"
)

// listSeparator joins flattened multi-valued fields.
const listSeparator = ", "

// extractFunc copies type-specific fields from one decoded response element
// into a result row.
type extractFunc func(fields map[string]any, row *model.ResultRow)

// extractors holds the extraction routine for each response family.
var extractors = map[ioc.Family]extractFunc{
	ioc.FamilyFile:   extractFile,
	ioc.FamilyURL:    extractScan,
	ioc.FamilyIP:     extractIP,
	ioc.FamilyDomain: extractDomain,
}

// extractScan reads the scan report fields shared by URL and file reports.
func extractScan(fields map[string]any, row *model.ResultRow) {
	row.ResponseCode = intField(fields, "response_code")
	row.VerboseMsg = stringField(fields, "verbose_msg")
	row.ScanID = stringField(fields, "scan_id")
	row.Resource = stringField(fields, "resource")
	row.Permalink = stringField(fields, "permalink")
	row.Positives = intField(fields, "positives")
}

func extractFile(fields map[string]any, row *model.ResultRow) {
	extractScan(fields, row)
	row.MD5 = stringField(fields, "md5")
	row.SHA1 = stringField(fields, "sha1")
	row.SHA256 = stringField(fields, "sha256")
}

func extractIP(fields map[string]any, row *model.ResultRow) {
	row.ResponseCode = intField(fields, "response_code")
	row.VerboseMsg = stringField(fields, "verbose_msg")
	if resolutions, ok := listField(fields, "resolutions"); ok {
		row.ResolvedDomains = joinItems(resolutions, "hostname")
	}
	extractDetectedURLs(fields, row)
}

func extractDomain(fields map[string]any, row *model.ResultRow) {
	row.ResponseCode = intField(fields, "response_code")
	row.VerboseMsg = stringField(fields, "verbose_msg")
	if resolutions, ok := listField(fields, "resolutions"); ok {
		row.ResolvedIPs = joinItems(resolutions, "ip_address")
	}
	extractDetectedURLs(fields, row)
}

// extractDetectedURLs flattens detected_urls. Positives becomes the sum of
// the per-URL positives, replacing any top-level value.
func extractDetectedURLs(fields map[string]any, row *model.ResultRow) {
	detected, ok := listField(fields, "detected_urls")
	if !ok {
		return
	}

	row.DetectedUrls = joinItems(detected, "url")

	total := 0
	for _, item := range detected {
		if p := intField(item, "positives"); p != nil {
			total += *p
		}
	}
	row.Positives = &total
}

// joinItems joins the key field of every item that has one.
func joinItems(items []map[string]any, key string) string {
	values := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := item[key]; ok {
			values = append(values, stringField(item, key))
		}
	}
	return strings.Join(values, listSeparator)
}

// stringField returns the field as text. Numbers and booleans are formatted;
// missing and null fields are empty.
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// intField returns the field as an integer, or nil if it is missing or not
// numeric. Fractional numbers are truncated.
func intField(fields map[string]any, key string) *int {
	var n int
	switch v := fields[key].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			n = int(i)
		} else if f, err := v.Float64(); err == nil {
			n = int(f)
		} else {
			return nil
		}
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return nil
		}
		n = i
	default:
		return nil
	}
	return &n
}

// listField returns the object items of a list field. ok is false when the
// field is missing or is not a list.
func listField(fields map[string]any, key string) ([]map[string]any, bool) {
	raw, ok := fields[key].([]any)
	if !ok {
		return nil, false
	}
	items := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if item, ok := r.(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items, true
}
