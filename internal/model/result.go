package model

import (
	"strconv"
	"strings"
)

// Result statuses.
// Validation failures carry the sanitizer's failure text instead.
const (
	// StatusSuccess marks a row parsed from a service response.
	StatusSuccess = "Success"

	// StatusDuplicate marks a row cloned from an earlier result.
	StatusDuplicate = "Duplicate"

	// StatusFailedSubmissionPrefix starts the status of every row in a batch
	// whose submission failed.
	StatusFailedSubmissionPrefix = "Failed submission: "
)

// StatusKind classifies a row's status text.
type StatusKind int

const (
	// StatusKindSuccess is a parsed service response.
	StatusKindSuccess StatusKind = iota
	// StatusKindDuplicate is a clone of a prior result.
	StatusKindDuplicate
	// StatusKindFailure is a failed submission.
	StatusKindFailure
	// StatusKindInvalid is an observable rejected before submission.
	StatusKindInvalid
)

// String returns the lowercase name of the kind.
func (k StatusKind) String() string {
	switch k {
	case StatusKindSuccess:
		return "success"
	case StatusKindDuplicate:
		return "duplicate"
	case StatusKindFailure:
		return "failure"
	default:
		return "invalid"
	}
}

// Columns is the external column contract of the result table, in order.
// Resource appears twice; both columns carry the same value.
var Columns = []string{
	"Observable",
	"IoCType",
	"Status",
	"ResponseCode",
	"RawResponse",
	"Resource",
	"SourceIndex",
	"VerboseMsg",
	"Resource",
	"ScanId",
	"Permalink",
	"Positives",
	"MD5",
	"SHA1",
	"SHA256",
	"ResolvedDomains",
	"ResolvedIPs",
	"DetectedUrls",
}

// ResultRow is one record of the result table.
// Rows are created once and never modified after they are appended.
type ResultRow struct {
	// === Identity ===

	// Observable is the observable value the row describes.
	Observable string `json:"Observable"`

	// IoCType is the canonical type name.
	IoCType string `json:"IoCType"`

	// Status is Success, Duplicate, a "Failed submission: ..." text,
	// or the validation failure text.
	Status string `json:"Status"`

	// SourceIndex ties the row to its input row.
	SourceIndex string `json:"SourceIndex"`

	// === Service response ===

	// ResponseCode is the service's response_code. Nil when absent.
	ResponseCode *int `json:"ResponseCode"`

	// RawResponse is the serialized response element (or failure body).
	RawResponse string `json:"RawResponse"`

	// Resource is the resource the service reported on.
	Resource string `json:"Resource"`

	VerboseMsg string `json:"VerboseMsg"`
	ScanID     string `json:"ScanId"`
	Permalink  string `json:"Permalink"`

	// Positives is the number of engines that flagged the observable.
	// For IP and domain lookups it is the sum over detected URLs.
	Positives *int `json:"Positives"`

	// === File hashes ===

	MD5    string `json:"MD5"`
	SHA1   string `json:"SHA1"`
	SHA256 string `json:"SHA256"`

	// === Flattened multi-valued fields ===

	// ResolvedDomains is the comma-joined hostnames an IP resolved to.
	ResolvedDomains string `json:"ResolvedDomains"`

	// ResolvedIPs is the comma-joined addresses a domain resolved to.
	ResolvedIPs string `json:"ResolvedIPs"`

	// DetectedUrls is the comma-joined URLs detected on an IP or domain.
	DetectedUrls string `json:"DetectedUrls"`
}

// Kind classifies the row's status.
func (r ResultRow) Kind() StatusKind {
	switch {
	case r.Status == StatusSuccess:
		return StatusKindSuccess
	case r.Status == StatusDuplicate:
		return StatusKindDuplicate
	case strings.HasPrefix(r.Status, StatusFailedSubmissionPrefix):
		return StatusKindFailure
	default:
		return StatusKindInvalid
	}
}

// Detected reports whether at least one engine flagged the observable.
func (r ResultRow) Detected() bool {
	return r.Positives != nil && *r.Positives > 0
}

// Clone returns a deep copy of the row.
func (r ResultRow) Clone() ResultRow {
	c := r
	if r.ResponseCode != nil {
		v := *r.ResponseCode
		c.ResponseCode = &v
	}
	if r.Positives != nil {
		v := *r.Positives
		c.Positives = &v
	}
	return c
}

// Values returns the row's fields as strings in Columns order.
// Absent numeric fields are empty strings.
func (r ResultRow) Values() []string {
	return []string{
		r.Observable,
		r.IoCType,
		r.Status,
		formatOptional(r.ResponseCode),
		r.RawResponse,
		r.Resource,
		r.SourceIndex,
		r.VerboseMsg,
		r.Resource,
		r.ScanID,
		r.Permalink,
		formatOptional(r.Positives),
		r.MD5,
		r.SHA1,
		r.SHA256,
		r.ResolvedDomains,
		r.ResolvedIPs,
		r.DetectedUrls,
	}
}

func formatOptional(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
