package model

// InputRow is one row of the caller's input table.
type InputRow struct {
	// Observable is the raw, unvalidated observable value.
	Observable string `json:"Observable"`

	// Type is the caller's type label. It is either a canonical type name
	// or a label the caller has aliased onto one.
	Type string `json:"IoCType"`

	// SourceIndex identifies the originating input row. It is copied to
	// every result row produced for this input.
	SourceIndex string `json:"SourceIndex"`
}
