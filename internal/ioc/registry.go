package ioc

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
)

// Descriptor describes how observables of one API-facing type are submitted.
type Descriptor struct {
	// APIType is the service's name for the type, used in the request path.
	APIType string

	// BatchSize is the maximum number of observables in one request.
	BatchSize int

	// Delimiter joins batched observables into one request value.
	// It is empty for types that are never batched.
	Delimiter string

	// HTTPVerb is the request method (http.MethodGet or http.MethodPost).
	HTTPVerb string

	// ParamName is the request parameter that carries the observable(s).
	ParamName string

	// Headers are extra request headers for this type.
	Headers map[string]string
}

// Batched reports whether more than one observable may share a request.
func (d Descriptor) Batched() bool {
	return d.BatchSize > 1
}

// API type names used by the reputation service.
const (
	APITypeURL    = "url"
	APITypeFile   = "file"
	APITypeIP     = "ip-address"
	APITypeDomain = "domain"
)

// gzipHeaders is sent for the types whose reports can be large.
var gzipHeaders = map[string]string{"Accept-Encoding": "gzip, deflate"}

// defaultDescriptors are the service's API types and their request parameters.
var defaultDescriptors = map[string]Descriptor{
	APITypeURL:    {APIType: APITypeURL, BatchSize: 1, Delimiter: "\n", HTTPVerb: http.MethodGet, ParamName: "resource", Headers: gzipHeaders},
	APITypeFile:   {APIType: APITypeFile, BatchSize: 25, Delimiter: ",", HTTPVerb: http.MethodGet, ParamName: "resource", Headers: gzipHeaders},
	APITypeIP:     {APIType: APITypeIP, BatchSize: 1, Delimiter: "", HTTPVerb: http.MethodGet, ParamName: "ip"},
	APITypeDomain: {APIType: APITypeDomain, BatchSize: 1, Delimiter: "", HTTPVerb: http.MethodGet, ParamName: "domain"},
}

// defaultTypeMap maps canonical types onto API types.
var defaultTypeMap = map[Type]string{
	TypeIPv4:   APITypeIP,
	TypeDNS:    APITypeDomain,
	TypeURL:    APITypeURL,
	TypeMD5:    APITypeFile,
	TypeSHA1:   APITypeFile,
	TypeSHA256: APITypeFile,
}

// Entry is the resolved registry record for one canonical type.
type Entry struct {
	Type       Type
	Family     Family
	Descriptor Descriptor
}

// Registry maps canonical types to their descriptors.
// It is built once and is read-only afterwards, so it is safe for
// concurrent use.
type Registry struct {
	entries map[Type]Entry
	order   []Type
}

// NewRegistry builds the default registry.
func NewRegistry() *Registry {
	r, err := NewRegistryFrom(defaultTypeMap, defaultDescriptors)
	if err != nil {
		// The built-in tables are consistent; this only fires if they are edited badly.
		panic(err)
	}
	return r
}

// NewRegistryFrom builds a registry from a type map and a descriptor table.
// Every mapped API type must have a descriptor with a positive batch size,
// and batched descriptors must have a delimiter.
func NewRegistryFrom(typeMap map[Type]string, descriptors map[string]Descriptor) (*Registry, error) {
	r := &Registry{entries: make(map[Type]Entry, len(typeMap))}

	for _, t := range AllTypes() {
		apiType, ok := typeMap[t]
		if !ok {
			continue
		}
		desc, ok := descriptors[apiType]
		if !ok {
			return nil, fmt.Errorf("%w: %s maps to unknown API type %q", ErrUnsupportedType, t, apiType)
		}
		if desc.BatchSize < 1 {
			return nil, fmt.Errorf("API type %q: batch size must be positive", apiType)
		}
		if desc.Batched() && desc.Delimiter == "" {
			return nil, fmt.Errorf("API type %q: batched type needs a delimiter", apiType)
		}
		if desc.HTTPVerb == "" {
			desc.HTTPVerb = http.MethodGet
		}
		r.entries[t] = Entry{Type: t, Family: t.Family(), Descriptor: desc}
		r.order = append(r.order, t)
	}

	return r, nil
}

// Lookup returns the registry entry for a canonical type.
func (r *Registry) Lookup(t Type) (Entry, error) {
	e, ok := r.entries[t]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return e, nil
}

// Resolve parses a type name and returns its registry entry.
func (r *Registry) Resolve(name string) (Entry, error) {
	t, err := ParseType(name)
	if err != nil {
		return Entry{}, err
	}
	return r.Lookup(t)
}

// Types returns the supported canonical types in processing order.
func (r *Registry) Types() []Type {
	return slices.Clone(r.order)
}

// APITypes returns the sorted API type names known to the registry.
func (r *Registry) APITypes() []string {
	seen := make(map[string]struct{})
	for _, e := range r.entries {
		seen[e.Descriptor.APIType] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Mapping returns canonical type name to API type name.
func (r *Registry) Mapping() map[string]string {
	m := make(map[string]string, len(r.entries))
	for t, e := range r.entries {
		m[t.String()] = e.Descriptor.APIType
	}
	return m
}
