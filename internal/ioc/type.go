package ioc

import (
	"fmt"
	"strings"
)

// Type is a canonical observable type.
type Type int

const (
	// TypeUnknown is the zero value and is never submitted.
	TypeUnknown Type = iota
	// TypeIPv4 is a dotted IPv4 address.
	TypeIPv4
	// TypeDNS is a DNS domain name.
	TypeDNS
	// TypeURL is a URL.
	TypeURL
	// TypeMD5 is an MD5 file hash.
	TypeMD5
	// TypeSHA1 is a SHA1 file hash.
	TypeSHA1
	// TypeSHA256 is a SHA256 file hash.
	TypeSHA256
)

// typeNames holds the canonical names in the order types are processed.
var typeNames = []struct {
	t    Type
	name string
}{
	{TypeIPv4, "ipv4"},
	{TypeDNS, "dns"},
	{TypeURL, "url"},
	{TypeMD5, "md5_hash"},
	{TypeSHA1, "sha1_hash"},
	{TypeSHA256, "sha256_hash"},
}

// AllTypes returns the canonical types in processing order.
func AllTypes() []Type {
	types := make([]Type, len(typeNames))
	for i, tn := range typeNames {
		types[i] = tn.t
	}
	return types
}

// String returns the canonical name of the type.
func (t Type) String() string {
	for _, tn := range typeNames {
		if tn.t == t {
			return tn.name
		}
	}
	return "unknown"
}

// IsHash reports whether the type is one of the file hash types.
// Hash values of the same artifact are interchangeable identifiers.
func (t Type) IsHash() bool {
	return t == TypeMD5 || t == TypeSHA1 || t == TypeSHA256
}

// ParseType returns the canonical type for a name.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseType(name string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, tn := range typeNames {
		if tn.name == key {
			return tn.t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// Family groups canonical types whose service responses share a shape.
// It selects the field-extraction routine for a response.
type Family int

const (
	// FamilyUnknown is never extracted.
	FamilyUnknown Family = iota
	// FamilyFile covers the hash types.
	FamilyFile
	// FamilyURL covers URLs.
	FamilyURL
	// FamilyIP covers IPv4 addresses.
	FamilyIP
	// FamilyDomain covers DNS domains.
	FamilyDomain
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyFile:
		return "file"
	case FamilyURL:
		return "url"
	case FamilyIP:
		return "ip"
	case FamilyDomain:
		return "domain"
	default:
		return "unknown"
	}
}

// Family returns the response family of the type.
func (t Type) Family() Family {
	switch t {
	case TypeMD5, TypeSHA1, TypeSHA256:
		return FamilyFile
	case TypeURL:
		return FamilyURL
	case TypeIPv4:
		return FamilyIP
	case TypeDNS:
		return FamilyDomain
	default:
		return FamilyUnknown
	}
}
