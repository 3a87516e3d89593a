package ioc

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Status texts recorded for observables that fail validation.
const (
	StatusEmpty        = "Failed: Empty or missing observable value"
	statusBadHash      = "Failed: Invalid %s format"
	statusBadIPv4      = "Failed: Invalid IPv4 address"
	statusLocalIPv4    = "Failed: IP address is local, private or reserved"
	statusBadDomain    = "Failed: Invalid DNS domain name"
	statusBadURL       = "Failed: Invalid URL format"
	statusBadURLScheme = "Failed: Unsupported URL scheme"
	statusUnknownType  = "Failed: Unsupported IoC type"
)

const (
	maxDomainLength      = 253
	maxDomainLabelLength = 63
)

// hashLengths is the hex length of each hash type.
var hashLengths = map[Type]int{
	TypeMD5:    32,
	TypeSHA1:   40,
	TypeSHA256: 64,
}

// allowedURLSchemes are the URL schemes the service accepts.
var allowedURLSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"ftp":    true,
	"telnet": true,
	"ldap":   true,
	"file":   true,
}

// ValidationError reports why an observable was rejected.
// Status is the text recorded in the result row.
type ValidationError struct {
	Status string
}

// Error returns the status text.
func (e *ValidationError) Error() string {
	return e.Status
}

// Unwrap lets errors.Is match ErrInvalidObservable.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidObservable
}

func invalid(status string) error {
	return &ValidationError{Status: status}
}

// Sanitizer validates and normalizes observable values.
// The zero value is ready to use.
type Sanitizer struct{}

// NewSanitizer returns the default sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize returns the normalized form of raw for type t, or a
// *ValidationError whose Status explains the rejection.
func (s *Sanitizer) Sanitize(raw string, t Type) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", invalid(StatusEmpty)
	}

	switch t {
	case TypeMD5, TypeSHA1, TypeSHA256:
		return sanitizeHash(value, t)
	case TypeIPv4:
		return sanitizeIPv4(value)
	case TypeDNS:
		return sanitizeDomain(value)
	case TypeURL:
		return sanitizeURL(value)
	default:
		return "", invalid(statusUnknownType)
	}
}

func sanitizeHash(value string, t Type) (string, error) {
	value = strings.ToLower(value)
	if len(value) != hashLengths[t] || !isHex(value) {
		return "", invalid(fmt.Sprintf(statusBadHash, t))
	}
	return value, nil
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func sanitizeIPv4(value string) (string, error) {
	addr, err := netip.ParseAddr(value)
	if err != nil || !addr.Is4() {
		return "", invalid(statusBadIPv4)
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsMulticast() {
		return "", invalid(statusLocalIPv4)
	}
	return addr.String(), nil
}

func sanitizeDomain(value string) (string, error) {
	host, ok := normalizeHost(value)
	if !ok {
		return "", invalid(statusBadDomain)
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return "", invalid(statusBadDomain)
	}
	return host, nil
}

// normalizeHost converts a host name to lowercase ASCII and checks its syntax.
func normalizeHost(value string) (string, bool) {
	host, err := idna.Lookup.ToASCII(strings.TrimSuffix(strings.ToLower(value), "."))
	if err != nil || host == "" || len(host) > maxDomainLength {
		return "", false
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return "", false
	}
	for _, label := range labels {
		if !validLabel(label) {
			return "", false
		}
	}

	tld := labels[len(labels)-1]
	if !strings.HasPrefix(tld, "xn--") {
		for _, c := range tld {
			if c < 'a' || c > 'z' {
				return "", false
			}
		}
	}
	return host, true
}

func validLabel(label string) bool {
	if label == "" || len(label) > maxDomainLabelLength {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, c := range label {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

func sanitizeURL(value string) (string, error) {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" {
		return "", invalid(statusBadURL)
	}
	scheme := strings.ToLower(u.Scheme)
	if !allowedURLSchemes[scheme] {
		return "", invalid(statusBadURLScheme)
	}
	u.Scheme = scheme

	hostname := u.Hostname()
	if hostname == "" {
		if scheme != "file" {
			return "", invalid(statusBadURL)
		}
	} else if _, err := netip.ParseAddr(hostname); err != nil {
		host, ok := normalizeHost(hostname)
		if !ok {
			return "", invalid(statusBadURL)
		}
		if port := u.Port(); port != "" {
			host += ":" + port
		}
		u.Host = host
	}

	// Query strings and fragments identify a visit, not the resource.
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}
