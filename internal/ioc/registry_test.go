package ioc

import (
	"errors"
	"net/http"
	"slices"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	t.Run("all canonical types are supported", func(t *testing.T) {
		t.Parallel()
		if !slices.Equal(r.Types(), AllTypes()) {
			t.Errorf("expected %v, got %v", AllTypes(), r.Types())
		}
	})

	t.Run("hash types share the file descriptor", func(t *testing.T) {
		t.Parallel()
		for _, typ := range []Type{TypeMD5, TypeSHA1, TypeSHA256} {
			e, err := r.Lookup(typ)
			if err != nil {
				t.Fatalf("Lookup(%s): %v", typ, err)
			}
			if e.Descriptor.APIType != APITypeFile {
				t.Errorf("%s: expected API type file, got %q", typ, e.Descriptor.APIType)
			}
			if e.Descriptor.BatchSize != 25 || e.Descriptor.Delimiter != "," {
				t.Errorf("%s: unexpected batching %d %q", typ, e.Descriptor.BatchSize, e.Descriptor.Delimiter)
			}
			if e.Descriptor.Headers["Accept-Encoding"] == "" {
				t.Errorf("%s: expected Accept-Encoding header", typ)
			}
		}
	})

	t.Run("single-value types are not batched", func(t *testing.T) {
		t.Parallel()
		want := map[Type]string{TypeIPv4: "ip", TypeDNS: "domain", TypeURL: "resource"}
		for typ, param := range want {
			e, err := r.Lookup(typ)
			if err != nil {
				t.Fatalf("Lookup(%s): %v", typ, err)
			}
			if e.Descriptor.Batched() {
				t.Errorf("%s: expected unbatched descriptor", typ)
			}
			if e.Descriptor.ParamName != param {
				t.Errorf("%s: expected param %q, got %q", typ, param, e.Descriptor.ParamName)
			}
			if e.Descriptor.HTTPVerb != http.MethodGet {
				t.Errorf("%s: expected GET, got %s", typ, e.Descriptor.HTTPVerb)
			}
		}
	})

	t.Run("mapping and api types", func(t *testing.T) {
		t.Parallel()
		m := r.Mapping()
		if m["ipv4"] != "ip-address" || m["dns"] != "domain" || m["sha256_hash"] != "file" {
			t.Errorf("unexpected mapping %v", m)
		}
		want := []string{"domain", "file", "ip-address", "url"}
		if !slices.Equal(r.APITypes(), want) {
			t.Errorf("expected %v, got %v", want, r.APITypes())
		}
	})

	t.Run("resolve by name", func(t *testing.T) {
		t.Parallel()
		e, err := r.Resolve("dns")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Type != TypeDNS || e.Family != FamilyDomain {
			t.Errorf("unexpected entry %+v", e)
		}
		if _, err := r.Resolve("ipv6"); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("expected ErrUnsupportedType, got %v", err)
		}
	})
}

func TestNewRegistryFrom(t *testing.T) {
	t.Parallel()

	t.Run("unmapped types are unsupported", func(t *testing.T) {
		t.Parallel()

		r, err := NewRegistryFrom(map[Type]string{TypeURL: APITypeURL}, defaultDescriptors)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := r.Lookup(TypeIPv4); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("missing descriptor is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewRegistryFrom(map[Type]string{TypeURL: "nope"}, defaultDescriptors)
		if !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("batched descriptor needs a delimiter", func(t *testing.T) {
		t.Parallel()

		descs := map[string]Descriptor{"file": {APIType: "file", BatchSize: 4}}
		if _, err := NewRegistryFrom(map[Type]string{TypeMD5: "file"}, descs); err == nil {
			t.Error("expected error for batched descriptor without delimiter")
		}
	})

	t.Run("zero batch size is rejected", func(t *testing.T) {
		t.Parallel()

		descs := map[string]Descriptor{"url": {APIType: "url"}}
		if _, err := NewRegistryFrom(map[Type]string{TypeURL: "url"}, descs); err == nil {
			t.Error("expected error for zero batch size")
		}
	})
}
