package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nao1215/vtlookup/internal/ioc"
)

func TestListTypes(t *testing.T) {
	t.Parallel()

	infos, err := listTypes(ioc.NewRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != len(ioc.AllTypes()) {
		t.Fatalf("expected %d types, got %d", len(ioc.AllTypes()), len(infos))
	}

	byType := make(map[string]typeInfo, len(infos))
	for _, info := range infos {
		byType[info.Type] = info
	}

	tests := []struct {
		typ     string
		apiType string
		batch   int
		family  string
	}{
		{typ: "ipv4", apiType: "ip-address", batch: 1, family: "ip"},
		{typ: "dns", apiType: "domain", batch: 1, family: "domain"},
		{typ: "url", apiType: "url", batch: 1, family: "url"},
		{typ: "md5_hash", apiType: "file", batch: 25, family: "file"},
		{typ: "sha256_hash", apiType: "file", batch: 25, family: "file"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			t.Parallel()

			got, ok := byType[tt.typ]
			if !ok {
				t.Fatalf("type %s not listed", tt.typ)
			}
			if got.APIType != tt.apiType || got.BatchSize != tt.batch || got.Family != tt.family {
				t.Errorf("unexpected info %+v", got)
			}
		})
	}
}

func TestTypesCmd(t *testing.T) {
	t.Parallel()

	t.Run("table", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t, "types")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"API Type", "ip-address", "sha1_hash"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got %s", want, stdout)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t, "types", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var infos []typeInfo
		if err := json.Unmarshal([]byte(stdout), &infos); err != nil {
			t.Fatalf("expected JSON: %v", err)
		}
		if len(infos) == 0 {
			t.Error("expected types")
		}
	})
}
