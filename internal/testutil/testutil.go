// Package testutil provides small generic helpers used by the manifest and
// lock file tests in internal/core: optional-field pointer constructors and
// YAML round-trip/field-presence assertions.
package testutil

import (
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// StrPtr creates a pointer to a string, for ImportSpec/LockEntry fields that
// distinguish "unset" from "set to the zero value" (e.g. License).
func StrPtr(s string) *string {
	return &s
}

// BoolPtr creates a pointer to a bool, for ImportSpec.Checkin's three-way
// unset/true/false semantics.
func BoolPtr(b bool) *bool {
	return &b
}

// AssertYAMLRoundTrip marshals v to YAML and unmarshals back into a fresh
// value, failing the test if the result doesn't match the original.
func AssertYAMLRoundTrip[T any](t *testing.T, original T) {
	t.Helper()
	data, err := yaml.Marshal(original)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var parsed T
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if !reflect.DeepEqual(original, parsed) {
		t.Errorf("round-trip mismatch:\noriginal: %+v\nparsed:   %+v", original, parsed)
	}
}

// AssertYAMLOmitsField verifies a field is not present in marshalled YAML
// output, for `omitempty` fields like ImportSpec.Checkin left unset.
func AssertYAMLOmitsField(t *testing.T, v any, fieldName string) {
	t.Helper()
	data, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if strings.Contains(string(data), fieldName+":") {
		t.Errorf("expected field %q to be omitted from YAML output, got:\n%s", fieldName, string(data))
	}
}

// AssertYAMLContainsField verifies a field is present in marshalled YAML
// output.
func AssertYAMLContainsField(t *testing.T, v any, fieldName string) {
	t.Helper()
	data, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !strings.Contains(string(data), fieldName+":") {
		t.Errorf("expected field %q to be present in YAML output, got:\n%s", fieldName, string(data))
	}
}
