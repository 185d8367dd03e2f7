package schemadoc

import (
	"encoding/json"
	"testing"
)

func TestGenerateProducesValidJSONWithAllExtensionTypes(t *testing.T) {
	data, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("generated document is not valid JSON: %v", err)
	}

	defs, ok := doc["$defs"].(map[string]any)
	if !ok {
		t.Fatalf("missing $defs in generated document: %+v", doc)
	}
	for name := range extensionTypes {
		if _, ok := defs[name]; !ok {
			t.Errorf("missing definition for %q", name)
		}
	}
}
