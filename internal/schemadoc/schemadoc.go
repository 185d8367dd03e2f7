// Package schemadoc generates and self-validates the JSON schema for the
// `ct/*` DAP extension types (spec §6 "schema-generator"). Grounded on
// pkg/kernel/schema/export.go for invopop/jsonschema reflection, and on
// pkg/schema/validate.go for compiling the reflected schema back through
// santhosh-tekuri/jsonschema/v6 as a self-check that the reflector
// produced something the validator itself accepts.
package schemadoc

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/codetracer/db-backend/internal/dapproto"
	"github.com/codetracer/db-backend/internal/eventdb"
	"github.com/codetracer/db-backend/internal/search"
)

// extensionTypes lists every `ct/*` argument/body type spec §4.3 names,
// reflected together into one merged document.
var extensionTypes = map[string]any{
	"LaunchArguments":      dapproto.LaunchArguments{},
	"LoadLocalsArguments":  dapproto.LoadLocalsArguments{},
	"LoadLocalsBody":       dapproto.LoadLocalsBody{},
	"UpdateTableArguments": dapproto.UpdateTableArguments{},
	"UpdateTableBody":      eventdb.Table{},
	"FlowArguments":        dapproto.FlowArguments{},
	"SearchArguments":      dapproto.SearchArguments{},
	"SearchResult":         search.CommandPanelResult{},
}

// Document is the merged schema written to disk: one named definition per
// extension type, under a single Draft 2020-12 `$defs` document.
type Document struct {
	Schema string                        `json:"$schema"`
	ID     string                        `json:"$id"`
	Title  string                        `json:"title"`
	Defs   map[string]*jsonschema.Schema `json:"$defs"`
}

// Generate reflects every type in extensionTypes into one merged schema
// document and validates the result is itself schema-compliant JSON before
// returning it, matching pkg/schema/validate.go's
// compile-then-validate sequence.
func Generate() ([]byte, error) {
	r := new(jsonschema.Reflector)
	doc := Document{
		Schema: "https://json-schema.org/draft/2020-12/schema",
		ID:     "https://codetracer.example/schemas/db-backend-ct-extensions.json",
		Title:  "CodeTracer db-backend DAP extension types",
		Defs:   make(map[string]*jsonschema.Schema, len(extensionTypes)),
	}
	for name, v := range extensionTypes {
		doc.Defs[name] = r.Reflect(v)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema document: %w", err)
	}
	if err := selfValidate(data); err != nil {
		return nil, fmt.Errorf("generated schema failed self-validation: %w", err)
	}
	return data, nil
}

// selfValidate compiles data as a JSON Schema resource and confirms it
// validates against the meta-schema compiler without error — not a full
// document instance check (there is no single instance to check a $defs
// bag against), but enough to catch a reflector producing malformed schema
// JSON.
func selfValidate(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource("db-backend-ct-extensions.json", raw); err != nil {
		return err
	}
	_, err := c.Compile("db-backend-ct-extensions.json")
	return err
}

// commandArgType maps a dispatcher command (spec §4.3) to the extensionTypes
// entry whose schema its request arguments must satisfy before the handler
// ever unmarshals them into a concrete Go struct (spec §4.3a). Commands not
// listed here carry no `ct/*` extension schema and are left to go-dap's own
// typed request/response structs.
var commandArgType = map[string]string{
	"launch":         "LaunchArguments",
	"ct/loadLocals":  "LoadLocalsArguments",
	"ct/updateTable": "UpdateTableArguments",
	"ct/flow":        "FlowArguments",
	"ct/search":      "SearchArguments",
}

var (
	validatorsOnce sync.Once
	validators     map[string]*sjsonschema.Schema
	validatorsErr  error
)

// buildValidators reflects and compiles one schema per commandArgType entry,
// following pkg/schema/validate.go's reflect-marshal-AddResource-Compile
// sequence, just once per type instead of once for a merged document.
func buildValidators() (map[string]*sjsonschema.Schema, error) {
	r := new(jsonschema.Reflector)
	out := make(map[string]*sjsonschema.Schema, len(commandArgType))
	for command, typeName := range commandArgType {
		v, ok := extensionTypes[typeName]
		if !ok {
			return nil, fmt.Errorf("no extension type named %q for command %q", typeName, command)
		}
		data, err := json.Marshal(r.Reflect(v))
		if err != nil {
			return nil, fmt.Errorf("marshal schema for %q: %w", typeName, err)
		}
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal schema for %q: %w", typeName, err)
		}
		resourceID := typeName + ".json"
		c := sjsonschema.NewCompiler()
		if err := c.AddResource(resourceID, raw); err != nil {
			return nil, fmt.Errorf("add schema resource %q: %w", resourceID, err)
		}
		compiled, err := c.Compile(resourceID)
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", resourceID, err)
		}
		out[command] = compiled
	}
	return out, nil
}

// ValidateArguments checks raw against the compiled schema for command, per
// spec §4.3a. A nil error with no registered schema (an ordinary DAP command
// with no `ct/*` extension type) means "nothing to check here", not "valid".
func ValidateArguments(command string, raw json.RawMessage) error {
	validatorsOnce.Do(func() {
		validators, validatorsErr = buildValidators()
	})
	if validatorsErr != nil {
		return validatorsErr
	}
	schema, ok := validators[command]
	if !ok || len(raw) == 0 {
		return nil
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return err
	}
	return schema.Validate(instance)
}
