package fog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	tekuri "github.com/santhosh-tekuri/jsonschema/v6"
)

var (
	schemaOnce sync.Once
	schemaJSON []byte
	schemaDoc  map[string]any
	compiled   *tekuri.Schema
	schemaErr  error
)

func buildSchema() {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(&Config{})
	s.Title = "Fog simulation configuration"

	schemaJSON, schemaErr = json.Marshal(s)
	if schemaErr != nil {
		return
	}
	if schemaErr = json.Unmarshal(schemaJSON, &schemaDoc); schemaErr != nil {
		return
	}

	doc, err := tekuri.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		schemaErr = err
		return
	}
	c := tekuri.NewCompiler()
	if err := c.AddResource("fog_config.json", doc); err != nil {
		schemaErr = err
		return
	}
	compiled, schemaErr = c.Compile("fog_config.json")
}

// ConfigSchema returns the JSON schema for Config as a generic document,
// suitable for embedding under a tool's sub_schemas.
func ConfigSchema() (map[string]any, error) {
	schemaOnce.Do(buildSchema)
	if schemaErr != nil {
		return nil, fmt.Errorf("building fog config schema: %w", schemaErr)
	}
	return schemaDoc, nil
}

// ValidateConfig checks a raw JSON config document against the schema.
func ValidateConfig(data []byte) error {
	schemaOnce.Do(buildSchema)
	if schemaErr != nil {
		return fmt.Errorf("building fog config schema: %w", schemaErr)
	}
	inst, err := tekuri.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return compiled.Validate(inst)
}
