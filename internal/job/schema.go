package job

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/reglet-dev/asmbridge/format"
)

// JSONSchemaExtend lists the accepted format names.
func (Job) JSONSchemaExtend(s *jsonschema.Schema) {
	addFormatEnum(s)
}

// JSONSchemaExtend lists the accepted format names.
func (Defaults) JSONSchemaExtend(s *jsonschema.Schema) {
	addFormatEnum(s)
}

func addFormatEnum(s *jsonschema.Schema) {
	prop, ok := s.Properties.Get("format")
	if !ok {
		return
	}
	for _, f := range format.All() {
		prop.Enum = append(prop.Enum, f.String())
	}
}

// Schema returns the JSON schema (Draft 2020-12) of a manifest.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		FieldNameTag:   "yaml",
	}
	schema := reflector.Reflect(&Manifest{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}
