package functiontool

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// generateSchema reflects the Args type into a JSON schema map. Structs
// are inlined rather than referenced, and required fields come from the
// jsonschema struct tags.
func generateSchema[Args any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}

	schema := reflector.Reflect(new(Args))

	// Round-trip through JSON so every jsonschema type lands as plain
	// maps and slices.
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	delete(out, "$schema")
	delete(out, "$id")
	return out, nil
}

// mapToStruct converts loosely typed arguments into the typed struct
// through a JSON round trip.
func mapToStruct(m map[string]any, target any) error {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
