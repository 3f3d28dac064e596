// Package schema projects JSON-Schema-like objects into preview and full
// field subsets and renders compact shape summaries for prompt text.
//
// Artifact component schemas flag each leaf property with `inPreview`; the
// projector splits a schema along that flag. Shape summaries are purely
// documentation for the model, never used for validation.
package schema

// PreviewFlag marks a property as visible in artifact previews.
const PreviewFlag = "inPreview"

// ExtractPreviewFields returns a copy of the schema containing only the
// properties flagged inPreview=true, with the flag stripped and the
// required list filtered to preview-eligible names.
func ExtractPreviewFields(s map[string]any) map[string]any {
	out := copyTopLevel(s)

	props, _ := s["properties"].(map[string]any)
	outProps := make(map[string]any)
	for name, raw := range props {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if flag, ok := prop[PreviewFlag].(bool); !ok || !flag {
			continue
		}
		outProps[name] = stripFlag(prop)
	}
	out["properties"] = outProps

	if required, ok := s["required"].([]any); ok {
		filtered := make([]any, 0, len(required))
		for _, name := range required {
			if n, ok := name.(string); ok {
				if _, keep := outProps[n]; keep {
					filtered = append(filtered, n)
				}
			}
		}
		out["required"] = filtered
	}

	return out
}

// ExtractFullFields returns a copy of the schema with every property, the
// inPreview flag stripped, and the required list unchanged.
func ExtractFullFields(s map[string]any) map[string]any {
	out := copyTopLevel(s)

	props, _ := s["properties"].(map[string]any)
	outProps := make(map[string]any)
	for name, raw := range props {
		prop, ok := raw.(map[string]any)
		if !ok {
			outProps[name] = raw
			continue
		}
		outProps[name] = stripFlag(prop)
	}
	out["properties"] = outProps

	return out
}

// BuildSchemaShape reduces a properties map to a compact structural summary:
// array-of-object becomes a one-element slice holding the item shape,
// array-of-primitive a one-element slice holding the type name, an array
// without a usable items schema an empty slice, a nested object its recursed
// shape, a primitive its type name, and a property without a type the
// literal "unknown". Total over any input.
func BuildSchemaShape(properties map[string]any) map[string]any {
	shape := make(map[string]any, len(properties))

	for name, raw := range properties {
		prop, ok := raw.(map[string]any)
		if !ok {
			shape[name] = "unknown"
			continue
		}
		shape[name] = propertyShape(prop)
	}

	return shape
}

func propertyShape(prop map[string]any) any {
	typ, _ := prop["type"].(string)
	switch typ {
	case "array":
		items, ok := prop["items"].(map[string]any)
		if !ok {
			return []any{}
		}
		itemType, _ := items["type"].(string)
		if itemType == "object" {
			nested, _ := items["properties"].(map[string]any)
			return []any{BuildSchemaShape(nested)}
		}
		if itemType == "" {
			return []any{}
		}
		return []any{itemType}
	case "object":
		nested, _ := prop["properties"].(map[string]any)
		return BuildSchemaShape(nested)
	case "":
		return "unknown"
	default:
		return typ
	}
}

// copyTopLevel shallow-copies everything except properties, which the
// callers rebuild.
func copyTopLevel(s map[string]any) map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		if k == "properties" {
			continue
		}
		out[k] = v
	}
	return out
}

func stripFlag(prop map[string]any) map[string]any {
	out := make(map[string]any, len(prop))
	for k, v := range prop {
		if k == PreviewFlag {
			continue
		}
		out[k] = v
	}
	return out
}
