package agent

import (
	"github.com/parley-ai/parley/pkg/config"
)

// structuredSchema builds the response schema for the second pass: an
// object carrying the configured data components, plus artifact-create
// entries when the agent can create artifacts.
func structuredSchema(cfg *config.AgentConfig) map[string]any {
	variants := make([]any, 0, len(cfg.DataComponents))
	for _, dc := range cfg.DataComponents {
		variants = append(variants, map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"const":       dc.Name,
					"description": dc.Description,
				},
				"props": dc.Props,
			},
			"required": []any{"name", "props"},
		})
	}

	properties := map[string]any{
		"dataComponents": map[string]any{
			"type":        "array",
			"description": "Structured answer components, in display order.",
			"items":       map[string]any{"anyOf": variants},
		},
	}
	required := []any{"dataComponents"}

	if len(cfg.ArtifactComponents) > 0 {
		properties["artifacts"] = artifactCreateSchema(cfg.ArtifactComponents)
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// artifactCreateSchema describes artifact-create entries the model may
// emit alongside structured output. Selector fields hold paths into a
// tool result, never literal values.
func artifactCreateSchema(components []config.ArtifactComponent) map[string]any {
	types := make([]any, 0, len(components))
	for _, comp := range components {
		types = append(types, comp.Name)
	}
	return map[string]any{
		"type":        "array",
		"description": "Artifacts cited from tool results.",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"artifactId": map[string]any{"type": "string"},
				"toolCallId": map[string]any{"type": "string"},
				"type":       map[string]any{"type": "string", "enum": types},
				"base": map[string]any{
					"type":        "string",
					"description": "Selector into the tool result narrowing to exactly one item.",
				},
				"details": map[string]any{
					"type":        "object",
					"description": "Output field name to selector relative to base.",
					"additionalProperties": map[string]any{
						"type": "string",
					},
				},
			},
			"required": []any{"artifactId", "toolCallId", "type", "base"},
		},
	}
}
