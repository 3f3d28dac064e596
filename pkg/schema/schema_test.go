package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func orderSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":      "string",
				"inPreview": true,
			},
			"url": map[string]any{
				"type":      "string",
				"inPreview": true,
			},
			"body": map[string]any{
				"type": "string",
			},
			"score": map[string]any{
				"type":      "number",
				"inPreview": false,
			},
		},
		"required": []any{"title", "body"},
	}
}

func TestExtractPreviewFields(t *testing.T) {
	preview := ExtractPreviewFields(orderSchema())

	props := preview["properties"].(map[string]any)
	assert.Len(t, props, 2)
	assert.Contains(t, props, "title")
	assert.Contains(t, props, "url")
	assert.NotContains(t, props, "body")
	assert.NotContains(t, props, "score")

	for name, raw := range props {
		prop := raw.(map[string]any)
		assert.NotContains(t, prop, PreviewFlag, "property %s retains flag", name)
	}

	assert.Equal(t, []any{"title"}, preview["required"])
}

func TestExtractFullFields(t *testing.T) {
	full := ExtractFullFields(orderSchema())

	props := full["properties"].(map[string]any)
	assert.Len(t, props, 4)
	for name, raw := range props {
		prop := raw.(map[string]any)
		assert.NotContains(t, prop, PreviewFlag, "property %s retains flag", name)
	}

	assert.Equal(t, []any{"title", "body"}, full["required"])
}

func TestPreviewIsSubsetOfFull(t *testing.T) {
	s := orderSchema()
	previewProps := ExtractPreviewFields(s)["properties"].(map[string]any)
	fullProps := ExtractFullFields(s)["properties"].(map[string]any)

	for name := range previewProps {
		assert.Contains(t, fullProps, name)
	}
}

func TestExtractDoesNotMutateInput(t *testing.T) {
	s := orderSchema()
	ExtractPreviewFields(s)
	ExtractFullFields(s)

	title := s["properties"].(map[string]any)["title"].(map[string]any)
	assert.Equal(t, true, title[PreviewFlag])
	assert.Equal(t, []any{"title", "body"}, s["required"])
}

func TestBuildSchemaShape(t *testing.T) {
	tests := []struct {
		name       string
		properties map[string]any
		expected   map[string]any
	}{
		{
			name: "array_of_primitive",
			properties: map[string]any{
				"tags": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			expected: map[string]any{"tags": []any{"string"}},
		},
		{
			name: "array_without_items",
			properties: map[string]any{
				"data": map[string]any{"type": "array"},
			},
			expected: map[string]any{"data": []any{}},
		},
		{
			name: "missing_type",
			properties: map[string]any{
				"x": map[string]any{},
			},
			expected: map[string]any{"x": "unknown"},
		},
		{
			name: "array_of_object",
			properties: map[string]any{
				"entries": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id": map[string]any{"type": "string"},
						},
					},
				},
			},
			expected: map[string]any{
				"entries": []any{map[string]any{"id": "string"}},
			},
		},
		{
			name: "nested_object",
			properties: map[string]any{
				"author": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
						"age":  map[string]any{"type": "integer"},
					},
				},
			},
			expected: map[string]any{
				"author": map[string]any{"name": "string", "age": "integer"},
			},
		},
		{
			name: "primitive",
			properties: map[string]any{
				"count": map[string]any{"type": "number"},
			},
			expected: map[string]any{"count": "number"},
		},
		{
			name:       "empty",
			properties: map[string]any{},
			expected:   map[string]any{},
		},
		{
			name: "non_map_property",
			properties: map[string]any{
				"weird": "not a schema",
			},
			expected: map[string]any{"weird": "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildSchemaShape(tt.properties))
		})
	}
}
