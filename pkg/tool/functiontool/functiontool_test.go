package functiontool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/parley/pkg/tool"
)

type searchArgs struct {
	Query string `json:"query" jsonschema:"required,description=Search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max results,default=10"`
}

func TestNewValidatesConfig(t *testing.T) {
	fn := func(_ tool.Context, _ searchArgs) (map[string]any, error) { return nil, nil }

	_, err := New(Config{Description: "d"}, fn)
	assert.ErrorContains(t, err, "requires a name")

	_, err = New(Config{Name: "search"}, fn)
	assert.ErrorContains(t, err, "requires a description")

	_, err = New[searchArgs](Config{Name: "search", Description: "d"}, nil)
	assert.ErrorContains(t, err, "requires a function")
}

func TestSchemaFromStructTags(t *testing.T) {
	ft, err := New(Config{Name: "search", Description: "Search documents"},
		func(_ tool.Context, _ searchArgs) (map[string]any, error) { return nil, nil })
	require.NoError(t, err)

	schema := ft.Schema()
	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "limit")

	query, ok := props["query"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Search query", query["description"])

	required, ok := schema["required"].([]any)
	require.True(t, ok)
	assert.Contains(t, required, "query")
	assert.NotContains(t, required, "limit")
}

func TestCallConvertsArguments(t *testing.T) {
	var got searchArgs
	ft, err := New(Config{Name: "search", Description: "Search documents"},
		func(_ tool.Context, args searchArgs) (map[string]any, error) {
			got = args
			return map[string]any{"hits": 3}, nil
		})
	require.NoError(t, err)

	ctx := tool.NewContext(context.Background(), "call-1")
	result, err := ft.Call(ctx, map[string]any{"query": "renewals", "limit": 5})
	require.NoError(t, err)

	assert.Equal(t, "renewals", got.Query)
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, 3, result["hits"])
}

func TestUsageGuidelinesExposed(t *testing.T) {
	ft, err := New(Config{Name: "search", Description: "d", UsageGuidelines: "Prefer narrow queries."},
		func(_ tool.Context, _ searchArgs) (map[string]any, error) { return nil, nil })
	require.NoError(t, err)

	guided, ok := ft.(tool.GuidedTool)
	require.True(t, ok)
	assert.Equal(t, "Prefer narrow queries.", guided.UsageGuidelines())
}
