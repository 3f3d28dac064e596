package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/parley/pkg/artifact"
	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/tool"
)

func TestLoadSkill(t *testing.T) {
	lt := NewLoadSkillTool([]config.Skill{
		{Name: "refunds", Content: "Full refund within 30 days."},
	})
	ctx := tool.NewContext(context.Background(), "call-1")

	result, err := lt.Call(ctx, map[string]any{"name": "refunds"})
	require.NoError(t, err)
	assert.Equal(t, "Full refund within 30 days.", result["content"])

	_, err = lt.Call(ctx, map[string]any{"name": "missing"})
	assert.ErrorContains(t, err, `unknown skill "missing"`)

	_, err = lt.Call(ctx, map[string]any{})
	assert.ErrorContains(t, err, "requires a skill name")
}

func TestReferenceArtifactReturnsFullFields(t *testing.T) {
	props := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"total": map[string]any{"type": "number", "inPreview": true},
			"lines": map[string]any{"type": "array"},
		},
	}
	component := &config.ArtifactComponent{Name: "Invoice", Props: props}

	a, err := artifact.New("art-1", "call-1", "Invoice", "Invoice 42", "",
		map[string]any{"total": 10.0, "lines": []any{"a", "b"}}, component)
	require.NoError(t, err)

	store := artifact.NewStore()
	require.NoError(t, store.Put(a))

	rt := NewReferenceArtifactTool(store)
	ctx := tool.NewContext(context.Background(), "call-2")

	result, err := rt.Call(ctx, map[string]any{
		"artifact_id":  "art-1",
		"tool_call_id": "call-1",
	})
	require.NoError(t, err)

	fields, ok := result["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 10.0, fields["total"])
	assert.Equal(t, []any{"a", "b"}, fields["lines"])

	_, err = rt.Call(ctx, map[string]any{
		"artifact_id":  "nope",
		"tool_call_id": "call-1",
	})
	var citation *artifact.CitationError
	assert.ErrorAs(t, err, &citation)
}
