// Package builtin provides the tools every agent gets for free:
// loading skills on demand and retrieving artifact previews.
package builtin

import (
	"fmt"

	"github.com/parley-ai/parley/pkg/artifact"
	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/tool"
)

// LoadSkillTool expands a skill outline into its full content. Only
// offered when the agent has at least one skill that is not always
// loaded.
type LoadSkillTool struct {
	skills []config.Skill
}

var _ tool.CallableTool = (*LoadSkillTool)(nil)

// NewLoadSkillTool builds the tool over the agent's skill list.
func NewLoadSkillTool(skills []config.Skill) *LoadSkillTool {
	return &LoadSkillTool{skills: skills}
}

func (t *LoadSkillTool) Name() string { return "load_skill" }

func (t *LoadSkillTool) Description() string {
	return "Load the full instructions of a skill listed in the skills outline."
}

func (t *LoadSkillTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Name of the skill to load",
			},
		},
		"required": []any{"name"},
	}
}

func (t *LoadSkillTool) Call(_ tool.Context, args map[string]any) (map[string]any, error) {
	name, _ := args["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("load_skill requires a skill name")
	}
	for _, s := range t.skills {
		if s.Name == name {
			return map[string]any{
				"name":    s.Name,
				"content": s.Content,
			}, nil
		}
	}
	return nil, fmt.Errorf("unknown skill %q", name)
}

// ReferenceArtifactTool returns the full fields of an existing
// artifact. Text references are limited to the preview subset; this
// tool is the only path to the remaining fields. Offered only when
// artifact components exist somewhere in the project, otherwise there
// is nothing it could ever return.
type ReferenceArtifactTool struct {
	store *artifact.Store
}

var _ tool.CallableTool = (*ReferenceArtifactTool)(nil)

// NewReferenceArtifactTool builds the tool over the turn's artifact
// store.
func NewReferenceArtifactTool(store *artifact.Store) *ReferenceArtifactTool {
	return &ReferenceArtifactTool{store: store}
}

func (t *ReferenceArtifactTool) Name() string { return "get_reference_artifact" }

func (t *ReferenceArtifactTool) Description() string {
	return "Retrieve the full fields of a previously created artifact, including those not shown in its preview."
}

func (t *ReferenceArtifactTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"artifact_id": map[string]any{
				"type":        "string",
				"description": "Artifact id from an artifact-create citation",
			},
			"tool_call_id": map[string]any{
				"type":        "string",
				"description": "Tool call id the artifact was created from",
			},
		},
		"required": []any{"artifact_id", "tool_call_id"},
	}
}

func (t *ReferenceArtifactTool) Call(_ tool.Context, args map[string]any) (map[string]any, error) {
	artifactID, _ := args["artifact_id"].(string)
	toolCallID, _ := args["tool_call_id"].(string)
	a, err := t.store.Get(artifactID, toolCallID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"artifact_id": a.ArtifactID,
		"type":        a.Type,
		"name":        a.Name,
		"fields":      a.Full(),
	}, nil
}
