package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/parley/pkg/artifact"
	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/tool"
)

func TestAssembleRejectsNilConfig(t *testing.T) {
	result, err := Assemble(nil)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestEmptyCorePromptOmitsWrapper(t *testing.T) {
	result, err := Assemble(&Config{CorePrompt: ""})
	require.NoError(t, err)
	assert.NotContains(t, result.Prompt, "<core_instructions>")
	assert.NotContains(t, result.Prompt, "</core_instructions>")
}

func TestCorePromptRendered(t *testing.T) {
	result, err := Assemble(&Config{CorePrompt: "You are a billing assistant."})
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, "<core_instructions>\nYou are a billing assistant.\n</core_instructions>")
}

func TestNoToolsRendersExactEmptySection(t *testing.T) {
	result, err := Assemble(&Config{})
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, `<available_tools description="No tools are currently available"></available_tools>`)
	assert.NotContains(t, result.Prompt, "<tool_chaining>")
}

func TestToolsSectionRendersToolsAndChainingGuidance(t *testing.T) {
	cfg := &Config{
		Tools: []tool.Data{
			{Name: "search", Description: "Search the catalog", InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
			}},
		},
	}
	result, err := Assemble(cfg)
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, `<tool name="search">`)
	assert.Contains(t, result.Prompt, "Search the catalog")
	assert.Contains(t, result.Prompt, "<tool_chaining>")
	assert.Contains(t, result.Prompt, artifact.SentinelArtifactID)
	assert.Contains(t, result.Prompt, artifact.SentinelToolCallID)
}

func TestToolGroupInstructionsAreEscaped(t *testing.T) {
	cfg := &Config{
		ToolGroups: []ToolGroup{
			{
				Server:       "crm",
				Instructions: "Use <sparingly> & carefully",
				Tools:        []tool.Data{{Name: "lookup_contact"}},
			},
		},
	}
	result, err := Assemble(cfg)
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, `<tool_group server="crm">`)
	assert.Contains(t, result.Prompt, "Use &lt;sparingly&gt; &amp; carefully")
	assert.Contains(t, result.Prompt, "lookup_contact")
}

func TestSkillsSortedByIndexStable(t *testing.T) {
	cfg := &Config{
		Skills: []config.Skill{
			{Name: "third", Index: 5},
			{Name: "first", Index: 1},
			{Name: "second-a", Index: 3},
			{Name: "second-b", Index: 3},
		},
	}
	result, err := Assemble(cfg)
	require.NoError(t, err)

	prompt := result.Prompt
	posFirst := strings.Index(prompt, `"first"`)
	posSecondA := strings.Index(prompt, `"second-a"`)
	posSecondB := strings.Index(prompt, `"second-b"`)
	posThird := strings.Index(prompt, `"third"`)
	require.True(t, posFirst >= 0 && posSecondA >= 0 && posSecondB >= 0 && posThird >= 0)

	assert.Less(t, posFirst, posSecondA)
	// Equal indexes keep their declaration order.
	assert.Less(t, posSecondA, posSecondB)
	assert.Less(t, posSecondB, posThird)
}

func TestAlwaysLoadedSkillInlinesContent(t *testing.T) {
	cfg := &Config{
		Skills: []config.Skill{
			{Name: "refunds", Description: "Refund policy", Content: "Full refund within 30 days.", AlwaysLoaded: true},
			{Name: "escalation", Description: "When to escalate", Content: "Escalate chargebacks."},
		},
	}
	result, err := Assemble(cfg)
	require.NoError(t, err)

	assert.Contains(t, result.Prompt, "Full refund within 30 days.")
	assert.NotContains(t, result.Prompt, "Escalate chargebacks.")
	assert.Contains(t, result.Prompt, `<skill name="escalation" description="When to escalate" />`)
	assert.Contains(t, result.Prompt, "load_skill")
}

func TestNoSkillsOmitsLoadGuidance(t *testing.T) {
	result, err := Assemble(&Config{})
	require.NoError(t, err)
	assert.NotContains(t, result.Prompt, "load_skill")
	assert.NotContains(t, result.Prompt, "<skills>")
}

func TestCurrentTimeSection(t *testing.T) {
	result, err := Assemble(&Config{})
	require.NoError(t, err)
	assert.NotContains(t, result.Prompt, "<current_time>")

	result, err = Assemble(&Config{CurrentTime: "2025-06-01T12:00:00Z"})
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, "The current time is 2025-06-01T12:00:00Z.")
	assert.Contains(t, result.Prompt, "Do not mention that this information was injected")
}

func TestDataComponentsRenderShape(t *testing.T) {
	cfg := &Config{
		DataComponents: []config.DataComponent{
			{
				Name:        "OrderSummary",
				Description: "One order in brief",
				Props: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"tags": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	}
	result, err := Assemble(cfg)
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, `<component name="OrderSummary">`)
	assert.Contains(t, result.Prompt, `{"tags":["string"]}`)
}

func TestArtifactsSectionEmptyState(t *testing.T) {
	result, err := Assemble(&Config{})
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, "No artifacts are available yet, but they may be created")
	assert.NotContains(t, result.Prompt, "<citation_rules>")
	assert.NotContains(t, result.Prompt, "<reference_rules>")
}

func TestArtifactUnknownTypeRendersSchemaNotAvailable(t *testing.T) {
	a, err := artifact.New("art-1", "call-1", "Invoice", "Invoice 42", "", map[string]any{"total": 10}, nil)
	require.NoError(t, err)

	result, err := Assemble(&Config{Artifacts: []*artifact.Artifact{a}})
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, "<type_schema>Schema not available</type_schema>")
}

func TestArtifactTypePrefersProjectComponentList(t *testing.T) {
	props := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"total": map[string]any{"type": "number", "inPreview": true},
			"lines": map[string]any{"type": "array"},
		},
	}
	a, err := artifact.New("art-1", "call-1", "Invoice", "Invoice 42", "", map[string]any{"total": 10}, nil)
	require.NoError(t, err)

	cfg := &Config{
		Artifacts:                 []*artifact.Artifact{a},
		ProjectArtifactComponents: []config.ArtifactComponent{{Name: "Invoice", Props: props}},
	}
	result, err := Assemble(cfg)
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, `<type_schema>{"total":"number"}</type_schema>`)
	// Existing artifacts alone enable referencing.
	assert.Contains(t, result.Prompt, "<reference_rules>")
	assert.NotContains(t, result.Prompt, "<citation_rules>")
}

func TestArtifactComponentsEnableCitationRules(t *testing.T) {
	cfg := &Config{
		ArtifactComponents: []config.ArtifactComponent{
			{Name: "Invoice", Description: "A billed invoice"},
		},
		HasAgentArtifactComponents: true,
	}
	result, err := Assemble(cfg)
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, "<citation_rules>")
	assert.Contains(t, result.Prompt, "- Invoice: A billed invoice")
	assert.Contains(t, result.Prompt, "<reference_rules>")
}

func TestTransferAndDelegationBlocks(t *testing.T) {
	result, err := Assemble(&Config{})
	require.NoError(t, err)
	assert.NotContains(t, result.Prompt, "<transfer_instructions>")
	assert.NotContains(t, result.Prompt, "<delegation_instructions>")

	result, err = Assemble(&Config{HasTransferRelations: true, HasDelegateRelations: true})
	require.NoError(t, err)
	assert.Contains(t, result.Prompt, "produce no other output in that turn")
	assert.Contains(t, result.Prompt, "present it as your own work")
	assert.Contains(t, result.Prompt, "Never tell the user that another agent was involved")
}

func TestBreakdownCoversEverySection(t *testing.T) {
	result, err := Assemble(&Config{CorePrompt: "Core text here", CurrentTime: "2025-06-01T12:00:00Z"})
	require.NoError(t, err)

	require.Len(t, result.Breakdown.Sections, len(builders))
	assert.Greater(t, result.Breakdown.Sections["CORE_INSTRUCTIONS"], 0)
	assert.Equal(t, 0, result.Breakdown.Sections["SKILLS"])

	total := 0
	for _, cost := range result.Breakdown.Sections {
		total += cost
	}
	assert.Equal(t, total, result.Breakdown.Total)
}

func TestOmittedSectionsLeaveNoBlankRuns(t *testing.T) {
	result, err := Assemble(&Config{CorePrompt: "only core"})
	require.NoError(t, err)
	assert.NotContains(t, result.Prompt, "\n\n\n")
	assert.NotContains(t, result.Prompt, "{{")
}
