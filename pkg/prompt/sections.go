package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/parley-ai/parley/pkg/artifact"
	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/schema"
	"github.com/parley-ai/parley/pkg/tool"
)

// emptyToolsSection is the exact rendering when no tools resolved.
const emptyToolsSection = `<available_tools description="No tools are currently available"></available_tools>`

func buildCoreInstructions(cfg *Config) string {
	core := strings.TrimSpace(cfg.CorePrompt)
	if core == "" {
		return ""
	}
	return "<core_instructions>\n" + core + "\n</core_instructions>"
}

func buildGraphPrompt(cfg *Config) string {
	graph := strings.TrimSpace(cfg.GraphPrompt)
	if graph == "" {
		return ""
	}
	return "<agent_graph>\n" + graph + "\n</agent_graph>"
}

func buildCurrentTime(cfg *Config) string {
	if cfg.CurrentTime == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("<current_time>\n")
	fmt.Fprintf(&b, "The current time is %s.\n", cfg.CurrentTime)
	b.WriteString("Use this when the user asks about dates, times, or recency. ")
	b.WriteString("Do not mention that this information was injected into your instructions; ")
	b.WriteString("present it as something you simply know.\n")
	b.WriteString("</current_time>")
	return b.String()
}

func renderTool(b *strings.Builder, t tool.Data) {
	fmt.Fprintf(b, "  <tool name=%q>\n", t.Name)
	if t.Description != "" {
		fmt.Fprintf(b, "    <description>%s</description>\n", escapeXML(t.Description))
	}
	if len(t.InputSchema) > 0 {
		if raw, err := json.Marshal(t.InputSchema); err == nil {
			fmt.Fprintf(b, "    <input_schema>%s</input_schema>\n", string(raw))
		}
	}
	if t.UsageGuidelines != "" {
		fmt.Fprintf(b, "    <usage>%s</usage>\n", escapeXML(t.UsageGuidelines))
	}
	b.WriteString("  </tool>\n")
}

func buildTools(cfg *Config) string {
	if len(cfg.Tools) == 0 && len(cfg.ToolGroups) == 0 {
		return emptyToolsSection
	}

	var b strings.Builder
	b.WriteString("<available_tools>\n")
	for _, t := range cfg.Tools {
		renderTool(&b, t)
	}
	for _, group := range cfg.ToolGroups {
		fmt.Fprintf(&b, "  <tool_group server=%q>\n", group.Server)
		if group.Instructions != "" {
			fmt.Fprintf(&b, "    <instructions>%s</instructions>\n", escapeXML(group.Instructions))
		}
		for _, t := range group.Tools {
			inner := &strings.Builder{}
			renderTool(inner, t)
			for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
				b.WriteString("  " + line + "\n")
			}
		}
		b.WriteString("  </tool_group>\n")
	}
	b.WriteString("</available_tools>\n\n")
	b.WriteString(toolChainingGuidance())
	return strings.TrimRight(b.String(), "\n")
}

// toolChainingGuidance explains how to pipe one tool's result into
// another without restating the value.
func toolChainingGuidance() string {
	var b strings.Builder
	b.WriteString("<tool_chaining>\n")
	b.WriteString("To pass a previous tool result into another tool without copying the value, ")
	b.WriteString("use a reference object as the argument:\n")
	fmt.Fprintf(&b, "  {\"%s\": \"<artifact id>\", \"%s\": \"<tool call id>\"}\n",
		artifact.SentinelArtifactID, artifact.SentinelToolCallID)
	fmt.Fprintf(&b, "Omitting %q passes the raw tool result for that call id instead of a created artifact.\n",
		artifact.SentinelArtifactID)
	b.WriteString("The reference is resolved before the tool runs; never expand it yourself.\n")
	b.WriteString("</tool_chaining>")
	return b.String()
}

func buildSkills(cfg *Config) string {
	if len(cfg.Skills) == 0 {
		return ""
	}

	skills := make([]config.Skill, len(cfg.Skills))
	copy(skills, cfg.Skills)
	// Equal indexes keep their original relative order.
	sort.SliceStable(skills, func(i, j int) bool {
		return skills[i].Index < skills[j].Index
	})

	var b strings.Builder
	b.WriteString("<skills>\n")
	for _, s := range skills {
		if s.AlwaysLoaded {
			fmt.Fprintf(&b, "  <skill name=%q>\n", s.Name)
			if s.Description != "" {
				fmt.Fprintf(&b, "    <description>%s</description>\n", escapeXML(s.Description))
			}
			fmt.Fprintf(&b, "    <content>\n%s\n    </content>\n", strings.TrimSpace(s.Content))
			b.WriteString("  </skill>\n")
		} else {
			fmt.Fprintf(&b, "  <skill name=%q description=%q />\n", s.Name, s.Description)
		}
	}
	b.WriteString("</skills>\n\n")
	b.WriteString("<skill_loading>\n")
	b.WriteString("Skills listed without content are available on demand. ")
	b.WriteString("Call the load_skill tool with the skill name to load its full instructions before relying on it.\n")
	b.WriteString("</skill_loading>")
	return b.String()
}

func buildDataComponents(cfg *Config) string {
	if len(cfg.DataComponents) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<data_components>\n")
	b.WriteString("Structure your final answer using these components. ")
	b.WriteString("Each component's shape shows the fields it carries.\n")
	for _, dc := range cfg.DataComponents {
		fmt.Fprintf(&b, "  <component name=%q>\n", dc.Name)
		if dc.Description != "" {
			fmt.Fprintf(&b, "    <description>%s</description>\n", escapeXML(dc.Description))
		}
		props, _ := dc.Props["properties"].(map[string]any)
		shape := schema.BuildSchemaShape(props)
		if raw, err := json.Marshal(shape); err == nil {
			fmt.Fprintf(&b, "    <shape>%s</shape>\n", string(raw))
		}
		b.WriteString("  </component>\n")
	}
	b.WriteString("</data_components>")
	return b.String()
}

// typeSchemaBlock renders the field shape for an artifact's declared
// type, preferring the full project component list over any
// agent-scoped subset. Unknown types degrade to a fixed string instead
// of failing.
func typeSchemaBlock(artifactType string, cfg *Config) string {
	lists := [][]config.ArtifactComponent{cfg.ProjectArtifactComponents, cfg.ArtifactComponents}
	for _, list := range lists {
		for _, comp := range list {
			if comp.Name != artifactType {
				continue
			}
			preview := schema.ExtractPreviewFields(comp.Props)
			props, _ := preview["properties"].(map[string]any)
			shape := schema.BuildSchemaShape(props)
			if raw, err := json.Marshal(shape); err == nil {
				return string(raw)
			}
		}
	}
	return "Schema not available"
}

func buildArtifacts(cfg *Config) string {
	hasComponents := len(cfg.ArtifactComponents) > 0
	canReference := cfg.HasAgentArtifactComponents || len(cfg.Artifacts) > 0

	if len(cfg.Artifacts) == 0 && !hasComponents && !cfg.HasAgentArtifactComponents {
		return "<artifacts>\nNo artifacts are available yet, but they may be created from tool results as the conversation progresses.\n</artifacts>"
	}

	var b strings.Builder
	b.WriteString("<artifacts>\n")
	for _, a := range cfg.Artifacts {
		fmt.Fprintf(&b, "  <artifact id=%q tool=%q type=%q name=%q>\n",
			a.ArtifactID, a.ToolCallID, a.Type, a.Name)
		if a.Description != "" {
			fmt.Fprintf(&b, "    <description>%s</description>\n", escapeXML(a.Description))
		}
		fmt.Fprintf(&b, "    <type_schema>%s</type_schema>\n", typeSchemaBlock(a.Type, cfg))
		b.WriteString("  </artifact>\n")
	}
	b.WriteString(citationRules(hasComponents, canReference, cfg))
	b.WriteString("</artifacts>")
	return b.String()
}

func citationRules(hasComponents, canReference bool, cfg *Config) string {
	var b strings.Builder
	if hasComponents {
		b.WriteString("  <citation_rules>\n")
		b.WriteString("    To cite data from a tool result, create an artifact:\n")
		b.WriteString("    <artifact-create id=\"...\" tool=\"...\" type=\"...\" base=\"...\" details=\"...\" />\n")
		b.WriteString("    base is a path selector into the tool result that narrows to exactly one item; ")
		b.WriteString("details maps each output field to a selector relative to base, never a literal value.\n")
		b.WriteString("    Artifact types you may create:\n")
		for _, comp := range cfg.ArtifactComponents {
			fmt.Fprintf(&b, "      - %s: %s\n", comp.Name, comp.Description)
		}
		b.WriteString("  </citation_rules>\n")
	}
	if canReference {
		b.WriteString("  <reference_rules>\n")
		b.WriteString("    To mention a previously created artifact inline, use:\n")
		b.WriteString("    <artifact-ref id=\"...\" tool=\"...\" />\n")
		b.WriteString("    The reference shows the artifact's preview fields only.\n")
		b.WriteString("  </reference_rules>\n")
	}
	return b.String()
}

func buildTransferInstructions(cfg *Config) string {
	if !cfg.HasTransferRelations {
		return ""
	}
	var b strings.Builder
	b.WriteString("<transfer_instructions>\n")
	b.WriteString("When a request is better handled by another agent you can transfer to, ")
	b.WriteString("call the transfer tool and produce no other output in that turn. ")
	b.WriteString("No farewell, no summary, no explanation that a transfer is happening. ")
	b.WriteString("The receiving agent takes over the conversation from there.\n")
	b.WriteString("</transfer_instructions>")
	return b.String()
}

func buildDelegationInstructions(cfg *Config) string {
	if !cfg.HasDelegateRelations {
		return ""
	}
	var b strings.Builder
	b.WriteString("<delegation_instructions>\n")
	b.WriteString("You can delegate subtasks to other agents through their delegation tools. ")
	b.WriteString("The delegate's answer comes back to you as a tool result. ")
	b.WriteString("Fold it into your own response and present it as your own work. ")
	b.WriteString("Never tell the user that another agent was involved.\n")
	b.WriteString("</delegation_instructions>")
	return b.String()
}
