package agent

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/parley-ai/parley/pkg/artifact"
	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/prompt"
	"github.com/parley-ai/parley/pkg/tool"
	"github.com/parley-ai/parley/pkg/tool/builtin"
	"github.com/parley-ai/parley/pkg/tool/mcptoolset"
)

// resolvedTools is the turn-scoped tool surface: callable tools by
// name, the prompt-facing descriptions, and the toolsets to close when
// the turn ends.
type resolvedTools struct {
	callable map[string]tool.CallableTool
	datas    []tool.Data
	groups   []prompt.ToolGroup
	toolsets []tool.Toolset
}

// Close releases every toolset opened for the turn.
func (r *resolvedTools) Close() {
	for _, ts := range r.toolsets {
		if err := ts.Close(); err != nil {
			slog.Warn("failed to close toolset", "toolset", ts.Name(), "error", err)
		}
	}
}

func (r *resolvedTools) add(t tool.Tool) {
	if ct, ok := t.(tool.CallableTool); ok {
		r.callable[ct.Name()] = ct
	}
	r.datas = append(r.datas, tool.ToData(t))
}

// definitions returns the model-facing function declarations, grouped
// tools included.
func (r *resolvedTools) definitions() []tool.Definition {
	defs := make([]tool.Definition, 0, len(r.callable))
	for _, d := range r.datas {
		defs = append(defs, tool.Definition{Name: d.Name, Description: d.Description, Parameters: d.InputSchema})
	}
	for _, g := range r.groups {
		for _, d := range g.Tools {
			defs = append(defs, tool.Definition{Name: d.Name, Description: d.Description, Parameters: d.InputSchema})
		}
	}
	return defs
}

// projectHasArtifactComponents reports whether the effective agent or
// any sibling declares at least one artifact component. The built-in
// artifact retrieval tool only makes sense when something can create
// artifacts.
func projectHasArtifactComponents(project *config.Project, cfg *config.AgentConfig) bool {
	if len(cfg.ArtifactComponents) > 0 {
		return true
	}
	if project == nil {
		return false
	}
	if len(project.ArtifactComponents) > 0 {
		return true
	}
	for _, sibling := range project.Agents {
		if len(sibling.ArtifactComponents) > 0 {
			return true
		}
	}
	return false
}

// resolveTools merges built-ins, registered function tools, injected
// relation tools, and the agent's MCP servers. MCP servers resolve
// concurrently; a failing server contributes an empty group instead of
// failing the turn.
func (o *Orchestrator) resolveTools(ctx context.Context, execCtx *ExecutionContext, store *artifact.Store) (*resolvedTools, error) {
	out := &resolvedTools{callable: make(map[string]tool.CallableTool)}

	if len(o.cfg.Skills) > 0 {
		out.add(builtin.NewLoadSkillTool(o.cfg.Skills))
	}
	if projectHasArtifactComponents(execCtx.Project, o.cfg) {
		out.add(builtin.NewReferenceArtifactTool(store))
	}

	for _, name := range o.cfg.FunctionTools {
		ft, ok := o.functionTools[name]
		if !ok {
			slog.Warn("function tool not registered, skipping", "tool", name, "agent", o.cfg.ID)
			continue
		}
		out.add(ft)
	}

	for _, rt := range o.relationTools {
		out.add(rt)
	}

	groups := make([]prompt.ToolGroup, len(o.cfg.Tools))
	toolsets := make([]tool.Toolset, len(o.cfg.Tools))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, ref := range o.cfg.Tools {
		g.Go(func() error {
			ts, tools, err := o.connectServer(groupCtx, execCtx, ref)
			if err != nil {
				// Additive source: degrade to no tools from it.
				slog.Warn("skipping MCP server", "server", ref.Name, "error", err)
				return nil
			}
			toolsets[i] = ts
			group := prompt.ToolGroup{Server: ref.Name, Instructions: ref.Instructions}
			for _, t := range tools {
				group.Tools = append(group.Tools, tool.ToData(t))
			}
			groups[i] = group
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Order-stable merge.
	for i := range o.cfg.Tools {
		if toolsets[i] == nil {
			continue
		}
		out.toolsets = append(out.toolsets, toolsets[i])
		out.groups = append(out.groups, groups[i])
		ts := toolsets[i]
		tools, _ := ts.Tools(ctx)
		for _, t := range tools {
			if ct, ok := t.(tool.CallableTool); ok {
				out.callable[ct.Name()] = ct
			}
		}
	}

	return out, nil
}

func (o *Orchestrator) connectServer(ctx context.Context, execCtx *ExecutionContext, ref config.MCPToolRef) (tool.Toolset, []tool.Tool, error) {
	credential := ""
	if ref.CredentialReferenceID != "" && o.creds != nil && execCtx.Project != nil {
		credRef := execCtx.Project.CredentialReferences[ref.CredentialReferenceID]
		if credRef == nil {
			slog.Warn("credential reference not found, connecting without credential",
				"server", ref.Name, "credential", ref.CredentialReferenceID)
		} else {
			resolved, err := o.creds.Resolve(ctx, credRef)
			if err != nil {
				return nil, nil, err
			}
			credential = resolved
		}
	}

	ts, err := mcptoolset.New(mcptoolset.Config{
		Name:            ref.Name,
		URL:             ref.ServerURL,
		Command:         ref.Command,
		Args:            ref.Args,
		Env:             ref.Env,
		Headers:         mcptoolset.BuildHeaders(ref.ServerURL, credential, ref.Headers),
		ActiveTools:     ref.ActiveTools,
		UsageGuidelines: ref.UsageGuidelines,
		Instructions:    ref.Instructions,
	})
	if err != nil {
		return nil, nil, err
	}

	tools, err := ts.Tools(ctx)
	if err != nil {
		ts.Close()
		return nil, nil, err
	}
	return ts, tools, nil
}
