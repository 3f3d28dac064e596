package mcptoolset

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/parley-ai/parley/pkg/tool"
)

// remoteTool wraps one remote MCP tool as a CallableTool.
type remoteTool struct {
	toolset  *Toolset
	name     string
	desc     string
	schema   map[string]any
	useStdio bool
}

var (
	_ tool.CallableTool = (*remoteTool)(nil)
	_ tool.GuidedTool   = (*remoteTool)(nil)
)

func (w *remoteTool) Name() string { return w.name }

func (w *remoteTool) Description() string { return w.desc }

func (w *remoteTool) Schema() map[string]any { return w.schema }

// UsageGuidelines returns the configured guideline, or a synthesized
// default naming the server.
func (w *remoteTool) UsageGuidelines() string {
	if g := w.toolset.cfg.UsageGuidelines[w.name]; g != "" {
		return g
	}
	return fmt.Sprintf("Use this tool from `%s` server when appropriate.", w.toolset.cfg.Name)
}

func (w *remoteTool) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	var callCtx context.Context = ctx
	if callCtx == nil {
		callCtx = context.Background()
	}
	if w.useStdio {
		return w.callStdio(callCtx, args)
	}
	return w.callHTTP(callCtx, args)
}

func (w *remoteTool) callStdio(ctx context.Context, args map[string]any) (map[string]any, error) {
	w.toolset.mu.Lock()
	mcpClient := w.toolset.stdio
	w.toolset.mu.Unlock()
	if mcpClient == nil {
		return nil, fmt.Errorf("mcp server %s is not connected", w.toolset.cfg.Name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = w.name
	req.Params.Arguments = args

	resp, err := mcpClient.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("mcp call %s failed: %w", w.name, err)
	}

	result := make(map[string]any)
	var texts []string
	for _, content := range resp.Content {
		if text, ok := content.(mcp.TextContent); ok {
			texts = append(texts, text.Text)
		}
	}
	if resp.IsError {
		result["error"] = "unknown error"
		if len(texts) > 0 {
			result["error"] = texts[0]
		}
		return result, nil
	}
	collectTexts(result, texts)
	return result, nil
}

func (w *remoteTool) callHTTP(ctx context.Context, args map[string]any) (map[string]any, error) {
	resp, err := w.toolset.rpc(ctx, "tools/call", map[string]any{
		"name":      w.name,
		"arguments": args,
	})
	if err != nil {
		return nil, fmt.Errorf("mcp call %s failed: %w", w.name, err)
	}
	if resp.Error != nil {
		return map[string]any{"error": resp.Error.Message}, nil
	}

	result := make(map[string]any)
	resultMap, ok := resp.Result.(map[string]any)
	if !ok {
		result["result"] = resp.Result
		return result, nil
	}

	var texts []string
	if content, ok := resultMap["content"].([]any); ok {
		for _, c := range content {
			entry, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if entry["type"] == "text" {
				if text, ok := entry["text"].(string); ok {
					texts = append(texts, text)
				}
			}
		}
	}

	if isError, _ := resultMap["isError"].(bool); isError {
		result["error"] = "unknown error"
		if len(texts) > 0 {
			result["error"] = texts[0]
		}
		return result, nil
	}

	collectTexts(result, texts)
	return result, nil
}

func collectTexts(result map[string]any, texts []string) {
	switch len(texts) {
	case 0:
	case 1:
		result["result"] = texts[0]
	default:
		result["results"] = texts
	}
}
