package model

import (
	"context"
	"fmt"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/parley-ai/parley/pkg/tool"
)

// resolveErrPrefix labels accessor failures during result resolution.
// Callers rely on the prefix to distinguish a resolution failure from a
// model-runner failure surfaced verbatim.
const resolveErrPrefix = "failed to resolve generation result"

// GenerationResult is the plain, fully materialized record of one
// generation: every deferred accessor read exactly once, nothing left
// lazy. HasText keeps a deliberately empty text distinct from no text
// at all.
type GenerationResult struct {
	Text             string         `json:"text"`
	HasText          bool           `json:"-"`
	Object           map[string]any `json:"object,omitempty"`
	Steps            []Step         `json:"steps,omitempty"`
	FinishReason     FinishReason   `json:"finishReason,omitempty"`
	FormattedContent []a2a.Part     `json:"formattedContent,omitempty"`
}

// ResolveResult reads and awaits every accessor of a Response into a
// fresh GenerationResult. Each accessor failure is wrapped with a fixed
// descriptive prefix rather than surfacing the raw underlying error.
func ResolveResult(ctx context.Context, resp Response) (*GenerationResult, error) {
	if resp == nil {
		return nil, fmt.Errorf("%s: nil response", resolveErrPrefix)
	}

	text, err := resp.Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: text: %w", resolveErrPrefix, err)
	}

	steps, err := resp.Steps(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: steps: %w", resolveErrPrefix, err)
	}

	finishReason, err := resp.FinishReason(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: finish reason: %w", resolveErrPrefix, err)
	}

	output, err := resp.Output(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: output: %w", resolveErrPrefix, err)
	}

	formatted, err := resp.FormattedContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: formatted content: %w", resolveErrPrefix, err)
	}

	return &GenerationResult{
		Text:             text,
		HasText:          true,
		Object:           output,
		Steps:            steps,
		FinishReason:     finishReason,
		FormattedContent: formatted,
	}, nil
}

// ToolCalls flattens the tool calls across all steps, in order.
func (r *GenerationResult) ToolCalls() []tool.ToolCall {
	var calls []tool.ToolCall
	for _, step := range r.Steps {
		calls = append(calls, step.ToolCalls...)
	}
	return calls
}

// ToolResults collects recorded tool outcomes across all steps, keyed
// by tool call id. Input to artifact creation and sentinel resolution.
func (r *GenerationResult) ToolResults() map[string]any {
	results := make(map[string]any)
	for _, step := range r.Steps {
		for _, tr := range step.ToolResults {
			results[tr.ToolCallID] = tr.Content
		}
	}
	return results
}
