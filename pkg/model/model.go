// Copyright 2025 The Parley Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package model defines the model runner boundary.
//
// The LLM call itself is an external collaborator: the engine only
// depends on a Runner producing a Response whose fields may resolve
// asynchronously (streaming). ResolveResult materializes every deferred
// field into a plain GenerationResult before anything else touches it.
package model

import (
	"context"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/tool"
)

// Runner is the external model-calling capability.
type Runner interface {
	// Generate produces one response for the request. The response's
	// accessors may still resolve lazily; callers must materialize it
	// with ResolveResult before combining or forwarding it.
	Generate(ctx context.Context, req *Request) (Response, error)
}

// Request contains the input for one model call.
type Request struct {
	// Messages is the conversation history.
	Messages []*a2a.Message

	// Tools available for the model to call.
	Tools []tool.Definition

	// Config contains generation configuration.
	Config *GenerateConfig

	// SystemInstruction is prepended to the conversation.
	SystemInstruction string
}

// GenerateConfig contains configuration for one generation call.
type GenerateConfig struct {
	// Model selects the model and its provider options.
	Model *config.ModelConfig

	// ResponseSchema constrains output for the structured pass.
	ResponseSchema map[string]any

	// ResponseSchemaName identifies the schema for providers that
	// require it.
	ResponseSchemaName string

	// ResponseSchemaStrict constrains the model to schema-conforming
	// JSON only. Nil means true.
	ResponseSchemaStrict *bool

	// Metadata carries provider-specific key-value pairs, e.g. auth
	// material.
	Metadata map[string]string
}

// Clone returns a copy safe to mutate per call.
func (c *GenerateConfig) Clone() *GenerateConfig {
	if c == nil {
		return nil
	}
	clone := *c
	if c.ResponseSchemaStrict != nil {
		strict := *c.ResponseSchemaStrict
		clone.ResponseSchemaStrict = &strict
	}
	if c.ResponseSchema != nil {
		clone.ResponseSchema = deepCopyMap(c.ResponseSchema)
	}
	if c.Metadata != nil {
		clone.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			result[k] = deepCopyMap(val)
		case []any:
			result[k] = deepCopySlice(val)
		default:
			result[k] = v
		}
	}
	return result
}

func deepCopySlice(s []any) []any {
	if s == nil {
		return nil
	}
	result := make([]any, len(s))
	for i, v := range s {
		switch val := v.(type) {
		case map[string]any:
			result[i] = deepCopyMap(val)
		case []any:
			result[i] = deepCopySlice(val)
		default:
			result[i] = v
		}
	}
	return result
}

// FinishReason indicates why generation stopped.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool_calls"
	FinishReasonContent   FinishReason = "content_filter"
	FinishReasonError     FinishReason = "error"
)

// Step is one entry of the ordered reasoning/tool-call trace.
type Step struct {
	// Text is the reasoning text emitted in this step, if any.
	Text string

	// ToolCalls are the calls the model requested in this step.
	ToolCalls []tool.ToolCall

	// ToolResults are the recorded outcomes of those calls.
	ToolResults []tool.ToolResult
}

// Response exposes a model result through deferred accessors. Under
// streaming each accessor may only settle once the stream drains, and
// any one of them may fail independently. A generic shallow copy of the
// implementing value silently drops what the accessors would have
// produced, so nothing outside ResolveResult should combine or forward
// a Response.
type Response interface {
	// Text resolves the generated free text. A deliberately empty
	// string is a valid resolution, distinct from absent.
	Text(ctx context.Context) (string, error)

	// Steps resolves the ordered reasoning/tool-call trace.
	Steps(ctx context.Context) ([]Step, error)

	// FinishReason resolves why generation stopped.
	FinishReason(ctx context.Context) (FinishReason, error)

	// Output resolves the structured output, nil when the call was not
	// schema-constrained.
	Output(ctx context.Context) (map[string]any, error)

	// FormattedContent resolves rendered response parts, nil when the
	// runner produces none.
	FormattedContent(ctx context.Context) ([]a2a.Part, error)
}
