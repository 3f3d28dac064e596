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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	a2apb "github.com/a2aproject/a2a-go/a2a"

	"github.com/parley-ai/parley/pkg/httpclient"
	"github.com/parley-ai/parley/pkg/model"
	"github.com/parley-ai/parley/pkg/tool"
)

// chatRunner is the CLI's model runner: an OpenAI-compatible chat
// completions client. The engine itself only depends on model.Runner.
type chatRunner struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
}

func newChatRunner(baseURL, apiKey string) *chatRunner {
	return &chatRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 300 * time.Second}),
			httpclient.WithMaxRetries(3),
		),
	}
}

var _ model.Runner = (*chatRunner)(nil)

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Tools          []chatTool          `json:"tools,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatTool struct {
	Type     string      `json:"type"`
	Function chatToolDef `json:"function"`
}

type chatToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *chatJSONSchema `json:"json_schema,omitempty"`
}

type chatJSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *chatError   `json:"error,omitempty"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (r *chatRunner) Generate(ctx context.Context, req *model.Request) (model.Response, error) {
	if req.Config == nil || req.Config.Model == nil || req.Config.Model.Model == "" {
		return nil, fmt.Errorf("generation request names no model")
	}

	payload := chatRequest{
		Model:    req.Config.Model.Model,
		Messages: buildChatMessages(req),
	}
	for _, def := range req.Tools {
		payload.Tools = append(payload.Tools, chatTool{
			Type: "function",
			Function: chatToolDef{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	if req.Config.ResponseSchema != nil {
		name := req.Config.ResponseSchemaName
		if name == "" {
			name = "response"
		}
		strict := true
		if req.Config.ResponseSchemaStrict != nil {
			strict = *req.Config.ResponseSchemaStrict
		}
		payload.ResponseFormat = &chatResponseFormat{
			Type: "json_schema",
			JSONSchema: &chatJSONSchema{
				Name:   name,
				Schema: req.Config.ResponseSchema,
				Strict: strict,
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat response has no choices")
	}

	return toResponse(parsed.Choices[0], req.Config.ResponseSchema != nil)
}

// buildChatMessages flattens the engine's conversation into chat
// roles. Tool round trips travel as data parts and are re-expanded
// into assistant tool_calls and tool results here.
func buildChatMessages(req *model.Request) []chatMessage {
	var out []chatMessage
	if req.SystemInstruction != "" {
		out = append(out, chatMessage{Role: "system", Content: req.SystemInstruction})
	}

	for _, msg := range req.Messages {
		role := "user"
		if msg.Role == a2apb.MessageRoleAgent {
			role = "assistant"
		}

		var texts []string
		var calls []chatToolCall
		var results []chatMessage
		for _, part := range msg.Parts {
			switch p := part.(type) {
			case a2apb.TextPart:
				texts = append(texts, p.Text)
			case a2apb.DataPart:
				switch p.Data["type"] {
				case "tool_use":
					args, _ := json.Marshal(p.Data["arguments"])
					id, _ := p.Data["id"].(string)
					name, _ := p.Data["name"].(string)
					calls = append(calls, chatToolCall{
						ID:   id,
						Type: "function",
						Function: chatFunction{Name: name, Arguments: string(args)},
					})
				case "tool_result":
					id, _ := p.Data["tool_call_id"].(string)
					content := p.Data["content"]
					if errText, ok := p.Data["error"].(string); ok && errText != "" {
						content = map[string]any{"error": errText}
					}
					encoded, _ := json.Marshal(content)
					results = append(results, chatMessage{
						Role:       "tool",
						Content:    string(encoded),
						ToolCallID: id,
					})
				}
			}
		}

		if len(texts) > 0 || len(calls) > 0 {
			out = append(out, chatMessage{
				Role:      role,
				Content:   strings.Join(texts, "\n"),
				ToolCalls: calls,
			})
		}
		out = append(out, results...)
	}
	return out
}

func toResponse(choice chatChoice, structured bool) (model.Response, error) {
	resp := &model.StaticResponse{
		TextValue:         choice.Message.Content,
		FinishReasonValue: model.FinishReason(choice.FinishReason),
	}

	if len(choice.Message.ToolCalls) > 0 {
		step := model.Step{Text: choice.Message.Content}
		for _, call := range choice.Message.ToolCalls {
			args := map[string]any{}
			if call.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
					return nil, fmt.Errorf("tool call %s has malformed arguments: %w", call.ID, err)
				}
			}
			step.ToolCalls = append(step.ToolCalls, tool.ToolCall{
				ID:   call.ID,
				Name: call.Function.Name,
				Args: args,
			})
		}
		resp.StepsValue = []model.Step{step}
		resp.FinishReasonValue = model.FinishReasonToolCalls
	}

	if structured && choice.Message.Content != "" {
		var object map[string]any
		if err := json.Unmarshal([]byte(choice.Message.Content), &object); err != nil {
			return nil, fmt.Errorf("structured response is not valid JSON: %w", err)
		}
		resp.OutputValue = object
	}

	return resp, nil
}
