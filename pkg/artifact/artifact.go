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

// Package artifact implements the citation protocol: structured citations
// of data extracted from tool results, addressable by (artifactId,
// toolCallId), with a preview/full field split.
//
// Three verbs exist: create (capture fields from a tool result),
// reference-in-text (render the preview inline), and pass-to-tool
// (sentinel object resolved to the full field set before the downstream
// tool runs).
package artifact

import (
	"fmt"

	"github.com/parley-ai/parley/pkg/config"
	"github.com/parley-ai/parley/pkg/schema"
)

// Part is one typed content fragment of an artifact. The part carrying
// a non-nil Summary provides the preview payload.
type Part struct {
	// Kind tags the fragment, e.g. "data".
	Kind string `json:"kind"`

	// Data holds the full captured field set.
	Data map[string]any `json:"data,omitempty"`

	// Summary holds the preview projection of Data.
	Summary map[string]any `json:"summary,omitempty"`
}

// Artifact is a structured citation. Immutable after creation within a
// turn; created once, referenced many times by (ArtifactID, ToolCallID).
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	TaskID      string         `json:"taskId,omitempty"`
	ToolCallID  string         `json:"toolCallId"`
	Type        string         `json:"type"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Preview returns the preview payload: the Summary of the first part
// that carries one.
func (a *Artifact) Preview() map[string]any {
	for _, part := range a.Parts {
		if part.Summary != nil {
			return part.Summary
		}
	}
	return nil
}

// Full returns the full captured field set: the Data of the first part
// that carries one.
func (a *Artifact) Full() map[string]any {
	for _, part := range a.Parts {
		if part.Data != nil {
			return part.Data
		}
	}
	return nil
}

// previewFieldNames returns the names of the component's preview fields.
func previewFieldNames(component *config.ArtifactComponent) map[string]bool {
	projected := schema.ExtractPreviewFields(component.Props)
	props, _ := projected["properties"].(map[string]any)
	names := make(map[string]bool, len(props))
	for name := range props {
		names[name] = true
	}
	return names
}

// New builds an artifact from a fully captured field set, deriving the
// preview summary from the component's inPreview flags. A nil component
// yields an artifact whose preview equals its full field set.
func New(artifactID, toolCallID, artifactType, name, description string, fields map[string]any, component *config.ArtifactComponent) (*Artifact, error) {
	if artifactID == "" || toolCallID == "" {
		return nil, fmt.Errorf("artifact requires both an artifact id and a tool call id")
	}

	summary := fields
	if component != nil {
		preview := previewFieldNames(component)
		summary = make(map[string]any, len(preview))
		for field, value := range fields {
			if preview[field] {
				summary[field] = value
			}
		}
	}

	return &Artifact{
		ArtifactID:  artifactID,
		ToolCallID:  toolCallID,
		Type:        artifactType,
		Name:        name,
		Description: description,
		Parts: []Part{{
			Kind:    "data",
			Data:    fields,
			Summary: summary,
		}},
	}, nil
}
