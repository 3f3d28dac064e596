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

// Package history stores and formats conversation history for prompt
// building, with a model-size-aware compression policy.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Message visibility levels. Internal messages record delegation
// traffic inside the process; external messages record remote calls.
const (
	VisibilityUser     = "user"
	VisibilityInternal = "internal"
	VisibilityExternal = "external"
)

// Message is one stored conversation entry.
type Message struct {
	ID             string
	TenantID       string
	ProjectID      string
	ConversationID string
	Role           string
	Content        string
	Visibility     string
	SubAgentID     string
	CreatedAt      time.Time
}

// Query selects messages for one turn's history gathering.
type Query struct {
	TenantID       string
	ProjectID      string
	ConversationID string

	// SubAgentID scopes the history to one sub-agent's messages when
	// set (scoped mode).
	SubAgentID string

	// Limit caps the number of most recent messages. Zero means all.
	Limit int
}

// Store persists conversation messages.
type Store interface {
	// Append records a message.
	Append(ctx context.Context, msg Message) error

	// Messages returns matching messages in chronological order.
	Messages(ctx context.Context, q Query) ([]Message, error)

	// Close releases the store.
	Close() error
}

// Format renders messages as prompt text, one "role: content" line per
// message.
func Format(messages []Message) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}
	return b.String()
}

// GetFormattedConversationHistory gathers and formats history without
// compression.
func GetFormattedConversationHistory(ctx context.Context, store Store, q Query) (string, error) {
	messages, err := store.Messages(ctx, q)
	if err != nil {
		return "", fmt.Errorf("failed to gather conversation history: %w", err)
	}
	return Format(messages), nil
}
