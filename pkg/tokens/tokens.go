// Package tokens provides model-aware token counting for prompt budgeting
// and history compression decisions.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens with the encoding of a specific model.
type Counter struct {
	encoding *tiktoken.Tiktoken
	model    string
	mu       sync.RWMutex
}

// Message is a role/content pair for message-level counting.
type Message struct {
	Role    string
	Content string
}

var (
	// Encodings are expensive to build, cache per model.
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// NewCounter creates a counter for the given model. Models without a
// registered tiktoken encoding fall back to cl100k_base, which is close
// enough for budgeting.
func NewCounter(model string) (*Counter, error) {
	cacheMu.RLock()
	cached, exists := encodingCache[model]
	cacheMu.RUnlock()

	if exists {
		return &Counter{encoding: cached, model: model}, nil
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding: %w", err)
		}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()

	return &Counter{encoding: encoding, model: model}, nil
}

// Count returns the token count for text.
func (c *Counter) Count(text string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.encoding.Encode(text, nil, nil))
}

// CountMessages counts tokens across a message list, including the
// per-message framing overhead of chat-format models.
func (c *Counter) CountMessages(messages []Message) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// <|start|>role|message<|end|>
	tokensPerMessage := 3

	total := 0
	for _, msg := range messages {
		total += tokensPerMessage
		total += len(c.encoding.Encode(msg.Role, nil, nil))
		total += len(c.encoding.Encode(msg.Content, nil, nil))
	}

	// Every reply is primed with <|start|>assistant<|message|>
	total += 3

	return total
}

// Model returns the model name this counter is configured for.
func (c *Counter) Model() string {
	return c.model
}

// Estimate provides a rough character-based estimate for callers that
// have no counter at hand.
func Estimate(text string) int {
	return len(text) / 4
}
