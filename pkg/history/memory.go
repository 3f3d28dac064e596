package history

import (
	"context"
	"sync"
)

// MemoryStore keeps messages in process memory. Suitable for tests and
// single-process embedding.
type MemoryStore struct {
	mu       sync.RWMutex
	messages []Message
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *MemoryStore) Messages(_ context.Context, q Query) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Message
	for _, msg := range s.messages {
		if !matches(msg, q) {
			continue
		}
		out = append(out, msg)
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func matches(msg Message, q Query) bool {
	if q.TenantID != "" && msg.TenantID != q.TenantID {
		return false
	}
	if q.ProjectID != "" && msg.ProjectID != q.ProjectID {
		return false
	}
	if q.ConversationID != "" && msg.ConversationID != q.ConversationID {
		return false
	}
	if q.SubAgentID != "" && msg.SubAgentID != q.SubAgentID {
		return false
	}
	return true
}
