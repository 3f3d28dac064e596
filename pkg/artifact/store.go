package artifact

import (
	"fmt"
	"sync"
)

// CitationError reports a citation of an (artifactId, toolCallId) pair
// that was never created. Per the protocol this is an error, never
// silently ignored.
type CitationError struct {
	ArtifactID string
	ToolCallID string
}

func (e *CitationError) Error() string {
	return fmt.Sprintf("artifact (%s, %s) was never created in this conversation", e.ArtifactID, e.ToolCallID)
}

type key struct {
	artifactID string
	toolCallID string
}

// Store holds the artifacts created during a conversation, keyed by the
// unique (artifactId, toolCallId) pair. Safe for concurrent reads.
type Store struct {
	mu        sync.RWMutex
	artifacts map[key]*Artifact
	order     []key
}

func NewStore() *Store {
	return &Store{artifacts: make(map[key]*Artifact)}
}

// Put stores a newly created artifact. Re-creating an existing pair is
// an error: artifacts are immutable after creation.
func (s *Store) Put(a *Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{a.ArtifactID, a.ToolCallID}
	if _, exists := s.artifacts[k]; exists {
		return fmt.Errorf("artifact (%s, %s) already exists", a.ArtifactID, a.ToolCallID)
	}
	s.artifacts[k] = a
	s.order = append(s.order, k)
	return nil
}

// Get returns the artifact for the pair, or a CitationError when the
// pair was never created.
func (s *Store) Get(artifactID, toolCallID string) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artifacts[key{artifactID, toolCallID}]
	if !ok {
		return nil, &CitationError{ArtifactID: artifactID, ToolCallID: toolCallID}
	}
	return a, nil
}

// List returns all artifacts in creation order.
func (s *Store) List() []*Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Artifact, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.artifacts[k])
	}
	return out
}

// Len returns the number of stored artifacts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}
