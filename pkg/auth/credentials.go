// Package auth provides credential resolution and delegation service
// tokens. It injects credential material where the engine needs it; it
// does not define authorization policy.
package auth

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/parley-ai/parley/pkg/config"
)

// Credentials is the auth material a turn executes with: the caller's
// API key, or a minted service token when the turn itself is a
// team-routed delegation.
type Credentials struct {
	APIKey       string
	ServiceToken string
}

// AuthorizationHeader renders the credential as a bearer header value.
// A service token wins over the API key.
func (c Credentials) AuthorizationHeader() string {
	switch {
	case c.ServiceToken != "":
		return "Bearer " + c.ServiceToken
	case c.APIKey != "":
		return "Bearer " + c.APIKey
	default:
		return ""
	}
}

// Store retrieves secrets by key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
}

// Resolver resolves credential references against named stores.
type Resolver struct {
	mu     sync.RWMutex
	stores map[string]Store
}

func NewResolver() *Resolver {
	return &Resolver{stores: make(map[string]Store)}
}

// Register adds a named store. Later registrations replace earlier ones.
func (r *Resolver) Register(name string, store Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[name] = store
}

// Resolve looks up the secret a credential reference points at.
func (r *Resolver) Resolve(ctx context.Context, ref *config.CredentialReference) (string, error) {
	if ref == nil {
		return "", fmt.Errorf("nil credential reference")
	}

	r.mu.RLock()
	store, ok := r.stores[ref.Store]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("credential store %q not registered", ref.Store)
	}

	secret, err := store.Get(ctx, ref.Key)
	if err != nil {
		return "", fmt.Errorf("failed to resolve credential %q: %w", ref.ID, err)
	}
	return secret, nil
}

// MemoryStore is an in-process store for tests and embedded use.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]string)}
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key] = value
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[key]
	if !ok {
		return "", fmt.Errorf("credential %q not found", key)
	}
	return secret, nil
}

// EnvStore reads secrets from environment variables.
type EnvStore struct{}

func (EnvStore) Get(_ context.Context, key string) (string, error) {
	secret := os.Getenv(key)
	if secret == "" {
		return "", fmt.Errorf("environment variable %q is empty or unset", key)
	}
	return secret, nil
}
