// Package storage holds named fixture results for the duration of a test
// run so later fixtures and assertions can reference them by name.
package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/flanksource/commons/logger"

	"github.com/flanksource/fixturekit/lifecycle"
)

// Store is a process-wide, thread-safe reference store. It implements
// lifecycle.ReferenceStore and lifecycle.ReferenceSource.
type Store struct {
	mu    sync.RWMutex
	items map[string]any
}

// NewStore creates an empty reference store.
func NewStore() *Store {
	return &Store{items: make(map[string]any)}
}

// Persist records a named value. Re-persisting a name overwrites the
// previous value: a later fixture may legitimately replace a reference.
func (s *Store) Persist(name string, value any) error {
	if name == "" {
		return fmt.Errorf("reference name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[name]; exists {
		logger.Debugf("Overwriting fixture reference %q", name)
	}
	s.items[name] = value
	return nil
}

// Get retrieves a named value.
func (s *Store) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[name]
	return value, ok
}

// Has reports whether a reference exists.
func (s *Store) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Names returns all stored reference names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.items))
	for name := range s.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear drops all references, typically between test classes.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]any)
}

// TemplateVars exposes stored references as template variables, unwrapping
// lifecycle.Reference values to their raw results.
func (s *Store) TemplateVars() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vars := make(map[string]any, len(s.items))
	for name, value := range s.items {
		if ref, ok := value.(lifecycle.Reference); ok {
			vars[name] = ref.Value
			continue
		}
		vars[name] = value
	}
	return vars
}
