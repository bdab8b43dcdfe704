package annotations

import (
	"fmt"
	"sync"

	"github.com/flanksource/fixturekit/lifecycle"
)

// Source is a registry-backed lifecycle.AnnotationSource: fixture
// declarations are registered per class and per method instead of being
// reflected off live test classes. Plan-driven runners populate it from
// configuration.
type Source struct {
	mu      sync.RWMutex
	classes map[string]*classEntry
}

type classEntry struct {
	fixtures  []string
	isolation *lifecycle.IsolationState
	methods   map[string]*methodEntry
}

type methodEntry struct {
	fixtures  []string
	isolation *lifecycle.IsolationState
}

// NewSource creates an empty annotation source.
func NewSource() *Source {
	return &Source{classes: make(map[string]*classEntry)}
}

func (s *Source) class(name string) *classEntry {
	entry, ok := s.classes[name]
	if !ok {
		entry = &classEntry{methods: make(map[string]*methodEntry)}
		s.classes[name] = entry
	}
	return entry
}

func (s *Source) method(class, method string) *methodEntry {
	c := s.class(class)
	entry, ok := c.methods[method]
	if !ok {
		entry = &methodEntry{}
		c.methods[method] = entry
	}
	return entry
}

// AddClass registers class-level fixture annotations.
func (s *Source) AddClass(class string, annotations ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.class(class)
	c.fixtures = append(c.fixtures, annotations...)
}

// AddMethod registers method-level fixture annotations.
func (s *Source) AddMethod(class, method string, annotations ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.method(class, method)
	m.fixtures = append(m.fixtures, annotations...)
}

// SetClassIsolation declares the db-isolation state for a whole class.
func (s *Source) SetClassIsolation(class string, state lifecycle.IsolationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.class(class).isolation = &state
}

// SetMethodIsolation declares the db-isolation state for one method,
// overriding any class-level declaration.
func (s *Source) SetMethodIsolation(class, method string, state lifecycle.IsolationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.method(class, method).isolation = &state
}

// Fixtures returns the raw annotations registered for one scope.
func (s *Source) Fixtures(test lifecycle.TestRef, scope lifecycle.Scope) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.classes[test.Class]
	if !ok {
		return nil, nil
	}

	switch scope {
	case lifecycle.ScopeClass:
		return c.fixtures, nil
	case lifecycle.ScopeMethod:
		if m, ok := c.methods[test.Method]; ok {
			return m.fixtures, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("annotation source serves a single scope, got %q", scope)
}

// Isolation returns the declared db-isolation state; the method-level
// declaration wins over the class-level one, nil means none declared.
func (s *Source) Isolation(test lifecycle.TestRef) (*lifecycle.IsolationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.classes[test.Class]
	if !ok {
		return nil, nil
	}
	if m, ok := c.methods[test.Method]; ok && m.isolation != nil {
		return m.isolation, nil
	}
	return c.isolation, nil
}
