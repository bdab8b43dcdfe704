package lifecycle

import (
	"sort"
	"sync"
)

// LocalFactories registers fixture factories that live on a test class
// itself. Directives naming a registered factory are rewritten to the
// qualified "Class::factory" form before the routine is invoked, so the
// routine can dispatch to the test-local implementation.
type LocalFactories struct {
	mu      sync.RWMutex
	byClass map[string]map[string]struct{}
}

// NewLocalFactories creates an empty local-factory registry.
func NewLocalFactories() *LocalFactories {
	return &LocalFactories{
		byClass: make(map[string]map[string]struct{}),
	}
}

// Register records factories as local to a test class.
func (l *LocalFactories) Register(class string, factories ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.byClass[class]
	if !ok {
		set = make(map[string]struct{})
		l.byClass[class] = set
	}
	for _, factory := range factories {
		set[factory] = struct{}{}
	}
}

// Has reports whether factory is registered as local to class.
func (l *LocalFactories) Has(class, factory string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.byClass[class][factory]
	return ok
}

// Qualify rewrites factory to "Class::factory" when the running test's class
// registered it as local; otherwise the factory is returned unchanged.
func (l *LocalFactories) Qualify(test TestRef, factory string) string {
	if l == nil || test.Class == "" {
		return factory
	}
	if l.Has(test.Class, factory) {
		return test.Class + "::" + factory
	}
	return factory
}

// List returns the factories registered for a class, sorted.
func (l *LocalFactories) List(class string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.byClass[class]))
	for name := range l.byClass[class] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
