package lifecycle

// AnnotationSource is the test framework's reflection layer: it exposes the
// raw fixture annotations declared on a test and its db-isolation annotation.
type AnnotationSource interface {
	// Fixtures returns the raw annotation strings for one scope. Callers pass
	// ScopeClass or ScopeMethod; merging for ScopeAll is the resolver's job.
	Fixtures(test TestRef, scope Scope) ([]string, error)

	// Isolation returns the declared db-isolation state, or nil when the
	// test declares none.
	Isolation(test TestRef) (*IsolationState, error)
}

// DirectiveParser converts one raw annotation string into a directive.
type DirectiveParser interface {
	Parse(raw string) (Directive, error)
}

// DataProvider supplies named data payloads for directives that declare a
// name but no inline data.
type DataProvider interface {
	DataFor(test TestRef) (map[string]map[string]any, error)
}

// OverrideResolver may rewrite or filter the resolved directive list before
// application, and tracks which fixture kind is currently being resolved so
// nested resolution knows its annotation category.
type OverrideResolver interface {
	SetCurrentKind(kind *Kind)
	ApplyOverrides(test TestRef, directives []Directive, kind Kind) ([]Directive, error)
}

// Routine creates and destroys the effect of a single fixture. Factories are
// opaque identifiers; Revert may return ErrEntityNotFound (possibly wrapped)
// when the entity is already gone.
type Routine interface {
	Apply(factory string, data map[string]any) (any, error)
	Revert(factory string, result any) error
}

// ReferenceStore persists named fixture results for later lookup.
type ReferenceStore interface {
	Persist(name string, value any) error
}

// ReferenceSource is optionally implemented by a ReferenceStore to expose
// stored references as template variables for guards and data templating.
type ReferenceSource interface {
	TemplateVars() map[string]any
}

// IsolationChecker snapshots persistent state before fixtures run and
// compares it afterwards to detect leakage between tests.
type IsolationChecker interface {
	CreateSnapshot(test TestRef, state *IsolationState) error
	CheckIsolation(test TestRef, state *IsolationState) error
}

// NopOverrides is an OverrideResolver that changes nothing. It still records
// the current kind so resolution context behaves the same with or without a
// real resolver.
type NopOverrides struct {
	kind *Kind
}

func (n *NopOverrides) SetCurrentKind(kind *Kind) { n.kind = kind }

func (n *NopOverrides) ApplyOverrides(test TestRef, directives []Directive, kind Kind) ([]Directive, error) {
	return directives, nil
}

// CurrentKind returns the kind most recently set, or nil outside a
// resolve/apply/revert window.
func (n *NopOverrides) CurrentKind() *Kind { return n.kind }

// MapProvider is a DataProvider backed by a static per-test map.
type MapProvider map[TestRef]map[string]map[string]any

func (m MapProvider) DataFor(test TestRef) (map[string]map[string]any, error) {
	return m[test], nil
}
