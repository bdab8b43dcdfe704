package lifecycle

import (
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
)

// Kind identifies an annotation category (e.g. "dataFixtures"). A controller
// instance resolves and applies fixtures for exactly one kind.
type Kind string

// TestRef is the structured identity of a test: class plus method name.
// It is comparable and used directly as a map key, never as a formatted string.
type TestRef struct {
	Class  string `json:"class" yaml:"class"`
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
}

func (t TestRef) String() string {
	if t.Method == "" {
		return t.Class
	}
	return t.Class + "::" + t.Method
}

// IsZero reports whether the reference identifies no test at all.
func (t TestRef) IsZero() bool {
	return t.Class == "" && t.Method == ""
}

// ClassRef returns the identity of the owning class with the method stripped,
// used for class-scoped bookkeeping.
func (t TestRef) ClassRef() TestRef {
	return TestRef{Class: t.Class}
}

func (t TestRef) Pretty() api.Text {
	text := clicky.Text(t.Class, "text-blue-600")
	if t.Method != "" {
		text = text.Append("::", "text-gray-500").Append(t.Method, "text-blue-500")
	}
	return text
}

// Scope selects which annotation grouping a resolution reads from.
type Scope string

const (
	// ScopeAll merges class-level and method-level annotations, method wins
	// on conflict (conflicts are keyed by directive name, falling back to factory).
	ScopeAll Scope = ""
	// ScopeClass selects only class-level annotations.
	ScopeClass Scope = "class"
	// ScopeMethod selects only method-level annotations.
	ScopeMethod Scope = "method"
)

// Directive is one declared fixture use: an opaque factory identifier plus
// its arguments. Factory is always present; Name is optional (anonymous
// fixtures never publish their result).
type Directive struct {
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Factory string         `json:"factory" yaml:"factory"`
	Data    map[string]any `json:"data,omitempty" yaml:"data,omitempty"`

	// When is an optional CEL guard; a directive whose guard evaluates to
	// false is skipped without error.
	When string `json:"when,omitempty" yaml:"when,omitempty"`
}

// Key returns the identity used for method-over-class conflict resolution:
// the declared name when present, otherwise the factory.
func (d Directive) Key() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Factory
}

func (d Directive) String() string {
	if d.Name != "" {
		return fmt.Sprintf("%s (factory: %s)", d.Name, d.Factory)
	}
	return d.Factory
}

func (d Directive) Pretty() api.Text {
	text := clicky.Text(d.Factory, "font-bold")
	if d.Name != "" {
		text = text.Append(" name=", "text-gray-500").Append(d.Name, "text-cyan-600")
	}
	if d.When != "" {
		text = text.Append(" when=", "text-gray-500").Append(d.When, "text-yellow-600")
	}
	return text
}

// Applied is a directive together with its apply-time outcome. Ledger order
// is significant: revert walks applied entries in exact reverse.
type Applied struct {
	Directive
	Result any `json:"result,omitempty"`
}

// Reference wraps a named fixture result before it is persisted to the
// reference store, so later fixtures and assertions can look it up by name.
type Reference struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

func (r Reference) Pretty() api.Text {
	return clicky.Text(r.Name, "text-cyan-600").Append(fmt.Sprintf(" = %v", r.Value), "text-gray-500")
}

// IsolationState is the declared db-isolation policy for a test. A nil
// *IsolationState means "use the checker's default policy".
type IsolationState string

const (
	IsolationPerTest  IsolationState = "per-test"
	IsolationPerClass IsolationState = "per-class"
	IsolationDisabled IsolationState = "disabled"
)

// cacheKey keys the resolution cache on (fixture kind, test identity).
type cacheKey struct {
	Kind Kind
	Test TestRef
}
