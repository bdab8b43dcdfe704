package lifecycle

import (
	"fmt"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"
)

// Options wires the collaborators a controller orchestrates. Source, Parser
// and Routine are required; the rest degrade gracefully when nil.
type Options struct {
	// Kind is the annotation category this controller resolves (e.g. "dataFixtures").
	Kind Kind

	Source    AnnotationSource
	Parser    DirectiveParser
	Routine   Routine
	Provider  DataProvider     // optional, fills Data for named directives
	Overrides OverrideResolver // optional, defaults to NopOverrides
	Store     ReferenceStore   // optional, named results are dropped when nil
	Checker   IsolationChecker // optional, isolation checks are skipped when nil
	Local     *LocalFactories  // optional, test-local factory qualification
	Logger    logger.Logger
}

// Controller owns the fixture lifecycle for one fixture kind: it resolves
// directives per test (memoized), applies them in declared order before the
// test body, and reverts them in exact reverse order afterwards.
//
// A controller instance is reused across a test run but is not safe for
// concurrent use; tests execute one at a time.
type Controller struct {
	opts      Options
	evaluator *Evaluator

	cache   map[cacheKey][]Directive
	applied []Applied
}

// NewController creates a fixture lifecycle controller.
func NewController(opts Options) (*Controller, error) {
	if opts.Kind == "" {
		return nil, fmt.Errorf("fixture kind is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("annotation source is required")
	}
	if opts.Parser == nil {
		return nil, fmt.Errorf("directive parser is required")
	}
	if opts.Routine == nil {
		return nil, fmt.Errorf("fixture routine is required")
	}
	if opts.Overrides == nil {
		opts.Overrides = &NopOverrides{}
	}

	return &Controller{
		opts:      opts,
		evaluator: NewEvaluator(),
		cache:     make(map[cacheKey][]Directive),
	}, nil
}

// Resolve returns the ordered directive list for a test, memoized per
// (kind, test identity). Resolution always runs even when the test declares
// zero fixtures: external configuration can inject directives through the
// override resolver, invisible to the annotation layer.
//
// Repeated calls for the same test return the identical cached slice; the
// scope argument only influences the first resolution.
func (c *Controller) Resolve(test TestRef, scope Scope) ([]Directive, error) {
	key := cacheKey{Kind: c.opts.Kind, Test: test}
	if cached, ok := c.cache[key]; ok {
		return cached, nil
	}

	c.opts.Overrides.SetCurrentKind(lo.ToPtr(c.opts.Kind))

	directives, err := c.collect(test, scope)
	if err != nil {
		return nil, err
	}

	if err := c.fillProviderData(test, directives); err != nil {
		return nil, err
	}

	// The override resolver runs even for an empty list so config-driven
	// fixtures can be injected.
	directives, err = c.opts.Overrides.ApplyOverrides(test, directives, c.opts.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to apply fixture overrides for %s: %w", test, err)
	}

	logger.Debugf("Resolved %d %s fixtures for %s", len(directives), c.opts.Kind, test)
	c.cache[key] = directives
	return directives, nil
}

// collect fetches and parses the raw annotations for the requested scope.
// ScopeAll merges class-level and method-level directives, method winning on
// conflicting keys while keeping the class-level position for overridden
// entries.
func (c *Controller) collect(test TestRef, scope Scope) ([]Directive, error) {
	if scope != ScopeAll {
		return c.parseScope(test, scope)
	}

	classDirectives, err := c.parseScope(test, ScopeClass)
	if err != nil {
		return nil, err
	}
	methodDirectives, err := c.parseScope(test, ScopeMethod)
	if err != nil {
		return nil, err
	}

	overrides := lo.KeyBy(methodDirectives, Directive.Key)
	merged := make([]Directive, 0, len(classDirectives)+len(methodDirectives))
	for _, d := range classDirectives {
		if override, ok := overrides[d.Key()]; ok {
			merged = append(merged, override)
			delete(overrides, d.Key())
			continue
		}
		merged = append(merged, d)
	}
	for _, d := range methodDirectives {
		if _, pending := overrides[d.Key()]; pending {
			merged = append(merged, d)
			delete(overrides, d.Key())
		}
	}
	return merged, nil
}

func (c *Controller) parseScope(test TestRef, scope Scope) ([]Directive, error) {
	raw, err := c.opts.Source.Fixtures(test, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s-scope annotations for %s: %w", scope, test, err)
	}

	directives := make([]Directive, 0, len(raw))
	for _, annotation := range raw {
		d, err := c.opts.Parser.Parse(annotation)
		if err != nil {
			return nil, err
		}
		directives = append(directives, d)
	}
	return directives, nil
}

// fillProviderData merges provider payloads into directives that declare a
// name but carry no inline data. The provider is consulted at most once.
func (c *Controller) fillProviderData(test TestRef, directives []Directive) error {
	if c.opts.Provider == nil {
		return nil
	}

	var provided map[string]map[string]any
	for i, d := range directives {
		if d.Name == "" || d.Data != nil {
			continue
		}
		if provided == nil {
			var err error
			if provided, err = c.opts.Provider.DataFor(test); err != nil {
				return err
			}
			if provided == nil {
				return nil
			}
		}
		if data, ok := provided[d.Name]; ok {
			directives[i].Data = data
		}
	}
	return nil
}

// Applied returns a copy of the current applied-fixtures ledger, in apply
// order.
func (c *Controller) Applied() []Applied {
	out := make([]Applied, len(c.applied))
	copy(out, c.applied)
	return out
}

// isolationState reads the test's declared db-isolation annotation; nil
// means the checker's default policy applies.
func (c *Controller) isolationState(test TestRef) (*IsolationState, error) {
	if test.IsZero() {
		return nil, nil
	}
	state, err := c.opts.Source.Isolation(test)
	if err != nil {
		return nil, fmt.Errorf("failed to read isolation annotation for %s: %w", test, err)
	}
	return state, nil
}
