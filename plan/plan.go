// Package plan loads declarative fixture plans and runs each declared test
// through the lifecycle controller: resolve, apply, revert, isolation check.
//
// A plan is a YAML file:
//
//	kind: dataFixtures
//	routines:
//	  CustomerFixture:
//	    apply: "echo created-{{ .data.id }}"
//	    revert: "echo removed {{ .result }}"
//	tests:
//	  - class: CustomerControllerTest
//	    annotations: [BaseFixture]
//	    isolation: per-class
//	    local: [loadCustomers]
//	    methods:
//	      - name: testCreate
//	        annotations: ["CustomerFixture {name: customer1, data: {id: 42}}"]
//	        isolation: per-test
package plan

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/flanksource/fixturekit/annotations"
	"github.com/flanksource/fixturekit/lifecycle"
)

// Plan is one fixture plan file.
type Plan struct {
	// Kind is the annotation category, defaults to "dataFixtures".
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Routines maps factory identifiers to shell commands; omit to run the
	// plan with the in-memory echo routine.
	Routines map[string]Commands `yaml:"routines,omitempty" json:"routines,omitempty"`

	Tests []TestClass `yaml:"tests" json:"tests"`

	// Source path the plan was loaded from, set by Load.
	Path string `yaml:"-" json:"path,omitempty"`
}

// Commands are the shell templates backing one exec-routine factory.
type Commands struct {
	Apply  string `yaml:"apply" json:"apply"`
	Revert string `yaml:"revert,omitempty" json:"revert,omitempty"`
}

// TestClass declares one test class: class-level annotations plus its methods.
type TestClass struct {
	Class       string                    `yaml:"class" json:"class"`
	Annotations []string                  `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	Isolation   string                    `yaml:"isolation,omitempty" json:"isolation,omitempty"`
	Local       []string                  `yaml:"local,omitempty" json:"local,omitempty"`
	Methods     []TestMethod              `yaml:"methods" json:"methods"`
	Provider    map[string]map[string]any `yaml:"provider,omitempty" json:"provider,omitempty"`
}

// TestMethod declares one test method and its method-level annotations.
type TestMethod struct {
	Name        string   `yaml:"name" json:"name"`
	Annotations []string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	Isolation   string   `yaml:"isolation,omitempty" json:"isolation,omitempty"`

	// Scope restricts resolution to "class" or "method"; empty merges both.
	Scope string `yaml:"scope,omitempty" json:"scope,omitempty"`
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	p, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("invalid plan file %s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

// Parse decodes and validates plan YAML.
func Parse(content []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if p.Kind == "" {
		p.Kind = "dataFixtures"
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks class/method names and isolation values.
func (p *Plan) Validate() error {
	if len(p.Tests) == 0 {
		return fmt.Errorf("plan declares no tests")
	}
	for _, class := range p.Tests {
		if class.Class == "" {
			return fmt.Errorf("test class name is required")
		}
		if class.Isolation != "" {
			if _, err := annotations.ParseIsolation(class.Isolation); err != nil {
				return fmt.Errorf("class %s: %w", class.Class, err)
			}
		}
		if len(class.Methods) == 0 {
			return fmt.Errorf("class %s declares no methods", class.Class)
		}
		for _, method := range class.Methods {
			if method.Name == "" {
				return fmt.Errorf("class %s: method name is required", class.Class)
			}
			if method.Isolation != "" {
				if _, err := annotations.ParseIsolation(method.Isolation); err != nil {
					return fmt.Errorf("%s::%s: %w", class.Class, method.Name, err)
				}
			}
			switch lifecycle.Scope(method.Scope) {
			case lifecycle.ScopeAll, lifecycle.ScopeClass, lifecycle.ScopeMethod:
			default:
				return fmt.Errorf("%s::%s: unknown scope %q", class.Class, method.Name, method.Scope)
			}
		}
	}
	return nil
}

// BuildSource converts the plan's declarations into an annotation source.
func (p *Plan) BuildSource() (*annotations.Source, error) {
	source := annotations.NewSource()
	for _, class := range p.Tests {
		source.AddClass(class.Class, class.Annotations...)
		if class.Isolation != "" {
			state, err := annotations.ParseIsolation(class.Isolation)
			if err != nil {
				return nil, err
			}
			source.SetClassIsolation(class.Class, state)
		}
		for _, method := range class.Methods {
			source.AddMethod(class.Class, method.Name, method.Annotations...)
			if method.Isolation != "" {
				state, err := annotations.ParseIsolation(method.Isolation)
				if err != nil {
					return nil, err
				}
				source.SetMethodIsolation(class.Class, method.Name, state)
			}
		}
	}
	return source, nil
}

// BuildLocalFactories registers each class's test-local factories.
func (p *Plan) BuildLocalFactories() *lifecycle.LocalFactories {
	local := lifecycle.NewLocalFactories()
	for _, class := range p.Tests {
		if len(class.Local) > 0 {
			local.Register(class.Class, class.Local...)
		}
	}
	return local
}

// BuildProvider exposes each class's provider payloads keyed by test.
func (p *Plan) BuildProvider() lifecycle.MapProvider {
	provider := lifecycle.MapProvider{}
	for _, class := range p.Tests {
		if len(class.Provider) == 0 {
			continue
		}
		for _, method := range class.Methods {
			test := lifecycle.TestRef{Class: class.Class, Method: method.Name}
			provider[test] = class.Provider
		}
	}
	return provider
}
