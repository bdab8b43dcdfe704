// Package annotations parses raw fixture annotation strings into structured
// directives and provides a registry-backed annotation source for runners
// that declare fixtures in configuration rather than on live test classes.
//
// An annotation is a factory identifier optionally followed by a YAML
// argument block:
//
//	CustomerFixture
//	CustomerFixture {name: customer1}
//	CustomerFixture {name: customer1, data: {id: 42, active: true}}
//	OrderFixture {name: order1, when: '"customer1" in refs'}
package annotations

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/flanksource/fixturekit/lifecycle"
)

// Parser converts raw annotation strings into lifecycle directives.
type Parser struct{}

// NewParser creates an annotation parser.
func NewParser() *Parser {
	return &Parser{}
}

// directiveArgs is the YAML argument block of an annotation.
type directiveArgs struct {
	Name string         `yaml:"name"`
	Data map[string]any `yaml:"data"`
	When string         `yaml:"when"`
}

// Parse splits an annotation into factory and argument block. The factory
// identifier is everything before the first whitespace or '{'.
func (p *Parser) Parse(raw string) (lifecycle.Directive, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return lifecycle.Directive{}, fmt.Errorf("empty fixture annotation")
	}

	factory := trimmed
	args := ""
	if idx := strings.IndexAny(trimmed, " \t{"); idx >= 0 {
		factory = strings.TrimSpace(trimmed[:idx])
		args = strings.TrimSpace(trimmed[idx:])
	}
	if factory == "" {
		return lifecycle.Directive{}, fmt.Errorf("fixture annotation %q has no factory", raw)
	}

	d := lifecycle.Directive{Factory: factory}
	if args == "" {
		return d, nil
	}

	var parsed directiveArgs
	if err := yaml.Unmarshal([]byte(args), &parsed); err != nil {
		return lifecycle.Directive{}, fmt.Errorf("failed to parse arguments of fixture annotation %q: %w", raw, err)
	}

	d.Name = parsed.Name
	d.Data = parsed.Data
	d.When = parsed.When
	return d, nil
}

// ParseIsolation validates and converts a raw db-isolation annotation value.
func ParseIsolation(value string) (lifecycle.IsolationState, error) {
	state := lifecycle.IsolationState(strings.ToLower(strings.TrimSpace(value)))
	switch state {
	case lifecycle.IsolationPerTest, lifecycle.IsolationPerClass, lifecycle.IsolationDisabled:
		return state, nil
	}
	return "", fmt.Errorf("unknown db-isolation state %q (want per-test, per-class or disabled)", value)
}
