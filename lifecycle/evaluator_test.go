package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardExpressions(t *testing.T) {
	evaluator := NewEvaluator()
	vars := map[string]any{
		"test": map[string]string{"class": "CustomerControllerTest", "method": "testCreate"},
		"refs": map[string]any{"customer1": map[string]any{"id": 42}},
	}

	tests := []struct {
		name       string
		expression string
		expected   bool
		wantErr    bool
	}{
		{name: "empty passes", expression: "", expected: true},
		{name: "literal true passes", expression: "true", expected: true},
		{name: "method match", expression: `test.method == "testCreate"`, expected: true},
		{name: "method mismatch", expression: `test.method == "testDelete"`, expected: false},
		{name: "reference lookup", expression: `"customer1" in refs`, expected: true},
		{name: "string function", expression: `test.class.endsWith("Test")`, expected: true},
		{name: "compile error", expression: `test.method ==`, wantErr: true},
		{name: "non-boolean result", expression: `test.method`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluator.Guard(tt.expression, vars)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTemplateDataLeavesInputUntouched(t *testing.T) {
	evaluator := NewEvaluator()
	data := map[string]any{
		"customer": "{{ .refs.customer1 }}",
		"plain":    "no template",
		"count":    3,
	}
	vars := map[string]any{"refs": map[string]any{"customer1": "cust-42"}}

	templated, err := evaluator.TemplateData(data, vars)
	require.NoError(t, err)

	assert.Equal(t, "cust-42", templated["customer"])
	assert.Equal(t, "no template", templated["plain"])
	assert.Equal(t, 3, templated["count"])
	assert.Equal(t, "{{ .refs.customer1 }}", data["customer"])
}

func TestTemplateDataEmpty(t *testing.T) {
	evaluator := NewEvaluator()

	templated, err := evaluator.TemplateData(nil, map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, templated)
}
