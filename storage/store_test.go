package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flanksource/fixturekit/lifecycle"
)

func TestStorePersistAndGet(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Persist("customer1", lifecycle.Reference{Name: "customer1", Value: map[string]any{"id": 42}}))
	require.True(t, store.Has("customer1"))

	value, ok := store.Get("customer1")
	require.True(t, ok)
	ref, ok := value.(lifecycle.Reference)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"id": 42}, ref.Value)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestStoreRejectsEmptyName(t *testing.T) {
	store := NewStore()
	require.Error(t, store.Persist("", "value"))
}

func TestStoreOverwrite(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Persist("customer1", "old"))
	require.NoError(t, store.Persist("customer1", "new"))

	value, _ := store.Get("customer1")
	assert.Equal(t, "new", value)
	assert.Equal(t, []string{"customer1"}, store.Names())
}

func TestStoreTemplateVarsUnwrapReferences(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Persist("customer1", lifecycle.Reference{Name: "customer1", Value: "cust-42"}))
	require.NoError(t, store.Persist("plain", "raw"))

	vars := store.TemplateVars()
	assert.Equal(t, "cust-42", vars["customer1"])
	assert.Equal(t, "raw", vars["plain"])
}

func TestStoreClear(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Persist("customer1", "value"))

	store.Clear()
	assert.Empty(t, store.Names())
}
