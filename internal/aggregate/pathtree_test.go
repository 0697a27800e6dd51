package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAt(t *testing.T) {
	t.Parallel()

	leaf := Node{"score": 3}
	tree := Node{"12": Node{"254": leaf}, "13": "not a node"}

	got, ok := GetAt(tree, []string{"12", "254"})
	require.True(t, ok)
	assert.Equal(t, leaf, got)

	_, ok = GetAt(tree, []string{"12", "1678"})
	assert.False(t, ok, "missing leaf")

	_, ok = GetAt(tree, []string{"99", "254"})
	assert.False(t, ok, "missing intermediate level")

	_, ok = GetAt(tree, []string{"13"})
	assert.False(t, ok, "non-node value")

	_, ok = GetAt(tree, []string{"12", "254", "score"})
	assert.False(t, ok, "descending past a leaf field")

	root, ok := GetAt(tree, nil)
	require.True(t, ok)
	assert.Equal(t, tree, root)

	_, ok = GetAt(nil, []string{"12"})
	assert.False(t, ok)
}

func TestGetAt_PlainMaps(t *testing.T) {
	t.Parallel()

	tree := Node{"12": map[string]any{"254": map[string]any{"score": 3}}}

	got, ok := GetAt(tree, []string{"12", "254"})
	require.True(t, ok)
	assert.Equal(t, 3, got["score"])
}

func TestEnsureAt(t *testing.T) {
	t.Parallel()

	tree := Node{}

	leaf := EnsureAt(tree, []string{"12", "red"})
	require.NotNil(t, leaf)
	assert.Empty(t, leaf)

	leaf["score"] = 120

	again := EnsureAt(tree, []string{"12", "red"})
	assert.Equal(t, 120, again["score"], "existing leaf is returned")

	sibling := EnsureAt(tree, []string{"12", "blue"})
	sibling["score"] = 98

	got, ok := GetAt(tree, []string{"12"})
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestEnsureAt_ReplacesNonNode(t *testing.T) {
	t.Parallel()

	tree := Node{"12": 5}

	leaf := EnsureAt(tree, []string{"12", "254"})
	leaf["x"] = 1

	got, ok := GetAt(tree, []string{"12", "254"})
	require.True(t, ok)
	assert.Equal(t, 1, got["x"])
}

func TestEnsureAt_EmptyPath(t *testing.T) {
	t.Parallel()

	tree := Node{"a": 1}
	assert.Equal(t, tree, EnsureAt(tree, nil))
}
