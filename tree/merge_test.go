package tree_test

import (
	"testing"

	"github.com/c360studio/chainflow/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustObject(t *testing.T, data string) tree.Object {
	t.Helper()
	obj, err := tree.DecodeObject([]byte(data))
	require.NoError(t, err)
	return obj
}

func TestMerge_SourceWinsOnScalars(t *testing.T) {
	dst := mustObject(t, `{"a": 1, "b": "keep"}`)
	src := mustObject(t, `{"a": 2}`)

	out := tree.Merge(dst, src)

	assert.Equal(t, tree.Number("2"), out["a"])
	assert.Equal(t, tree.String("keep"), out["b"])
}

func TestMerge_RecursesIntoObjects(t *testing.T) {
	dst := mustObject(t, `{"cfg": {"a": 1, "b": 2}}`)
	src := mustObject(t, `{"cfg": {"b": 3, "c": 4}}`)

	out := tree.Merge(dst, src)

	want := mustObject(t, `{"cfg": {"a": 1, "b": 3, "c": 4}}`)
	assert.Equal(t, want, out)
}

func TestMerge_ArraysReplaceWholesale(t *testing.T) {
	dst := mustObject(t, `{"items": [1, 2, 3]}`)
	src := mustObject(t, `{"items": [9]}`)

	out := tree.Merge(dst, src)

	assert.Equal(t, tree.Array{tree.Number("9")}, out["items"])
}

func TestMerge_TypeMismatchReplaces(t *testing.T) {
	dst := mustObject(t, `{"x": {"nested": true}, "y": 1}`)
	src := mustObject(t, `{"x": "scalar now", "y": {"object": "now"}}`)

	out := tree.Merge(dst, src)

	assert.Equal(t, tree.String("scalar now"), out["x"])
	assert.Equal(t, mustObject(t, `{"object": "now"}`), out["y"])
}

func TestMerge_Idempotent(t *testing.T) {
	obj := mustObject(t, `{"a": 1, "b": {"c": [1, 2], "d": null}}`)
	assert.Equal(t, obj, tree.Merge(obj, obj))
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	dst := mustObject(t, `{"shared": {"a": 1}}`)
	src := mustObject(t, `{"shared": {"b": 2}}`)

	out := tree.Merge(dst, src)
	out["shared"].(tree.Object)["a"] = tree.Number("99")

	assert.Equal(t, tree.Number("1"), dst["shared"].(tree.Object)["a"])
	assert.NotContains(t, src["shared"].(tree.Object), "a")
}
