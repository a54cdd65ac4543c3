package ptlib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeDictionarySetAtAndGetAt(t *testing.T) {
	d := NewSafeDictionary[string, int]()
	d.SetAt("a", 1)
	d.SetAt("b", 2)
	require.Equal(t, 2, d.Len())

	obj, ok := d.GetAt("a")
	require.True(t, ok)
	require.Equal(t, 1, obj.peekLocked())

	_, ok = d.GetAt("missing")
	require.False(t, ok)
}

func TestSafeDictionarySetAtReplacesAndTombstonesOld(t *testing.T) {
	d := NewSafeDictionary[string, int]()
	first := d.SetAt("k", 1)
	d.SetAt("k", 2)

	require.Equal(t, 1, d.Len())
	require.Equal(t, 1, d.coll.pendingCount())
	require.True(t, first.isRemovedSnapshot())

	obj, ok := d.GetAt("k")
	require.True(t, ok)
	require.Equal(t, 2, obj.peekLocked())
}

func TestSafeDictionaryRemoveAt(t *testing.T) {
	d := NewSafeDictionary[int, string]()
	d.SetAt(1, "one")
	require.True(t, d.RemoveAt(1))
	require.False(t, d.RemoveAt(1))
	_, ok := d.GetAt(1)
	require.False(t, ok)
}

func TestSafeDictionaryGetWithLock(t *testing.T) {
	d := NewSafeDictionary[string, int]()
	d.SetAt("x", 100)

	v, err := d.GetWithLock("x", ModeReadWrite)
	require.NoError(t, err)
	require.Equal(t, 100, v)

	_, err = d.GetWithLock("missing", ModeReadOnly)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSafeDictionaryFindWithLock(t *testing.T) {
	d := NewSafeDictionary[string, int]()
	d.SetAt("a", 1)
	d.SetAt("b", 2)

	h, found := d.FindWithLock(func(v int) bool { return v == 2 }, ModeReadOnly)
	require.True(t, found)
	defer h.Release()
	v, _ := h.GetObject()
	require.Equal(t, 2, v)
}
