package ptlib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeHandleNextWalksInOrder(t *testing.T) {
	l := NewSafeList[int]()
	l.Append(1)
	l.Append(2)
	l.Append(3)

	h := l.NewHandle()
	var seen []int
	for h.Next() {
		v, err := h.GetObject()
		require.NoError(t, err)
		seen = append(seen, v)
	}
	require.Equal(t, []int{1, 2, 3}, seen)
	require.True(t, h.IsEmpty())
}

func TestSafeHandlePreviousWalksBackward(t *testing.T) {
	l := NewSafeList[int]()
	l.Append(1)
	l.Append(2)
	l.Append(3)

	h := l.NewHandle()
	require.True(t, h.Next())
	require.True(t, h.Next())
	require.True(t, h.Next())
	v, _ := h.GetObject()
	require.Equal(t, 3, v)

	require.True(t, h.Previous())
	v, _ = h.GetObject()
	require.Equal(t, 2, v)
}

func TestSafeHandleAssignAndRelease(t *testing.T) {
	l := NewSafeList[string]()
	obj := l.Append("hello")

	h := l.NewHandle()
	require.NoError(t, h.Assign(obj))
	require.False(t, h.IsEmpty())

	v, err := h.GetObject()
	require.NoError(t, err)
	require.Equal(t, "hello", v)

	h.Release()
	require.True(t, h.IsEmpty())
}

func TestSafeHandleSetObjectRequiresReadWrite(t *testing.T) {
	l := NewSafeList[int]()
	obj := l.Append(1)

	h := l.NewHandle()
	h.mode = ModeReadOnly
	require.NoError(t, h.Assign(obj))
	defer h.Release()

	require.Panics(t, func() {
		_ = h.SetObject(2)
	})
}

func TestSafeHandleSetObjectWritesThrough(t *testing.T) {
	l := NewSafeList[int]()
	obj := l.Append(1)

	h := l.NewHandle()
	h.mode = ModeReadWrite
	require.NoError(t, h.Assign(obj))
	require.NoError(t, h.SetObject(42))
	h.Release()

	v, err := l.GetWithLock(0, ModeReadOnly)
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestSafeHandleNextSkipsRemovedMember(t *testing.T) {
	l := NewSafeList[int]()
	l.Append(1)
	middle := l.Append(2)
	l.Append(3)

	require.True(t, l.Remove(middle))

	h := l.NewHandle()
	var seen []int
	for h.Next() {
		v, _ := h.GetObject()
		seen = append(seen, v)
	}
	require.Equal(t, []int{1, 3}, seen)
}

func TestSafeHandleAssignToRemovedObjectFails(t *testing.T) {
	l := NewSafeList[int]()
	obj := l.Append(1)
	require.True(t, l.Remove(obj))

	h := l.NewHandle()
	require.ErrorIs(t, h.Assign(obj), ErrObjectRemoved)
	require.True(t, h.IsEmpty())
}
