package ptlib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeListAppendAndGetAt(t *testing.T) {
	l := NewSafeList[int]()
	l.Append(10)
	l.Append(20)
	l.Append(30)
	require.Equal(t, 3, l.Len())

	obj, ok := l.GetAt(1)
	require.True(t, ok)
	require.Equal(t, 20, obj.peekLocked())
}

func TestSafeListRemoveShrinksSizeButKeepsPending(t *testing.T) {
	l := NewSafeList[int]()
	l.Append(1)
	obj := l.Append(2)
	l.Append(3)

	require.True(t, l.Remove(obj))
	require.Equal(t, 2, l.Len())
	require.Equal(t, 1, l.coll.pendingCount())

	require.Equal(t, 1, l.CollectGarbage())
	require.Equal(t, 0, l.coll.pendingCount())
}

func TestSafeListRemoveTwiceFails(t *testing.T) {
	l := NewSafeList[int]()
	obj := l.Append(1)
	require.True(t, l.Remove(obj))
	require.False(t, l.Remove(obj))
}

func TestSafeListGetWithLock(t *testing.T) {
	l := NewSafeList[string]()
	l.Append("a")
	l.Append("b")

	v, err := l.GetWithLock(1, ModeReadOnly)
	require.NoError(t, err)
	require.Equal(t, "b", v)

	_, err = l.GetWithLock(5, ModeReadOnly)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSafeListFindWithLock(t *testing.T) {
	l := NewSafeList[int]()
	l.Append(1)
	l.Append(2)
	l.Append(3)

	h, found := l.FindWithLock(func(v int) bool { return v == 2 }, ModeReadOnly)
	require.True(t, found)
	defer h.Release()

	v, err := h.GetObject()
	require.NoError(t, err)
	require.Equal(t, 2, v)

	_, found = l.FindWithLock(func(v int) bool { return v == 99 }, ModeReference)
	require.False(t, found)
}

func TestSafeListCollectGarbageRunsCloseHook(t *testing.T) {
	l := NewSafeList[*fakeCloser]()
	c := &fakeCloser{}
	obj := l.Append(c)
	require.True(t, l.Remove(obj))
	l.CollectGarbage()
	require.True(t, c.closed)
}

type fakeCloser struct {
	closed bool
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return nil
}

func TestSafeListClose(t *testing.T) {
	l := NewSafeList[int]()
	l.Append(1)
	l.Append(2)
	l.Close()
	require.Equal(t, 0, l.Len())
	require.Equal(t, 0, l.coll.pendingCount())
}
