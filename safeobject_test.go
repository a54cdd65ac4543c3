package ptlib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeObjectReferenceDereference(t *testing.T) {
	obj := newSafeObject(42)
	require.NoError(t, obj.Reference())
	require.NoError(t, obj.Reference())
	obj.Dereference()
	obj.Dereference()
}

func TestSafeObjectDereferenceUnderflowPanics(t *testing.T) {
	obj := newSafeObject(42)
	require.Panics(t, func() {
		obj.Dereference()
	})
}

func TestSafeObjectAcquireFailsAfterRemoved(t *testing.T) {
	obj := newSafeObject("hi")
	obj.MarkRemoved()

	require.ErrorIs(t, obj.Reference(), ErrObjectRemoved)
	require.ErrorIs(t, obj.AcquireRead(), ErrObjectRemoved)
	require.ErrorIs(t, obj.AcquireWrite(), ErrObjectRemoved)
}

func TestSafeObjectMarkRemovedIsIdempotent(t *testing.T) {
	obj := newSafeObject(1)
	obj.MarkRemoved()
	require.NotPanics(t, func() {
		obj.MarkRemoved()
	})
}

func TestSafeObjectReadersDoNotBlockEachOther(t *testing.T) {
	obj := newSafeObject(1)
	require.NoError(t, obj.AcquireRead())
	require.NoError(t, obj.AcquireRead())
	obj.ReleaseRead()
	obj.ReleaseRead()
}

func TestSafeObjectIsDeletableRequiresRemovedNoRefsNoLock(t *testing.T) {
	obj := newSafeObject(1)
	require.False(t, obj.IsDeletable(), "fresh object is not tombstoned")

	require.NoError(t, obj.Reference())
	obj.MarkRemoved()
	require.False(t, obj.IsDeletable(), "still has an outstanding reference")

	obj.Dereference()
	require.True(t, obj.IsDeletable())

	// A read lock taken before the tombstone still blocks deletion.
	held := newSafeObject(1)
	require.NoError(t, held.AcquireRead())
	held.MarkRemoved()
	require.False(t, held.IsDeletable(), "held read lock blocks deletion")
	held.ReleaseRead()
	require.True(t, held.IsDeletable())
}

func TestSafeObjectWriteExcludesRead(t *testing.T) {
	obj := newSafeObject(1)
	require.NoError(t, obj.AcquireWrite())

	done := make(chan struct{})
	go func() {
		_ = obj.AcquireRead()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("reader acquired while writer held the lock")
	default:
	}

	obj.ReleaseWrite()
	<-done
	obj.ReleaseRead()
}
