package ptlib

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSafeCollectionRemoveAll(t *testing.T) {
	l := NewSafeList[int]()
	l.Append(1)
	l.Append(2)
	l.Append(3)

	l.coll.RemoveAll()
	require.Equal(t, 0, l.Len())
	require.Equal(t, 3, l.coll.pendingCount())

	require.Equal(t, 3, l.CollectGarbage())
}

func TestSafeCollectionAutoDeleteReclaimsOnTimer(t *testing.T) {
	l := NewSafeList[int]()
	obj := l.Append(1)
	require.True(t, l.Remove(obj))

	l.SetAutoDelete(5 * time.Millisecond)
	defer l.StopAutoDelete()

	require.Eventually(t, func() bool {
		return l.coll.pendingCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSafeCollectionCloseWaitsForOutstandingReference(t *testing.T) {
	l := NewSafeList[int]()
	obj := l.Append(1)
	require.NoError(t, obj.Reference())

	done := make(chan struct{})
	go func() {
		l.Close()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Close returned before the outstanding reference was dropped")
	case <-time.After(20 * time.Millisecond):
	}

	obj.Dereference()
	<-done
	require.Equal(t, 0, l.coll.pendingCount())
}

func TestSafeCollectionGetSizeExcludesPending(t *testing.T) {
	l := NewSafeList[int]()
	obj := l.Append(1)
	l.Append(2)
	require.Equal(t, 2, l.Len())

	l.Remove(obj)
	require.Equal(t, 1, l.Len())
}
