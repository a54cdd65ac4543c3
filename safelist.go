/*
Copyright (C) 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package ptlib

import "time"

// SafeList is a thread-safe, insertion-ordered collection of values,
// the generic counterpart to PTLib's PSafeList. Structural edits go
// through SafeCollection; ordering and positional lookup go through an
// orderedListStore.
type SafeList[T any] struct {
	coll  *SafeCollection[T]
	store *orderedListStore[T]
}

// NewSafeList creates an empty SafeList.
func NewSafeList[T any]() *SafeList[T] {
	store := newOrderedListStore[T]()
	return &SafeList[T]{
		coll:  newSafeCollection[T](store),
		store: store,
	}
}

// Append adds value to the end of the list and returns a SafeObject
// handle-target for it. The caller does not hold any reference to the
// returned object; obtain one via NewHandle+Assign or FindWithLock.
func (l *SafeList[T]) Append(value T) *SafeObject[T] {
	obj := newSafeObject(value)
	l.coll.internalInsert(obj, func(memberStore[T]) int {
		return l.store.append(obj)
	})
	return obj
}

// Remove tombstones obj if it is a live member of this list.
func (l *SafeList[T]) Remove(obj *SafeObject[T]) bool {
	return l.coll.InternalRemove(obj)
}

// RemoveAt tombstones the live member currently at position pos.
func (l *SafeList[T]) RemoveAt(pos int) bool {
	_, ok := l.coll.InternalRemoveAt(pos)
	return ok
}

// GetAt returns the live member currently at position pos.
func (l *SafeList[T]) GetAt(pos int) (*SafeObject[T], bool) {
	return l.coll.getAtLive(pos)
}

// GetWithLock returns the payload at position pos after acquiring the
// object under mode, doing the lock/read/unlock dance in one call for
// callers that don't need to hold the lock across further work. For
// anything requiring the lock to be held across multiple operations,
// use a SafeHandle instead.
func (l *SafeList[T]) GetWithLock(pos int, mode Mode) (T, error) {
	var zero T
	obj, ok := l.coll.getAtLive(pos)
	if !ok {
		return zero, ErrIndexOutOfRange
	}
	h := NewHandle(l.coll)
	h.mode = mode
	if err := h.Assign(obj); err != nil {
		return zero, err
	}
	defer h.Release()
	return h.GetObject()
}

// FindWithLock scans live members in order, entering mode on the first
// one for which predicate returns true and returning a handle already
// bound to it. Predicate runs against each object's raw stored value
// without a per-object lock, mirroring PTLib's PObject::Compare, which
// is also called outside any object-level lock during a list scan; if
// predicate needs a consistent view of a concurrently mutable payload,
// have T carry its own synchronization.
//
// Complexity is O(n) in the list's live length, since orderedListStore
// keeps no secondary index over values.
func (l *SafeList[T]) FindWithLock(predicate func(T) bool, mode Mode) (*SafeHandle[T], bool) {
	for _, obj := range l.coll.snapshotLive() {
		if predicate(obj.peekLocked()) {
			h := NewHandle(l.coll)
			h.mode = mode
			if err := h.Assign(obj); err != nil {
				continue
			}
			return h, true
		}
	}
	return nil, false
}

// Len returns the number of live members.
func (l *SafeList[T]) Len() int {
	return l.coll.GetSize()
}

// CollectGarbage reclaims tombstoned members with no outstanding
// references or locks. See SafeCollection.CollectGarbage.
func (l *SafeList[T]) CollectGarbage() int {
	return l.coll.CollectGarbage()
}

// SetAutoDelete starts periodic background garbage collection.
func (l *SafeList[T]) SetAutoDelete(period time.Duration) {
	l.coll.SetAutoDelete(period)
}

// StopAutoDelete stops periodic background garbage collection.
func (l *SafeList[T]) StopAutoDelete() {
	l.coll.StopAutoDelete()
}

// Close tombstones every member and blocks until all are reclaimed or
// the drain gives up. See SafeCollection.Close.
func (l *SafeList[T]) Close() {
	l.coll.Close()
}

// NewHandle returns an empty handle over this list's collection, ready
// for Next/Previous traversal or Assign.
func (l *SafeList[T]) NewHandle() *SafeHandle[T] {
	return NewHandle(l.coll)
}
