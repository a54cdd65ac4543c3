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

import (
	"time"

	"golang.org/x/exp/constraints"
)

// SafeDictionary is a thread-safe, key-ordered mapping, the generic
// counterpart to PTLib's PSafeDictionary. Structural edits go through
// SafeCollection; key lookup and key-order traversal go through a
// keyedMapStore backed by github.com/launix-de/NonLockingReadMap.
type SafeDictionary[K constraints.Ordered, T any] struct {
	coll  *SafeCollection[T]
	store *keyedMapStore[K, T]
}

// NewSafeDictionary creates an empty SafeDictionary.
func NewSafeDictionary[K constraints.Ordered, T any]() *SafeDictionary[K, T] {
	store := newKeyedMapStore[K, T]()
	return &SafeDictionary[K, T]{
		coll:  newSafeCollection[T](store),
		store: store,
	}
}

// SetAt inserts value under key, replacing (and tombstoning) whatever
// was previously stored there, and returns the new member.
func (d *SafeDictionary[K, T]) SetAt(key K, value T) *SafeObject[T] {
	obj := newSafeObject(value)
	var old *SafeObject[T]
	d.coll.internalInsert(obj, func(memberStore[T]) int {
		old = d.store.setKey(key, obj)
		return 0
	})
	if old != nil {
		d.coll.mu.Lock()
		old.MarkRemoved()
		old.Dereference()
		d.coll.pending = append(d.coll.pending, old)
		d.coll.mu.Unlock()
	}
	return obj
}

// GetAt returns the live member stored under key.
func (d *SafeDictionary[K, T]) GetAt(key K) (*SafeObject[T], bool) {
	d.coll.mu.Lock()
	defer d.coll.mu.Unlock()
	return d.store.getByKey(key)
}

// RemoveAt tombstones the member stored under key.
func (d *SafeDictionary[K, T]) RemoveAt(key K) bool {
	d.coll.mu.Lock()
	obj, ok := d.store.removeKey(key)
	if !ok {
		d.coll.mu.Unlock()
		return false
	}
	obj.MarkRemoved()
	obj.Dereference()
	d.coll.pending = append(d.coll.pending, obj)
	d.coll.mu.Unlock()
	return true
}

// GetWithLock looks up key and returns its payload after acquiring the
// object under mode, in one call.
func (d *SafeDictionary[K, T]) GetWithLock(key K, mode Mode) (T, error) {
	var zero T
	obj, ok := d.GetAt(key)
	if !ok {
		return zero, ErrKeyNotFound
	}
	h := NewHandle(d.coll)
	h.mode = mode
	if err := h.Assign(obj); err != nil {
		return zero, err
	}
	defer h.Release()
	return h.GetObject()
}

// FindWithLock scans live members in ascending key order, entering mode
// on the first one for which predicate returns true. Complexity is
// O(n) per call, dominated by NonLockingReadMap.GetAll's snapshot copy;
// see SPEC_FULL.md §4.4.
func (d *SafeDictionary[K, T]) FindWithLock(predicate func(T) bool, mode Mode) (*SafeHandle[T], bool) {
	for _, obj := range d.coll.snapshotLive() {
		if predicate(obj.peekLocked()) {
			h := NewHandle(d.coll)
			h.mode = mode
			if err := h.Assign(obj); err != nil {
				continue
			}
			return h, true
		}
	}
	return nil, false
}

// Len returns the number of live entries.
func (d *SafeDictionary[K, T]) Len() int {
	return d.coll.GetSize()
}

// CollectGarbage reclaims tombstoned entries with no outstanding
// references or locks.
func (d *SafeDictionary[K, T]) CollectGarbage() int {
	return d.coll.CollectGarbage()
}

// SetAutoDelete starts periodic background garbage collection.
func (d *SafeDictionary[K, T]) SetAutoDelete(period time.Duration) {
	d.coll.SetAutoDelete(period)
}

// StopAutoDelete stops periodic background garbage collection.
func (d *SafeDictionary[K, T]) StopAutoDelete() {
	d.coll.StopAutoDelete()
}

// Close tombstones every entry and blocks until all are reclaimed or the
// drain gives up.
func (d *SafeDictionary[K, T]) Close() {
	d.coll.Close()
}

// NewHandle returns an empty handle over this dictionary's collection.
func (d *SafeDictionary[K, T]) NewHandle() *SafeHandle[T] {
	return NewHandle(d.coll)
}
