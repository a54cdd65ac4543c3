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
	"golang.org/x/exp/constraints"

	"github.com/launix-de/NonLockingReadMap"
)

// dictEntry is the value type stored in a keyedMapStore's
// NonLockingReadMap. GetKey and ComputeSize must be value receivers, not
// pointer receivers, for dictEntry to satisfy NonLockingReadMap.KeyGetter
// as a type parameter — the same shape db.Tables uses for its own table
// entries.
type dictEntry[K constraints.Ordered, T any] struct {
	key K
	obj *SafeObject[T]
}

func (e dictEntry[K, T]) GetKey() K {
	return e.key
}

func (e dictEntry[K, T]) ComputeSize() uint {
	return 16
}

// keyedMapStore is the keyed memberStore backing SafeDictionary,
// implemented over the vendored github.com/launix-de/NonLockingReadMap,
// mirroring how db.table embeds a NonLockingReadMap of rows keyed by
// primary key. Because NonLockingReadMap's write path rebuilds its
// entire backing slice on every mutation, keyedMapStore keeps its own
// insertion-order index only implicitly, through the map's own sorted-
// by-key iteration; SafeDictionary has no positional Append/Next
// semantics beyond what "sorted by key" already gives it.
//
// keyedMapStore is not safe for concurrent use by itself: every caller
// reaches it through SafeCollection.mu.
type keyedMapStore[K constraints.Ordered, T any] struct {
	entries NonLockingReadMap.NonLockingReadMap[dictEntry[K, T], K]
}

func newKeyedMapStore[K constraints.Ordered, T any]() *keyedMapStore[K, T] {
	return &keyedMapStore[K, T]{
		entries: NonLockingReadMap.New[dictEntry[K, T], K](),
	}
}

// setKey inserts or replaces the object stored under key, returning the
// previous occupant if any.
func (s *keyedMapStore[K, T]) setKey(key K, obj *SafeObject[T]) *SafeObject[T] {
	old := s.entries.Set(&dictEntry[K, T]{key: key, obj: obj})
	if old == nil {
		return nil
	}
	return (*old).obj
}

// getByKey returns the live object stored under key, if any.
func (s *keyedMapStore[K, T]) getByKey(key K) (*SafeObject[T], bool) {
	entry := s.entries.Get(key)
	if entry == nil {
		return nil, false
	}
	return entry.obj, true
}

// removeKey tombstones and physically evicts the entry stored under key;
// unlike orderedListStore, NonLockingReadMap has no cheap way to keep a
// stale key around, so eviction and pruning happen together here and
// CollectGarbage's optional pruner step is a no-op for dictionaries.
func (s *keyedMapStore[K, T]) removeKey(key K) (*SafeObject[T], bool) {
	old := s.entries.Remove(key)
	if old == nil {
		return nil, false
	}
	return (*old).obj, true
}

// removeObj tombstones obj by scanning for its key. SafeCollection calls
// this from InternalRemove/InternalRemoveAt, which only know the object,
// not the key it was filed under.
func (s *keyedMapStore[K, T]) removeObj(obj *SafeObject[T]) bool {
	for _, e := range s.entries.GetAll() {
		if e.obj == obj {
			_, ok := s.removeKey(e.key)
			return ok
		}
	}
	return false
}

// getAt returns the pos'th live object in ascending key order.
func (s *keyedMapStore[K, T]) getAt(pos int) (*SafeObject[T], bool) {
	all := s.entries.GetAll()
	if pos < 0 || pos >= len(all) {
		return nil, false
	}
	return all[pos].obj, true
}

// next returns the entry immediately after obj in ascending key order.
func (s *keyedMapStore[K, T]) next(obj *SafeObject[T]) (*SafeObject[T], bool) {
	all := s.entries.GetAll()
	for i, e := range all {
		if e.obj == obj {
			if i+1 < len(all) {
				return all[i+1].obj, true
			}
			return nil, false
		}
	}
	return nil, false
}

// previous returns the entry immediately before obj in ascending key
// order.
func (s *keyedMapStore[K, T]) previous(obj *SafeObject[T]) (*SafeObject[T], bool) {
	all := s.entries.GetAll()
	for i, e := range all {
		if e.obj == obj {
			if i > 0 {
				return all[i-1].obj, true
			}
			return nil, false
		}
	}
	return nil, false
}

// snapshot returns every live object in ascending key order.
func (s *keyedMapStore[K, T]) snapshot() []*SafeObject[T] {
	all := s.entries.GetAll()
	out := make([]*SafeObject[T], 0, len(all))
	for _, e := range all {
		out = append(out, e.obj)
	}
	return out
}

// len returns the number of live entries.
func (s *keyedMapStore[K, T]) len() int {
	return len(s.entries.GetAll())
}
