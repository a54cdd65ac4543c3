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

import "github.com/google/btree"

// btreeDegree matches the delta btree degree storage/index.go uses for
// its own btree.NewG call.
const btreeDegree = 8

// seqEntry is one node of orderedListStore's btree: a monotonic
// insertion sequence number paired with the object at that position.
type seqEntry[T any] struct {
	seq uint64
	obj *SafeObject[T]
}

func seqLess[T any](a, b seqEntry[T]) bool {
	return a.seq < b.seq
}

// orderedListStore is the ordered-sequence memberStore backing SafeList,
// implemented over github.com/google/btree the way storage/index.go
// backs its delta index. Entries are keyed by insertion order, not by
// value, so index-based access is really "position in insertion order
// among currently-live objects" — the same semantics PList gives PTLib.
//
// A removed object's entry is not deleted from the tree immediately;
// it is only pruned once CollectGarbage proves the object deletable.
// This lets a SafeHandle that just released its lock on an object still
// resolve that object's live successor/predecessor by identity, because
// the departure point's position marker survives until it is genuinely
// garbage. See SPEC_FULL.md §4.3.
//
// orderedListStore is not safe for concurrent use by itself: every
// caller reaches it through SafeCollection.mu.
type orderedListStore[T any] struct {
	tree      *btree.BTreeG[seqEntry[T]]
	seqOf     map[*SafeObject[T]]uint64
	removed   map[*SafeObject[T]]bool
	nextSeq   uint64
	liveCount int
}

func newOrderedListStore[T any]() *orderedListStore[T] {
	return &orderedListStore[T]{
		tree:    btree.NewG[seqEntry[T]](btreeDegree, seqLess[T]),
		seqOf:   make(map[*SafeObject[T]]uint64),
		removed: make(map[*SafeObject[T]]bool),
	}
}

// append inserts obj at the end of the sequence and returns its position
// among currently-live objects.
func (s *orderedListStore[T]) append(obj *SafeObject[T]) int {
	seq := s.nextSeq
	s.nextSeq++
	s.tree.ReplaceOrInsert(seqEntry[T]{seq: seq, obj: obj})
	s.seqOf[obj] = seq
	s.liveCount++
	return s.liveCount - 1
}

// removeObj tombstones obj's membership without deleting its btree entry
// (see prune). Returns false if obj was never in this store or is
// already removed.
func (s *orderedListStore[T]) removeObj(obj *SafeObject[T]) bool {
	if s.removed[obj] {
		return false
	}
	if _, ok := s.seqOf[obj]; !ok {
		return false
	}
	s.removed[obj] = true
	s.liveCount--
	return true
}

// prune physically forgets obj's position. Only safe to call once obj is
// truly deletable (SafeObject.IsDeletable), i.e. from CollectGarbage.
func (s *orderedListStore[T]) prune(obj *SafeObject[T]) {
	seq, ok := s.seqOf[obj]
	if !ok {
		return
	}
	s.tree.Delete(seqEntry[T]{seq: seq})
	delete(s.seqOf, obj)
	delete(s.removed, obj)
}

// getAt returns the pos'th live object in insertion order.
func (s *orderedListStore[T]) getAt(pos int) (*SafeObject[T], bool) {
	if pos < 0 {
		return nil, false
	}
	var result *SafeObject[T]
	found := false
	i := 0
	s.tree.Ascend(func(e seqEntry[T]) bool {
		if s.removed[e.obj] {
			return true
		}
		if i == pos {
			result, found = e.obj, true
			return false
		}
		i++
		return true
	})
	return result, found
}

// next returns the first entry after obj in insertion order, live or
// tombstoned — the SafeHandle traversal loop decides whether to accept
// it (Reference succeeds) or skip further (Reference fails).
func (s *orderedListStore[T]) next(obj *SafeObject[T]) (*SafeObject[T], bool) {
	seq, ok := s.seqOf[obj]
	if !ok {
		return nil, false
	}
	var result *SafeObject[T]
	found := false
	s.tree.AscendGreaterOrEqual(seqEntry[T]{seq: seq + 1}, func(e seqEntry[T]) bool {
		result, found = e.obj, true
		return false
	})
	return result, found
}

// previous returns the first entry before obj in insertion order, live
// or tombstoned.
func (s *orderedListStore[T]) previous(obj *SafeObject[T]) (*SafeObject[T], bool) {
	seq, ok := s.seqOf[obj]
	if !ok || seq == 0 {
		return nil, false
	}
	var result *SafeObject[T]
	found := false
	s.tree.DescendLessOrEqual(seqEntry[T]{seq: seq - 1}, func(e seqEntry[T]) bool {
		result, found = e.obj, true
		return false
	})
	return result, found
}

// snapshot returns every live object in insertion order.
func (s *orderedListStore[T]) snapshot() []*SafeObject[T] {
	out := make([]*SafeObject[T], 0, s.liveCount)
	s.tree.Ascend(func(e seqEntry[T]) bool {
		if !s.removed[e.obj] {
			out = append(out, e.obj)
		}
		return true
	})
	return out
}

// len returns the number of live objects, O(1).
func (s *orderedListStore[T]) len() int {
	return s.liveCount
}
