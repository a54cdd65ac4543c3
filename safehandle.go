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

import "sync"

// Mode selects what a SafeHandle does to the object it currently binds:
// hold a reference only, hold a reference plus a shared read lock, or
// hold a reference plus an exclusive write lock.
type Mode int

const (
	// ModeReference holds a reference without locking the object for
	// reading or writing.
	ModeReference Mode = iota
	// ModeReadOnly holds a reference and a shared read lock.
	ModeReadOnly
	// ModeReadWrite holds a reference and an exclusive write lock.
	ModeReadWrite
)

// SafeHandle couples acquiring a reference to a SafeObject with
// acquiring the lock its Mode calls for, across arbitrary control flow,
// including moving between members of a SafeCollection via Next/
// Previous. Exactly one of "empty" or "bound to target with mode
// entered" is true at any time (H1); releasing a handle always undoes
// both the reference and the lock together (H2).
//
// SafeHandle is not safe for concurrent use by multiple goroutines (H3);
// each goroutine that walks a collection should own its own handle.
// Locking is not reentrant: a goroutine that already holds an object's
// lock, through this or another handle, blocks forever if it asks for
// that object's write lock again.
type SafeHandle[T any] struct {
	mu     sync.Mutex
	coll   *SafeCollection[T]
	target *SafeObject[T]
	mode   Mode
}

// NewHandle returns an empty handle bound to coll, ready to be pointed
// at a member via Assign, or walked from the start via Next.
func NewHandle[T any](coll *SafeCollection[T]) *SafeHandle[T] {
	return &SafeHandle[T]{coll: coll}
}

// enterMode acquires whatever obj's lock mode calls for, on top of the
// reference the caller already holds. On failure it releases that
// reference before returning.
func enterMode[T any](obj *SafeObject[T], mode Mode) error {
	switch mode {
	case ModeReadOnly:
		if err := obj.AcquireRead(); err != nil {
			obj.Dereference()
			return err
		}
	case ModeReadWrite:
		if err := obj.AcquireWrite(); err != nil {
			obj.Dereference()
			return err
		}
	}
	return nil
}

// exitMode releases whatever lock mode implied, then drops the
// reference.
func exitMode[T any](obj *SafeObject[T], mode Mode) {
	switch mode {
	case ModeReadOnly:
		obj.ReleaseRead()
	case ModeReadWrite:
		obj.ReleaseWrite()
	}
	obj.Dereference()
}

// Assign points the handle at obj, entering the handle's current mode.
// Any previously bound target is released, whether or not binding obj
// succeeds; obj is referenced and locked before the previous target is
// released. Returns ErrObjectRemoved if obj is already tombstoned.
func (h *SafeHandle[T]) Assign(obj *SafeObject[T]) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.assignLocked(obj, h.mode)
}

// SetMode releases the current target's lock under the old mode and
// re-acquires it under newMode, keeping the same target. Switching to
// ModeReference only releases the lock and keeps the reference, even on
// a tombstoned target. Switching to a lock mode on a tombstoned target
// fails with ErrObjectRemoved and leaves the handle empty. A no-op on an
// empty handle beyond recording newMode for future Assign/Next calls.
func (h *SafeHandle[T]) SetMode(newMode Mode) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.target == nil {
		h.mode = newMode
		return nil
	}
	if newMode == ModeReference {
		switch h.mode {
		case ModeReadOnly:
			h.target.ReleaseRead()
		case ModeReadWrite:
			h.target.ReleaseWrite()
		}
		h.mode = newMode
		return nil
	}
	target := h.target
	if err := target.Reference(); err != nil {
		exitMode(h.target, h.mode)
		h.target = nil
		h.mode = newMode
		return err
	}
	exitMode(h.target, h.mode)
	if err := enterMode(target, newMode); err != nil {
		h.target = nil
		h.mode = newMode
		return err
	}
	h.target = target
	h.mode = newMode
	return nil
}

// assignLocked binds obj under mode, releasing any previous target.
// Caller must hold h.mu.
func (h *SafeHandle[T]) assignLocked(obj *SafeObject[T], mode Mode) error {
	if obj == nil {
		h.releaseLocked()
		return ErrEmptyHandle
	}
	if err := obj.Reference(); err != nil {
		h.releaseLocked()
		return err
	}
	if err := enterMode(obj, mode); err != nil {
		h.releaseLocked()
		return err
	}
	h.releaseLocked()
	h.target = obj
	h.mode = mode
	return nil
}

// releaseLocked releases the current target, if any. Caller must hold
// h.mu.
func (h *SafeHandle[T]) releaseLocked() {
	if h.target == nil {
		return
	}
	exitMode(h.target, h.mode)
	h.target = nil
}

// Release unbinds the handle, releasing its lock and reference. A no-op
// on an already-empty handle.
func (h *SafeHandle[T]) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releaseLocked()
}

// IsEmpty reports whether the handle is currently unbound.
func (h *SafeHandle[T]) IsEmpty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.target == nil
}

// GetObject returns the payload of the currently bound target. Callers
// must have entered ModeReadOnly or ModeReadWrite for this read to be
// safe against concurrent writers; under ModeReference it merely
// reflects the value's state as of some point after the reference was
// taken.
func (h *SafeHandle[T]) GetObject() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var zero T
	if h.target == nil {
		return zero, ErrEmptyHandle
	}
	return h.target.peekLocked(), nil
}

// SetObject overwrites the payload of the currently bound target.
// Requires the handle to be in ModeReadWrite.
func (h *SafeHandle[T]) SetObject(v T) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.target == nil {
		return ErrEmptyHandle
	}
	if h.mode != ModeReadWrite {
		misuse("SetObject called on a handle not held in ModeReadWrite")
	}
	h.target.setLocked(v)
	return nil
}

// step walks the handle to the collection member adjacent to its
// current target (or the first member, from an empty handle moving
// forward; an empty handle moving backward stays empty),
// entering the handle's mode on the new target and releasing the old
// one. It corresponds to Next when forward is true, Previous otherwise.
//
// The departure object's reference and lock are released before the
// neighbor lookup, per spec §4.3: releasing first is what lets another
// goroutine's own Remove/CollectGarbage proceed without waiting on this
// handle's traversal. The tombstone-retention member stores (see
// ordered.go) keep the departure point's position marker alive across
// that gap, so the lookup below still succeeds even if the object is
// concurrently removed — with one exception: if CollectGarbage's
// prune step wins that race, the position marker itself is gone, and
// step conservatively reports false rather than guessing a neighbor.
// This is a documented, safe degradation, not a bug.
func (h *SafeHandle[T]) step(forward bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	departure := h.target
	mode := h.mode
	h.releaseLocked()

	if h.coll == nil {
		return false
	}

	var candidate *SafeObject[T]
	var ok bool
	if departure == nil {
		if forward {
			candidate, ok = h.coll.getAtLive(0)
		} else {
			return false
		}
	} else if forward {
		candidate, ok = h.coll.nextOf(departure)
	} else {
		candidate, ok = h.coll.previousOf(departure)
	}

	for ok {
		if err := h.assignLocked(candidate, mode); err == nil {
			return true
		}
		if forward {
			candidate, ok = h.coll.nextOf(candidate)
		} else {
			candidate, ok = h.coll.previousOf(candidate)
		}
	}
	h.mode = mode
	return false
}

// Next walks the handle forward to the next live member. From an empty
// handle it binds the first member. Returns false, leaving the handle
// empty, once there is no further live member to reach.
func (h *SafeHandle[T]) Next() bool {
	return h.step(true)
}

// Previous walks the handle backward to the previous live member.
// Returns false, leaving the handle empty, once there is no earlier
// live member to reach; unlike Next, it never binds a "last member"
// starting point from empty, matching PTLib's iterator semantics where
// reverse traversal is only meaningful once positioned.
func (h *SafeHandle[T]) Previous() bool {
	return h.step(false)
}
