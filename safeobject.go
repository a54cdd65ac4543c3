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

// SafeObject couples a reference count, a tombstone flag and a
// reader/writer lock around a payload value of type T. It is the unit of
// safety this whole package builds on: any goroutine holding a reference
// keeps the object alive, and no reference, read lock or write lock is
// granted once the object has been marked removed (I1). AcquireRead and
// AcquireWrite do not take a reference themselves; SafeHandle takes one
// before locking, so a lock held through a handle always implies an
// active reference (I3). The guard mutex protecting refCount/removed is
// taken before the reader/writer lock is requested (I4); when the lock
// is not granted at once, the guard is dropped while waiting and taken
// again briefly after the lock is granted, to recheck removed.
//
// SafeObject is not meant to be used directly by application code; go
// through SafeHandle, SafeList or SafeDictionary instead.
type SafeObject[T any] struct {
	id ObjectID

	guard    sync.Mutex // protects refCount and removed together
	refCount uint
	removed  bool

	lock sync.RWMutex // protects value

	value T
}

func newSafeObject[T any](value T) *SafeObject[T] {
	return &SafeObject[T]{id: newObjectID(), value: value}
}

// ID returns this object's diagnostic identity. See identity.go.
func (o *SafeObject[T]) ID() ObjectID {
	return o.id
}

// Reference increments the reference count, guaranteeing the object will
// not be reclaimed while the caller holds it, without necessarily
// locking it for reading or writing. It fails with ErrObjectRemoved if
// the object has already been tombstoned.
func (o *SafeObject[T]) Reference() error {
	o.guard.Lock()
	defer o.guard.Unlock()
	if o.removed {
		return ErrObjectRemoved
	}
	o.refCount++
	return nil
}

// Dereference gives up a reference obtained from Reference. It never
// fails; calling it without a matching prior Reference is a misuse.
func (o *SafeObject[T]) Dereference() {
	o.guard.Lock()
	defer o.guard.Unlock()
	if o.refCount == 0 {
		misuse("Dereference called with refCount already zero")
	}
	o.refCount--
}

// AcquireRead locks the object for shared read access. Multiple
// goroutines may hold a read lock concurrently. It fails with
// ErrObjectRemoved if the object is (or becomes, in the narrow window
// while the lock is being granted) tombstoned; on failure no lock is
// left held.
func (o *SafeObject[T]) AcquireRead() error {
	o.guard.Lock()
	if o.removed {
		o.guard.Unlock()
		return ErrObjectRemoved
	}
	if o.lock.TryRLock() {
		o.guard.Unlock()
		return nil
	}
	o.guard.Unlock()

	o.lock.RLock()

	o.guard.Lock()
	if o.removed {
		o.lock.RUnlock()
		o.guard.Unlock()
		return ErrObjectRemoved
	}
	o.guard.Unlock()
	return nil
}

// ReleaseRead drops a read lock obtained from AcquireRead.
func (o *SafeObject[T]) ReleaseRead() {
	o.lock.RUnlock()
}

// AcquireWrite locks the object exclusively. At most one writer may hold
// the lock, and no writer is granted it while any reader holds a read
// lock. Failure semantics mirror AcquireRead.
func (o *SafeObject[T]) AcquireWrite() error {
	o.guard.Lock()
	if o.removed {
		o.guard.Unlock()
		return ErrObjectRemoved
	}
	if o.lock.TryLock() {
		o.guard.Unlock()
		return nil
	}
	o.guard.Unlock()

	o.lock.Lock()

	o.guard.Lock()
	if o.removed {
		o.lock.Unlock()
		o.guard.Unlock()
		return ErrObjectRemoved
	}
	o.guard.Unlock()
	return nil
}

// ReleaseWrite drops a write lock obtained from AcquireWrite.
func (o *SafeObject[T]) ReleaseWrite() {
	o.lock.Unlock()
}

// MarkRemoved tombstones the object. It is idempotent (L3) and does not
// wait for existing lock holders to release; they keep whatever lock
// they hold until they release it themselves (I1).
func (o *SafeObject[T]) MarkRemoved() {
	o.guard.Lock()
	o.removed = true
	o.guard.Unlock()
}

// isRemovedSnapshot reports whether the object is currently tombstoned.
// It is used by tests to observe tombstoning directly; it is
// deliberately not exported, since the public safety protocol only
// promises tombstoning is observable through a failed acquire, not
// through a direct getter.
func (o *SafeObject[T]) isRemovedSnapshot() bool {
	o.guard.Lock()
	defer o.guard.Unlock()
	return o.removed
}

// IsDeletable reports whether the object may safely be destroyed: it
// must be tombstoned, hold no outstanding references, and have no
// reader or writer lock held. The lock check is a non-blocking
// try-exclusive-then-release probe, per spec §4.1.
func (o *SafeObject[T]) IsDeletable() bool {
	o.guard.Lock()
	deletableSoFar := o.removed && o.refCount == 0
	o.guard.Unlock()
	if !deletableSoFar {
		return false
	}
	if !o.lock.TryLock() {
		return false
	}
	o.lock.Unlock()
	return true
}

// peekLocked returns the payload. Callers must already hold a read or
// write lock on the object (or otherwise know no concurrent mutation is
// possible, e.g. during CollectGarbage's destroy step, where I2 already
// guarantees exclusivity).
func (o *SafeObject[T]) peekLocked() T {
	return o.value
}

// setLocked overwrites the payload. Callers must already hold the write
// lock.
func (o *SafeObject[T]) setLocked(v T) {
	o.value = v
}
