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
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// ErrObjectRemoved is returned by any acquire-class operation (Reference,
// AcquireRead, AcquireWrite) attempted against a tombstoned object. It is
// permanent for that object: once seen, the caller should abandon it.
var ErrObjectRemoved = errors.New("ptlib: object removed")

// ErrWouldDeadlock is reserved for a future reentrant locking policy (see
// spec §4.5, §9). Nothing in this package returns it yet.
var ErrWouldDeadlock = errors.New("ptlib: acquire would deadlock")

// ErrIndexOutOfRange is returned by index-based SafeList lookups for an
// index outside the live range. It is an absence condition, not a fault.
var ErrIndexOutOfRange = errors.New("ptlib: index out of range")

// ErrKeyNotFound is returned by key-based SafeDictionary lookups for a
// key with no live entry. It is an absence condition, not a fault.
var ErrKeyNotFound = errors.New("ptlib: key not found")

// ErrEmptyHandle is returned by operations attempted on a SafeHandle with
// no bound target.
var ErrEmptyHandle = errors.New("ptlib: handle is empty")

// misuse panics on a precondition violation (dereferencing below zero,
// inserting an already-removed object into a collection, writing through
// a handle not held in ModeReadWrite). These are programmer errors, not
// expected outcomes, so they abort rather than return a value — but
// they carry a stack trace via pkg/errors so a debug build can log
// where the violation originated instead of just the panic message.
func misuse(msg string) {
	panic(pkgerrors.New("ptlib: misuse: " + msg))
}
