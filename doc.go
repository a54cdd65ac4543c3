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

// Package ptlib implements thread-safe object collections: a per-object
// reference-count + reader/writer-lock + tombstone protocol (SafeObject),
// a container that serializes structural edits under a single mutex and
// garbage-collects tombstoned objects (SafeCollection), a scoped handle
// that couples acquiring a reference with acquiring a lock across
// arbitrary control flow including container traversal (SafeHandle), and
// two thin typed facades over SafeCollection (SafeList, SafeDictionary).
//
// The goal is to let many goroutines concurrently add, find, read,
// mutate, enumerate and remove long-lived objects held in a shared
// container without data races, deadlocks, or a goroutine observing a
// removed object's data through a lock it was not entitled to — while
// never holding the container's mutex during per-object work.
package ptlib
