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

import "github.com/google/uuid"

// ObjectID identifies a SafeObject for diagnostics and tests. It plays
// no role in the safety protocol itself, which is built on pointer
// identity (I3, I4); it exists so a stress test or a log line can name
// an object without leaking its payload type.
type ObjectID = uuid.UUID

func newObjectID() ObjectID {
	return uuid.New()
}
