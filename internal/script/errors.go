/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package script

import "fmt"

// Error is a user-facing script diagnostic. Line and Col are 1-based; a zero
// Line means the error has no usable source position and the UI should fall
// back to a toast-style message instead of an editor marker.
type Error struct {
	Message string
	Line    int
	Col     int
}

// Positioned reports whether the error carries a source position.
func (e *Error) Positioned() bool { return e.Line > 0 }

func (e *Error) Error() string {
	if e.Positioned() {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func errAt(line, col int, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Line: line, Col: col}
}
