/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	applog "github.com/chris-ha458/elara/internal/log"
	"github.com/chris-ha458/elara/internal/script"
)

// Resolve maps a positioned script error onto a text range in the given
// layout. The reported column often lands on a delimiter rather than inside
// the offending token, so the search walks backward one offset at a time
// until it finds a word, bounded by the document start.
//
// A line beyond the layout means the interpreter and the editor disagree on
// the document; that is a logic fault, logged and degraded to a zero-width
// range at the document start instead of a crash.
func Resolve(layout LineLayout, e *script.Error) TextRange {
	r := TextRange{Message: e.Message, Severity: SeverityError}

	span, ok := layout.LineSpan(e.Line)
	if !ok {
		applog.WithComponent("editor").Warn("interpreter reported a line outside the document",
			"line", e.Line, "lines", layout.LineCount())
		return r // zero-width at offset 0
	}

	// blank line: highlight its start as a zero-width range
	if span.Length == 0 {
		r.From, r.To = span.Start, span.Start
		return r
	}

	col := e.Col
	if col > 0 {
		// columns are 1-based like lines; offsets are 0-based
		col--
	}
	if col > span.Length-1 {
		col = span.Length - 1
	}
	offset := span.Start + col

	for offset > 0 {
		if from, to, ok := layout.WordRangeAt(offset); ok {
			r.From, r.To = from, to
			return r
		}
		offset--
	}
	if from, to, ok := layout.WordRangeAt(0); ok {
		r.From, r.To = from, to
		return r
	}

	// no word anywhere before the position: point at the line start
	r.From, r.To = span.Start, span.Start
	return r
}
