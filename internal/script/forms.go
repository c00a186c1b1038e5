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

import "strings"

// form is one top-level expression with the 1-based line and byte column of
// its first byte. Columns count bytes, matching the editor's byte-offset
// spans. Evaluation proceeds form by form so that every simulation step can
// be attributed to the source line that caused it.
type form struct {
	Text string
	Line int
	Col  int
}

// splitForms scans source into top-level forms. It understands line comments
// (;), double-quoted strings with backslash escapes, and nested parentheses.
// Structural problems come back as positioned errors before golisp ever sees
// the text. The scan is byte-wise: every structurally significant character
// is ASCII, and UTF-8 continuation bytes pass through untouched, so columns
// stay aligned with the document's byte offsets on non-ASCII lines.
func splitForms(source string) ([]form, *Error) {
	var forms []form
	var b strings.Builder

	line, col := 1, 1
	startLine, startCol := 0, 0
	depth := 0
	inString := false
	escaped := false
	inComment := false
	// openLine/openCol remember the outermost unclosed paren for EOF errors
	openLine, openCol := 0, 0

	flush := func() {
		text := strings.TrimSpace(b.String())
		b.Reset()
		if text != "" {
			forms = append(forms, form{Text: text, Line: startLine, Col: startCol})
		}
		startLine, startCol = 0, 0
	}

	for i := 0; i < len(source); i++ {
		c := source[i]
		switch {
		case inComment:
			if c == '\n' {
				inComment = false
				if depth > 0 {
					b.WriteByte(' ')
				} else if startLine != 0 {
					// atom terminated by a comment-ending newline
					flush()
				}
			}
		case inString:
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
				if depth == 0 {
					flush()
				}
			}
		case c == ';':
			inComment = true
		case c == '"':
			if startLine == 0 {
				startLine, startCol = line, col
			}
			inString = true
			b.WriteByte(c)
		case c == '(':
			if depth == 0 {
				if startLine != 0 {
					flush() // preceding bare atom
				}
				startLine, startCol = line, col
				openLine, openCol = line, col
			}
			depth++
			b.WriteByte(c)
		case c == ')':
			if depth == 0 {
				return nil, errAt(line, col, "unexpected closing parenthesis")
			}
			depth--
			b.WriteByte(c)
			if depth == 0 {
				flush()
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if depth > 0 {
				b.WriteByte(c)
			} else if startLine != 0 {
				flush()
			}
		default:
			if startLine == 0 {
				startLine, startCol = line, col
			}
			b.WriteByte(c)
		}

		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	if inString {
		return nil, errAt(startLine, startCol, "unterminated string")
	}
	if depth > 0 {
		return nil, errAt(openLine, openCol, "missing closing parenthesis")
	}
	if startLine != 0 {
		flush()
	}
	return forms, nil
}
