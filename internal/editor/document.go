/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor coordinates script runs: it owns the editing/running/paused
// state machine, resolves interpreter-reported positions into text ranges,
// and forwards replay frames to the host UI as board updates and line
// highlights.
package editor

// Severity of a resolved diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// TextRange is a resolved span in document offsets, From <= To, with the
// message to display. A zero-width range (From == To) marks a single point.
type TextRange struct {
	From     int
	To       int
	Message  string
	Severity Severity
}

// Span is one line's start offset and length, excluding the line terminator.
type Span struct {
	Start  int
	Length int
}

// LineLayout is the read side of the host editor the resolver needs:
// line spans and word-boundary lookup.
type LineLayout interface {
	// LineCount returns the number of lines; an empty document has one.
	LineCount() int
	// LineSpan returns the span of a 1-based line.
	LineSpan(line int) (Span, bool)
	// WordRangeAt returns the word containing the 0-based offset, using
	// alphanumeric/underscore word rules.
	WordRangeAt(offset int) (from, to int, ok bool)
}

// View is the full injected editor capability: layout plus the two display
// slots the controller writes into.
type View interface {
	LineLayout
	// SetHighlight marks the line currently being replayed; nil clears it.
	SetHighlight(r *TextRange)
	// SetDiagnostic shows an inline error; nil clears it.
	SetDiagnostic(r *TextRange)
}

// Document is a concrete LineLayout over a plain string, used by the CLI,
// the tests, and as the model behind the Fyne editor widget.
type Document struct {
	text  string
	spans []Span
}

// NewDocument computes the line layout of text. Lines split on '\n'; the
// terminator belongs to no span.
func NewDocument(text string) *Document {
	d := &Document{text: text}
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			d.spans = append(d.spans, Span{Start: start, Length: i - start})
			start = i + 1
		}
	}
	d.spans = append(d.spans, Span{Start: start, Length: len(text) - start})
	return d
}

// Text returns the full document text.
func (d *Document) Text() string { return d.text }

func (d *Document) LineCount() int { return len(d.spans) }

func (d *Document) LineSpan(line int) (Span, bool) {
	if line < 1 || line > len(d.spans) {
		return Span{}, false
	}
	return d.spans[line-1], true
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// WordRangeAt returns the [from, to) range of the word containing offset.
// Hyphens join words, matching the script language's kebab-case names, so
// "move-right" resolves as one token.
func (d *Document) WordRangeAt(offset int) (int, int, bool) {
	if offset < 0 || offset >= len(d.text) {
		return 0, 0, false
	}
	inWord := func(i int) bool {
		b := d.text[i]
		if b == '-' {
			// a hyphen counts only when glued to word characters
			return (i > 0 && isWordByte(d.text[i-1])) ||
				(i+1 < len(d.text) && isWordByte(d.text[i+1]))
		}
		return isWordByte(b)
	}
	if !inWord(offset) {
		return 0, 0, false
	}
	from, to := offset, offset+1
	for from > 0 && inWord(from-1) {
		from--
	}
	for to < len(d.text) && inWord(to) {
		to++
	}
	return from, to, true
}
