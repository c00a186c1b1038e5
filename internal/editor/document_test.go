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

import "testing"

func TestDocumentLineSpans(t *testing.T) {
	d := NewDocument("abc\n\nde\n")
	if d.LineCount() != 4 {
		t.Fatalf("line count: %d", d.LineCount())
	}
	cases := []struct {
		line  int
		start int
		n     int
	}{
		{1, 0, 3},
		{2, 4, 0}, // blank line
		{3, 5, 2},
		{4, 8, 0}, // trailing newline yields an empty last line
	}
	for _, c := range cases {
		sp, ok := d.LineSpan(c.line)
		if !ok || sp.Start != c.start || sp.Length != c.n {
			t.Fatalf("line %d: %+v ok=%v", c.line, sp, ok)
		}
	}
	if _, ok := d.LineSpan(0); ok {
		t.Fatalf("line 0 must not resolve")
	}
	if _, ok := d.LineSpan(5); ok {
		t.Fatalf("line past end must not resolve")
	}
}

func TestDocumentEmpty(t *testing.T) {
	d := NewDocument("")
	if d.LineCount() != 1 {
		t.Fatalf("empty document line count: %d", d.LineCount())
	}
	sp, ok := d.LineSpan(1)
	if !ok || sp.Start != 0 || sp.Length != 0 {
		t.Fatalf("empty document span: %+v", sp)
	}
}

func TestWordRangeAt(t *testing.T) {
	//          0123456789
	d := NewDocument("x = y + 1")
	if from, to, ok := d.WordRangeAt(4); !ok || from != 4 || to != 5 {
		t.Fatalf("y: %d..%d ok=%v", from, to, ok)
	}
	if from, to, ok := d.WordRangeAt(0); !ok || from != 0 || to != 1 {
		t.Fatalf("x: %d..%d ok=%v", from, to, ok)
	}
	if _, _, ok := d.WordRangeAt(5); ok {
		t.Fatalf("space should not be a word")
	}
	if _, _, ok := d.WordRangeAt(6); ok {
		t.Fatalf("+ should not be a word")
	}
	if _, _, ok := d.WordRangeAt(99); ok {
		t.Fatalf("out of range offset should not resolve")
	}
}

func TestWordRangeKebabCase(t *testing.T) {
	d := NewDocument("(move-right 2)")
	from, to, ok := d.WordRangeAt(3)
	if !ok || from != 1 || to != 11 {
		t.Fatalf("move-right: %d..%d ok=%v", from, to, ok)
	}
	// the hyphen itself belongs to the word
	from, to, ok = d.WordRangeAt(5)
	if !ok || from != 1 || to != 11 {
		t.Fatalf("hyphen inside word: %d..%d ok=%v", from, to, ok)
	}
	if _, _, ok := d.WordRangeAt(0); ok {
		t.Fatalf("open paren should not be a word")
	}
}
