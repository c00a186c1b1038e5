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
	"testing"

	"github.com/chris-ha458/elara/internal/script"
)

func TestResolveWalksBackToPrecedingWord(t *testing.T) {
	// offsets: x=0, y=4, the space between y and + is offset 5 (column 6)
	d := NewDocument("x = y + 1")
	r := Resolve(d, &script.Error{Message: "boom", Line: 1, Col: 6})
	if r.From != 4 || r.To != 5 {
		t.Fatalf("range: %d..%d", r.From, r.To)
	}
	if r.Message != "boom" || r.Severity != SeverityError {
		t.Fatalf("metadata: %+v", r)
	}
}

func TestResolveExactHit(t *testing.T) {
	d := NewDocument("first\nsecond word\n")
	// line 2, column 8 -> offset inside "word"
	r := Resolve(d, &script.Error{Message: "m", Line: 2, Col: 8})
	sp, _ := d.LineSpan(2)
	if r.From != sp.Start+7 || r.To != sp.Start+11 {
		t.Fatalf("range: %d..%d", r.From, r.To)
	}
}

func TestResolveBlankLineZeroWidth(t *testing.T) {
	d := NewDocument("abc\n\ndef\n")
	r := Resolve(d, &script.Error{Message: "m", Line: 2, Col: 0})
	sp, _ := d.LineSpan(2)
	if r.From != sp.Start || r.To != sp.Start {
		t.Fatalf("blank line range: %d..%d (want zero-width at %d)", r.From, r.To, sp.Start)
	}
}

func TestResolveColumnPastLineEndClamps(t *testing.T) {
	d := NewDocument("short\n")
	r := Resolve(d, &script.Error{Message: "m", Line: 1, Col: 99})
	if r.From != 0 || r.To != 5 {
		t.Fatalf("range: %d..%d", r.From, r.To)
	}
}

func TestResolveLineOutOfRangeDegrades(t *testing.T) {
	d := NewDocument("one line")
	r := Resolve(d, &script.Error{Message: "m", Line: 12, Col: 1})
	if r.From != 0 || r.To != 0 {
		t.Fatalf("degraded range: %d..%d", r.From, r.To)
	}
	if r.Message != "m" {
		t.Fatalf("message lost: %+v", r)
	}
}

func TestResolveNoWordAnywhere(t *testing.T) {
	d := NewDocument("(((\n")
	r := Resolve(d, &script.Error{Message: "m", Line: 1, Col: 3})
	if r.From != r.To {
		t.Fatalf("expected zero-width fallback: %d..%d", r.From, r.To)
	}
}

func TestResolveWordAtDocumentStart(t *testing.T) {
	d := NewDocument("abc  ")
	// column points at trailing whitespace; the walk must reach "abc"
	r := Resolve(d, &script.Error{Message: "m", Line: 1, Col: 5})
	if r.From != 0 || r.To != 3 {
		t.Fatalf("range: %d..%d", r.From, r.To)
	}
}
